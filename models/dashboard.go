package models

import "github.com/shopspring/decimal"

type DashboardStats struct {
	TotalSales   int             `json:"totalSales"`
	SalesToday   int             `json:"salesToday"`
	ProductsSold int             `json:"productsSold"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// Dashboard is the admin landing page payload.
type Dashboard struct {
	Stats       DashboardStats `json:"stats"`
	RecentSales []Sale         `json:"recent_sales"`
}
