package routes

import (
	"github.com/cristopher43/gamer-zeta-frontend/controllers"
	"github.com/cristopher43/gamer-zeta-frontend/middleware"

	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Auth    *controllers.AuthController
	Cashier *controllers.CashierController
	Admin   *controllers.AdminController
}

type GateConfig struct {
	Sessions     middleware.SessionSource
	CookieName   string
	LoginLimiter *middleware.RateLimiter
}

func RegisterRoutes(r *gin.Engine, ctrl Controllers, gate GateConfig) {
	r.GET("/health", ctrl.Auth.Health)

	// Public routes - no session required
	auth := r.Group("/auth")
	{
		login := []gin.HandlerFunc{ctrl.Auth.Login}
		if gate.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{middleware.RateLimit(gate.LoginLimiter)}, login...)
		}
		auth.POST("/login", login...)
		auth.POST("/logout", ctrl.Auth.Logout)
		auth.GET("/status", ctrl.Auth.Status)
		auth.GET("/profile", middleware.Gate(gate.Sessions, gate.CookieName, middleware.RequireSession), ctrl.Auth.Profile)
	}

	// Cashier screen - any signed-in user
	cashier := r.Group("/cashier")
	cashier.Use(middleware.Gate(gate.Sessions, gate.CookieName, middleware.RequireSession))
	{
		cashier.GET("", ctrl.Cashier.Screen)
		cashier.GET("/products", ctrl.Cashier.Products)

		cashier.GET("/cart", ctrl.Cashier.Cart)
		cashier.POST("/cart/items", ctrl.Cashier.AddItem)
		cashier.PATCH("/cart/items/:product_id", ctrl.Cashier.UpdateQuantity)
		cashier.DELETE("/cart/items/:product_id", ctrl.Cashier.RemoveItem)
		cashier.DELETE("/cart", ctrl.Cashier.ClearCart)

		cashier.PUT("/checkout/form", ctrl.Cashier.SetForm)
		cashier.POST("/checkout", ctrl.Cashier.Checkout)
		cashier.DELETE("/notice", ctrl.Cashier.DismissNotice)

		cashier.GET("/receipt", ctrl.Cashier.Receipt)
		cashier.GET("/receipt/print", ctrl.Cashier.PrintReceipt)
		cashier.DELETE("/receipt", ctrl.Cashier.CloseReceipt)
	}

	// Admin console - admins only
	admin := r.Group("/admin")
	admin.Use(middleware.Gate(gate.Sessions, gate.CookieName, middleware.RequireAdmin))
	{
		admin.GET("/dashboard", ctrl.Admin.Dashboard)

		admin.GET("/products", ctrl.Admin.ListProducts)
		admin.POST("/products", ctrl.Admin.CreateProduct)
		admin.GET("/products/:id", ctrl.Admin.GetProduct)
		admin.PATCH("/products/:id", ctrl.Admin.UpdateProduct)
		admin.DELETE("/products/:id", ctrl.Admin.DeleteProduct)

		admin.GET("/users", ctrl.Admin.ListUsers)
		admin.POST("/users", ctrl.Admin.CreateUser)
		admin.GET("/users/:id", ctrl.Admin.GetUser)
		admin.PATCH("/users/:id", ctrl.Admin.UpdateUser)
		admin.DELETE("/users/:id", ctrl.Admin.DeleteUser)
	}
}
