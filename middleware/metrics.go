package middleware

import (
	"context"
	"fmt"
	"time"

	pkgaws "github.com/cristopher43/gamer-zeta-frontend/pkg/aws"

	"github.com/gin-gonic/gin"
)

const metricsTimeout = 5 * time.Second

// MetricsRecorder is satisfied by pkg/aws.MetricsClient.
type MetricsRecorder interface {
	IsEnabled() bool
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

// Metrics records request count, latency and error classes per route.
// Data points are sent from a goroutine after the response is written.
func Metrics(recorder MetricsRecorder, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil || !recorder.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		dims := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    route,
			"Status":  statusClass(status),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
			defer cancel()

			_ = recorder.RecordCount(ctx, pkgaws.MetricHTTPRequests, dims)
			_ = recorder.RecordLatency(ctx, pkgaws.MetricHTTPLatency, elapsed, dims)
			switch {
			case status >= 500:
				_ = recorder.RecordCount(ctx, pkgaws.MetricHTTP5xx, dims)
			case status >= 400:
				_ = recorder.RecordCount(ctx, pkgaws.MetricHTTP4xx, dims)
			}
		}()
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", code/100)
}
