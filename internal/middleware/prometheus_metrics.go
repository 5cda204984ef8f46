package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricsMiddleware collects HTTP metrics for Prometheus
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.Request.URL.Path
		m.HTTPActiveConnections.WithLabelValues(method, path).Inc()
		defer m.HTTPActiveConnections.WithLabelValues(method, path).Dec()

		contentLength := c.Request.ContentLength
		if contentLength > 0 {
			m.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(contentLength))
		}

		writer := &metricsResponseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime).Seconds()
		status := c.Writer.Status()
		// Numeric status string so Grafana queries like status=~"5.." match
		statusStr := strconv.Itoa(status)

		m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		responseSize := writer.body.Len()
		if responseSize > 0 {
			m.HTTPResponseSize.WithLabelValues(method, path, statusStr).Observe(float64(responseSize))
		}

		logger.Log.Debug("HTTP request recorded",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Float64("duration_sec", duration),
			zap.Int("response_size", responseSize),
		)
	}
}

// Cache recorders
func RecordCacheHit(cacheName string) {
	metrics.Get().CacheHitsTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheMiss(cacheName string) {
	metrics.Get().CacheMissesTotal.WithLabelValues(cacheName).Inc()
}

// RecordRateLimitExceeded records a rate limit violation
func RecordRateLimitExceeded(endpoint, method string) {
	metrics.Get().RateLimitExceededTotal.WithLabelValues(endpoint, method).Inc()
}

// Database recorders
func RecordDatabaseQuery(queryType, table string, duration time.Duration) {
	metrics.Get().DatabaseQueryDuration.WithLabelValues(queryType, table).Observe(duration.Seconds())
}

func SetDatabaseConnections(database string, count int) {
	metrics.Get().DatabaseConnectionsOpen.WithLabelValues(database).Set(float64(count))
}

// RecordFeedGeneration records feed assembly latency
func RecordFeedGeneration(feedType string, duration time.Duration) {
	metrics.Get().FeedGenerationTime.WithLabelValues(feedType).Observe(duration.Seconds())
}

// Realtime recorders
func SetWebSocketConnections(count int64) {
	metrics.Get().WebSocketConnections.WithLabelValues().Set(float64(count))
}

func RecordRealtimePush(event string) {
	metrics.Get().RealtimePushesTotal.WithLabelValues(event).Inc()
}

func RecordNotificationCreated(notifType string) {
	metrics.Get().NotificationsCreated.WithLabelValues(notifType).Inc()
}

func RecordMessageSent(transport string) {
	metrics.Get().MessagesSentTotal.WithLabelValues(transport).Inc()
}

// RecordError records an error occurrence
func RecordError(errorType, endpoint string) {
	metrics.Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// metricsResponseWriter intercepts response writes to capture size and status
type metricsResponseWriter struct {
	gin.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (w *metricsResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *metricsResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
