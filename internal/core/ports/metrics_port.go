package ports

import (
	"time"

	"github.com/gin-gonic/gin"
)

type MetricsPort interface {
	RecordMetrics(c *gin.Context, start time.Time)
	RecordFlow(flow, outcome string, duration time.Duration)
	RecordCompensation(flow, step string, ok bool)
	RecordCounterDrift()
	RecordRepairs(kind string, n int)
	SetBreakerState(name string, state string)
}
