package models

import "time"

// Metric name constants written by the routing core.
const (
	// MetricProcessingTime records finalize wall time in seconds.
	MetricProcessingTime = "processing_time"
	// MetricSuccessRate records 1 for completed tasks, 0 for failed ones.
	MetricSuccessRate = "success_rate"
)

// SystemMetric is an append-only scalar measurement row.
type SystemMetric struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name  string  `gorm:"type:varchar(64);not null;index"`      // Metric name.
	Value float64 `gorm:"type:decimal(20,6);not null;default:0"` // Metric value.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}
