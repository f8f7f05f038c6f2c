package models

import (
	"time"

	"gorm.io/datatypes"
)

// Category represents the classified kind of work a message asks for.
type Category string

// Category constants define the routing categories.
const (
	// CategoryCoding covers code-writing requests.
	CategoryCoding Category = "coding"
	// CategoryDebug covers failure reports and fix requests.
	CategoryDebug Category = "debug"
	// CategoryDesign covers UI/UX and layout requests.
	CategoryDesign Category = "design"
	// CategoryDocumentation covers explanation and how-to requests.
	CategoryDocumentation Category = "documentation"
	// CategoryAnalysis covers review and evaluation requests.
	CategoryAnalysis Category = "analysis"
	// CategoryGeneral is the fallback when nothing else matches.
	CategoryGeneral Category = "general"
)

// Priority represents task processing priority. Higher is more urgent.
type Priority int

// Priority constants define processing priorities.
const (
	// PriorityLow is for low-value general chatter.
	PriorityLow Priority = 1
	// PriorityMedium is the common-case priority.
	PriorityMedium Priority = 2
	// PriorityHigh is for time-sensitive work.
	PriorityHigh Priority = 3
	// PriorityUrgent is for severe failure reports.
	PriorityUrgent Priority = 4
)

// String returns the lowercase priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// TaskState represents the lifecycle state of a task.
type TaskState int

// TaskState constants define task lifecycle states.
// Transitions only move forward: Admitted -> Processing -> Completed|Failed.
// Rejected is terminal and reachable only at creation time.
const (
	// TaskStateAdmitted marks a task that passed admission.
	TaskStateAdmitted TaskState = 1
	// TaskStateProcessing marks a task with a pending backend call.
	TaskStateProcessing TaskState = 2
	// TaskStateCompleted marks a task with a delivered answer.
	TaskStateCompleted TaskState = 3
	// TaskStateFailed marks a task whose backend call failed.
	TaskStateFailed TaskState = 4
	// TaskStateRejected marks a task denied at admission.
	TaskStateRejected TaskState = 5
)

// String returns the lowercase state name.
func (s TaskState) String() string {
	switch s {
	case TaskStateAdmitted:
		return "admitted"
	case TaskStateProcessing:
		return "processing"
	case TaskStateCompleted:
		return "completed"
	case TaskStateFailed:
		return "failed"
	case TaskStateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state accepts no further transitions.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed || s == TaskStateRejected
}

// Task records one inbound message and its routing outcome.
type Task struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PublicID string `gorm:"type:varchar(36);not null;uniqueIndex"` // Opaque correlation ID.

	UserID uint64 `gorm:"not null;index"`    // Related user ID.
	User   User   `gorm:"foreignKey:UserID"` // Related user record.

	RawText string `gorm:"type:text;not null"` // Original inbound message text.

	Category        Category       `gorm:"type:varchar(32);not null;index"`     // Classified category.
	ComplexityScore float64        `gorm:"type:decimal(6,5);not null;default:0"` // Complexity in [0,1].
	Priority        Priority       `gorm:"not null;default:1"`                  // Assigned priority.
	CategoryScores  datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`    // Per-category trigger score breakdown.

	ModelSelected string  `gorm:"type:varchar(64)"`                     // Backend model identifier.
	TokenBudget   int     `gorm:"not null;default:0"`                   // Max tokens for the backend call.
	Temperature   float64 `gorm:"type:decimal(3,2);not null;default:0"` // Sampling temperature hint.

	State TaskState `gorm:"not null;default:1;index"` // Current lifecycle state.

	OutboundText   string `gorm:"type:text"`                 // Channel-limited answer text.
	Truncated      bool   `gorm:"not null;default:false"`    // Whether the answer was compressed.
	ContinuationID string `gorm:"type:varchar(36);index"`    // Handle for expanding a truncated answer.
	TokensUsed     int    `gorm:"not null;default:0"`        // Tokens reported by the backend.
	RetryAfterSecs int    `gorm:"not null;default:0"`        // Seconds until retry for rejected tasks.

	FailureKind    string `gorm:"type:varchar(64)"` // Error kind for failed tasks.
	FailureMessage string `gorm:"type:text"`        // Underlying error message for failed tasks.

	ProcessingSeconds float64 `gorm:"type:decimal(10,3);not null;default:0"` // Wall time from admission to finalize.

	CreatedAt   time.Time  `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	CompletedAt *time.Time ``                                     // Finalization timestamp, nil while pending.
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}
