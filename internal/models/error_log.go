package models

import "time"

// ErrorLog records a routing or backend failure for later inspection.
type ErrorLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID *uint64 `gorm:"index"`             // Related user ID, nil for unattributed errors.
	User   *User   `gorm:"foreignKey:UserID"` // Related user record.

	Kind        string `gorm:"type:varchar(64);not null;index"` // Error kind identifier.
	Message     string `gorm:"type:text"`                       // Underlying error message.
	RequestText string `gorm:"type:text"`                       // Inbound text that triggered the error.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}
