package models

import "time"

// Tier represents a subscription tier.
type Tier string

// Tier constants define the known subscription tiers.
const (
	// TierFree is the default tier for new senders.
	TierFree Tier = "free"
	// TierPremium unlocks the advanced model and a larger quota.
	TierPremium Tier = "premium"
	// TierEnterprise has no admission quota.
	TierEnterprise Tier = "enterprise"
)

// ParseTier normalizes a raw tier string, defaulting to TierFree.
func ParseTier(raw string) Tier {
	switch Tier(raw) {
	case TierPremium:
		return TierPremium
	case TierEnterprise:
		return TierEnterprise
	default:
		return TierFree
	}
}

// User represents an end-user messaging account keyed by sender identifier.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PhoneNumber string `gorm:"type:text;not null;uniqueIndex"`        // Canonical sender identifier.
	Tier        Tier   `gorm:"type:varchar(32);not null;default:'free'"` // Subscription tier.

	// RequestsInWindow counts admitted requests in the current quota window.
	// It is never negative and resets to 0 when the window rolls over.
	RequestsInWindow int       `gorm:"not null;default:0"` // Admitted requests in the current window.
	WindowResetAt    time.Time `gorm:"index"`              // When the current quota window ends.

	TotalRequests int64     `gorm:"not null;default:0"` // Lifetime admitted request count.
	LastActiveAt  time.Time ``                          // Last inbound message timestamp.

	Tasks []Task `gorm:"foreignKey:UserID"` // Related tasks.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
