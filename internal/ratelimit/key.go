package ratelimit

import "fmt"

// KeyForUser builds the limiter key for a user's admission counter.
func KeyForUser(userID uint64) string {
	if userID == 0 {
		return ""
	}
	return fmt.Sprintf("u:%d", userID)
}
