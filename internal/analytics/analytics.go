// Package analytics aggregates per-user usage out of the task history.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promptline/smsrouter/internal/models"
	"github.com/promptline/smsrouter/internal/tier"
	"gorm.io/gorm"
)

// ErrUserNotFound means no account exists for the given sender.
var ErrUserNotFound = errors.New("user not found")

// CategoryUsage is the per-category slice of a user's history.
type CategoryUsage struct {
	Category      models.Category `json:"category"`
	Count         int64           `json:"count"`
	AvgComplexity float64         `json:"avg_complexity"`
}

// RecentTask is a trimmed task view for the analytics report.
type RecentTask struct {
	TaskID    string          `json:"task_id"`
	Category  models.Category `json:"category"`
	State     string          `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// Report is the full usage summary for one user.
type Report struct {
	PhoneNumber      string          `json:"phone_number"`
	Tier             models.Tier     `json:"tier"`
	TotalRequests    int64           `json:"total_requests"`
	RequestsInWindow int             `json:"requests_in_window"`
	WindowQuota      int             `json:"window_quota"`
	CompletedTasks   int64           `json:"completed_tasks"`
	FailedTasks      int64           `json:"failed_tasks"`
	RejectedTasks    int64           `json:"rejected_tasks"`
	Categories       []CategoryUsage `json:"categories"`
	Recent           []RecentTask    `json:"recent"`
	Recommendations  []string        `json:"recommendations"`
}

// Service reads aggregated usage from the task store.
type Service struct {
	db *gorm.DB
}

// NewService constructs an analytics Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ReportFor builds the usage report for one sender.
func (s *Service) ReportFor(ctx context.Context, phoneNumber string) (*Report, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("analytics service not initialized")
	}

	var user models.User
	if errFind := s.db.WithContext(ctx).Where("phone_number = ?", strings.TrimSpace(phoneNumber)).Take(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", errFind)
	}

	policy := tier.PolicyFor(user.Tier)
	report := &Report{
		PhoneNumber:      user.PhoneNumber,
		Tier:             user.Tier,
		TotalRequests:    user.TotalRequests,
		RequestsInWindow: user.RequestsInWindow,
		WindowQuota:      policy.Quota,
	}

	type stateCount struct {
		State models.TaskState
		N     int64
	}
	var states []stateCount
	if errCount := s.db.WithContext(ctx).Model(&models.Task{}).
		Select("state, count(*) as n").
		Where("user_id = ?", user.ID).
		Group("state").
		Scan(&states).Error; errCount != nil {
		return nil, fmt.Errorf("count states: %w", errCount)
	}
	for _, row := range states {
		switch row.State {
		case models.TaskStateCompleted:
			report.CompletedTasks = row.N
		case models.TaskStateFailed:
			report.FailedTasks = row.N
		case models.TaskStateRejected:
			report.RejectedTasks = row.N
		}
	}

	if errGroup := s.db.WithContext(ctx).Model(&models.Task{}).
		Select("category, count(*) as count, avg(complexity_score) as avg_complexity").
		Where("user_id = ? AND state <> ?", user.ID, models.TaskStateRejected).
		Group("category").
		Order("count DESC").
		Scan(&report.Categories).Error; errGroup != nil {
		return nil, fmt.Errorf("group categories: %w", errGroup)
	}

	var recent []models.Task
	if errRecent := s.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Limit(5).
		Find(&recent).Error; errRecent != nil {
		return nil, fmt.Errorf("load recent tasks: %w", errRecent)
	}
	for _, task := range recent {
		report.Recent = append(report.Recent, RecentTask{
			TaskID:    task.PublicID,
			Category:  task.Category,
			State:     task.State.String(),
			CreatedAt: task.CreatedAt,
		})
	}

	report.Recommendations = recommendationsFor(&user, policy, report)
	return report, nil
}

// recommendationsFor derives upgrade and usage hints from the report.
func recommendationsFor(user *models.User, policy tier.Policy, report *Report) []string {
	var out []string
	if user.Tier == models.TierFree && policy.Quota > 0 && report.RequestsInWindow >= policy.Quota {
		out = append(out, "You hit the free hourly limit. Premium raises it to 50 requests per hour.")
	}
	if report.RejectedTasks > 0 && user.Tier != models.TierEnterprise {
		out = append(out, fmt.Sprintf("%d of your requests were turned away by quota. A higher tier removes the wait.", report.RejectedTasks))
	}
	for _, usage := range report.Categories {
		if usage.Category == models.CategoryDebug && usage.Count >= 3 && user.Tier == models.TierFree {
			out = append(out, "You debug a lot. Premium routes debugging to a stronger model.")
			break
		}
	}
	return out
}
