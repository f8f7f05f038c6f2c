package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/promptline/smsrouter/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.AutoMigrate(&models.User{}, &models.Task{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return db
}

func seedTask(t *testing.T, db *gorm.DB, userID uint64, category models.Category, state models.TaskState, complexity float64, createdAt time.Time) {
	t.Helper()
	task := models.Task{
		PublicID:        fmt.Sprintf("task-%d-%d", userID, createdAt.UnixNano()),
		UserID:          userID,
		RawText:         "seed",
		Category:        category,
		ComplexityScore: complexity,
		Priority:        models.PriorityMedium,
		State:           state,
		CreatedAt:       createdAt,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
}

func TestReportFor_UnknownUser(t *testing.T) {
	svc := NewService(newTestDB(t))
	_, err := svc.ReportFor(context.Background(), "+15550000000")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestReportFor_AggregatesHistory(t *testing.T) {
	db := newTestDB(t)
	user := models.User{
		PhoneNumber:      "+15551112222",
		Tier:             models.TierFree,
		RequestsInWindow: 4,
		TotalRequests:    9,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	seedTask(t, db, user.ID, models.CategoryCoding, models.TaskStateCompleted, 0.4, base)
	seedTask(t, db, user.ID, models.CategoryCoding, models.TaskStateCompleted, 0.6, base.Add(time.Minute))
	seedTask(t, db, user.ID, models.CategoryDebug, models.TaskStateFailed, 0.8, base.Add(2*time.Minute))
	seedTask(t, db, user.ID, models.CategoryGeneral, models.TaskStateRejected, 0.1, base.Add(3*time.Minute))

	report, err := NewService(db).ReportFor(context.Background(), "+15551112222")
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if report.Tier != models.TierFree || report.TotalRequests != 9 || report.WindowQuota != 10 {
		t.Fatalf("unexpected header fields: %+v", report)
	}
	if report.CompletedTasks != 2 || report.FailedTasks != 1 || report.RejectedTasks != 1 {
		t.Fatalf("unexpected state counts: %+v", report)
	}

	// Rejected tasks are excluded from the category breakdown.
	var coding *CategoryUsage
	for i := range report.Categories {
		if report.Categories[i].Category == models.CategoryGeneral {
			t.Fatalf("rejected-only category leaked into breakdown")
		}
		if report.Categories[i].Category == models.CategoryCoding {
			coding = &report.Categories[i]
		}
	}
	if coding == nil {
		t.Fatalf("missing coding usage row")
	}
	if coding.Count != 2 {
		t.Fatalf("expected 2 coding tasks, got %d", coding.Count)
	}
	if coding.AvgComplexity < 0.49 || coding.AvgComplexity > 0.51 {
		t.Fatalf("expected avg complexity 0.5, got %f", coding.AvgComplexity)
	}

	if len(report.Recent) != 4 {
		t.Fatalf("expected 4 recent tasks, got %d", len(report.Recent))
	}
	if report.Recent[0].Category != models.CategoryGeneral {
		t.Fatalf("expected newest task first, got %s", report.Recent[0].Category)
	}
}

func TestReportFor_RecentCappedAtFive(t *testing.T) {
	db := newTestDB(t)
	user := models.User{PhoneNumber: "+15553334444", Tier: models.TierPremium}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		seedTask(t, db, user.ID, models.CategoryGeneral, models.TaskStateCompleted, 0.2, base.Add(time.Duration(i)*time.Minute))
	}

	report, err := NewService(db).ReportFor(context.Background(), "+15553334444")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Recent) != 5 {
		t.Fatalf("expected recent list capped at 5, got %d", len(report.Recent))
	}
}

func TestRecommendations_QuotaAndDebugHints(t *testing.T) {
	db := newTestDB(t)
	user := models.User{
		PhoneNumber:      "+15555556666",
		Tier:             models.TierFree,
		RequestsInWindow: 10,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedTask(t, db, user.ID, models.CategoryDebug, models.TaskStateCompleted, 0.7, base.Add(time.Duration(i)*time.Minute))
	}
	seedTask(t, db, user.ID, models.CategoryGeneral, models.TaskStateRejected, 0.1, base.Add(time.Hour))

	report, err := NewService(db).ReportFor(context.Background(), "+15555556666")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Recommendations) != 3 {
		t.Fatalf("expected quota, rejection and debug hints, got %v", report.Recommendations)
	}
}

func TestRecommendations_EnterpriseQuiet(t *testing.T) {
	db := newTestDB(t)
	user := models.User{PhoneNumber: "+15557778888", Tier: models.TierEnterprise}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	report, err := NewService(db).ReportFor(context.Background(), "+15557778888")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Recommendations) != 0 {
		t.Fatalf("expected no recommendations, got %v", report.Recommendations)
	}
}
