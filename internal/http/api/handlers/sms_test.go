package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/promptline/smsrouter/internal/backend"
	"github.com/promptline/smsrouter/internal/models"
	"github.com/promptline/smsrouter/internal/routing"
	"gorm.io/gorm"
)

// fakeGenerator returns a canned result or error.
type fakeGenerator struct {
	result backend.Result
	err    error
}

func (g *fakeGenerator) Generate(_ context.Context, _ backend.Request) (backend.Result, error) {
	return g.result, g.err
}

func newTestRouter(t *testing.T, gen backend.Generator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.AutoMigrate(&models.User{}, &models.Task{}, &models.ErrorLog{}, &models.SystemMetric{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	orchestrator := routing.NewOrchestrator(db, nil, nil, 0, func() time.Time { return now })

	engine := gin.New()
	engine.POST("/webhook/sms", NewSMSHandler(orchestrator, gen).Webhook)
	return engine
}

func postSMS(t *testing.T, engine *gin.Engine, from, body string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("From", from)
	form.Set("Body", body)
	req := httptest.NewRequest(http.MethodPost, "/webhook/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_AnswersQuestion(t *testing.T) {
	engine := newTestRouter(t, &fakeGenerator{result: backend.Result{Text: "Use a map.", TokensUsed: 8}})

	rec := postSMS(t, engine, "+15550001111", "how do I dedupe a slice in go")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<Message>Use a map.</Message>") {
		t.Fatalf("unexpected reply body: %s", rec.Body.String())
	}
}

func TestWebhook_MissingSender(t *testing.T) {
	engine := newTestRouter(t, &fakeGenerator{})

	rec := postSMS(t, engine, "", "hello")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhook_QuotaDenied(t *testing.T) {
	engine := newTestRouter(t, &fakeGenerator{result: backend.Result{Text: "ok"}})

	for i := 0; i < 10; i++ {
		if rec := postSMS(t, engine, "+15550002222", "hi"); rec.Code != http.StatusOK {
			t.Fatalf("setup request %d: %d", i+1, rec.Code)
		}
	}
	rec := postSMS(t, engine, "+15550002222", "hi again")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with denial message, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hourly limit") {
		t.Fatalf("expected quota message, got %s", rec.Body.String())
	}
}

func TestWebhook_BackendBudgetFailure(t *testing.T) {
	engine := newTestRouter(t, &fakeGenerator{
		err: &backend.Error{Kind: backend.FailureBudgetExceeded, Message: "too long"},
	})

	rec := postSMS(t, engine, "+15550003333", "summarize this enormous design doc")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too long for your plan") {
		t.Fatalf("expected budget message, got %s", rec.Body.String())
	}
}

func TestWebhook_MoreExpandsTruncatedAnswer(t *testing.T) {
	long := strings.Repeat("A sentence that will never fit in one message. ", 40)
	engine := newTestRouter(t, &fakeGenerator{result: backend.Result{Text: long, TokensUsed: 400}})

	first := postSMS(t, engine, "+15550004444", "explain goroutine scheduling")
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	if !strings.Contains(first.Body.String(), "MORE") {
		t.Fatalf("expected truncation trailer in reply, got %s", first.Body.String())
	}

	more := postSMS(t, engine, "+15550004444", "more")
	if more.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", more.Code)
	}
	if !strings.Contains(more.Body.String(), "never fit in one message") {
		t.Fatalf("expected full text, got %s", more.Body.String())
	}
}

func TestWebhook_MoreWithoutHistory(t *testing.T) {
	engine := newTestRouter(t, &fakeGenerator{})

	rec := postSMS(t, engine, "+15550005555", "MORE")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nothing to expand") {
		t.Fatalf("expected nothing-to-expand reply, got %s", rec.Body.String())
	}
}
