// Package routing composes the classifier, tier policy, rate limiter,
// summarizer and continuation store into the message routing core. The
// orchestrator never calls the generative backend itself; it hands out a
// decision and accepts the result later.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promptline/smsrouter/internal/backend"
	"github.com/promptline/smsrouter/internal/classify"
	"github.com/promptline/smsrouter/internal/continuation"
	"github.com/promptline/smsrouter/internal/models"
	"github.com/promptline/smsrouter/internal/ratelimit"
	"github.com/promptline/smsrouter/internal/summarize"
	"github.com/promptline/smsrouter/internal/tier"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultChannelLimit is the outbound channel length bound in characters.
const DefaultChannelLimit = 160

// Decision describes how an admitted message should be executed against the
// generative backend.
type Decision struct {
	TaskID          string
	Category        models.Category
	Priority        models.Priority
	ComplexityScore float64
	Model           string
	TokenBudget     int
	Temperature     float64
	SystemPrompt    string
}

// Outcome is the result of routing one inbound message.
type Outcome struct {
	Admitted bool
	// Decision is populated only when Admitted.
	Decision Decision
	// RetryAfter is populated only when denied.
	RetryAfter time.Duration
	TaskID     string
	UserID     uint64
}

// Orchestrator routes inbound messages and finalizes their tasks.
type Orchestrator struct {
	db            *gorm.DB
	classifier    *classify.Classifier
	limiter       *ratelimit.Manager
	continuations continuation.Store
	channelLimit  int
	nowFn         func() time.Time
}

// NewOrchestrator constructs an Orchestrator with default dependencies when
// nil. channelLimit <= 0 selects DefaultChannelLimit.
func NewOrchestrator(db *gorm.DB, limiter *ratelimit.Manager, continuations continuation.Store, channelLimit int, nowFn func() time.Time) *Orchestrator {
	if limiter == nil {
		limiter = ratelimit.NewManager(nil, nowFn, nil)
	}
	if continuations == nil {
		continuations = continuation.NewMemoryStore(0, 0, nowFn)
	}
	if channelLimit <= 0 {
		channelLimit = DefaultChannelLimit
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Orchestrator{
		db:            db,
		classifier:    classify.NewClassifier(),
		limiter:       limiter,
		continuations: continuations,
		channelLimit:  channelLimit,
		nowFn:         nowFn,
	}
}

// RouteInboundMessage admits, classifies and routes one inbound message.
// Denied messages still produce a Rejected task with classification
// attached for logging; no backend call is implied for them.
func (o *Orchestrator) RouteInboundMessage(ctx context.Context, phoneNumber, text string) (Outcome, error) {
	if o == nil || o.db == nil {
		return Outcome{}, errors.New("orchestrator not initialized")
	}
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return Outcome{}, ErrEmptySender
	}

	user, errUser := o.ensureUser(ctx, phoneNumber)
	if errUser != nil {
		return Outcome{}, errUser
	}
	if user.RequestsInWindow < 0 {
		// Invariant violation, fail loudly rather than repairing.
		return Outcome{}, fmt.Errorf("negative quota counter for user %d", user.ID)
	}

	policy := tier.PolicyFor(user.Tier)
	admission, errAllow := o.limiter.Allow(ctx, ratelimit.KeyForUser(user.ID), policy.Quota, policy.Window)
	if errAllow != nil {
		return Outcome{}, fmt.Errorf("admission check: %w", errAllow)
	}

	cls := o.classifier.Classify(text)
	scores := marshalScores(cls.CategoryScores)
	now := o.nowFn()

	if !admission.Allowed {
		task := models.Task{
			PublicID:        continuation.NewID(),
			UserID:          user.ID,
			RawText:         text,
			Category:        cls.Category,
			ComplexityScore: cls.ComplexityScore,
			Priority:        cls.Priority,
			CategoryScores:  scores,
			State:           models.TaskStateRejected,
			RetryAfterSecs:  int(admission.RetryAfter / time.Second),
			CreatedAt:       now,
		}
		if errTx := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if errCreate := tx.Create(&task).Error; errCreate != nil {
				return errCreate
			}
			userID := user.ID
			logRow := models.ErrorLog{
				UserID:      &userID,
				Kind:        KindQuotaExceeded,
				Message:     fmt.Sprintf("quota exhausted for tier %s, retry in %s", user.Tier, admission.RetryAfter),
				RequestText: text,
				CreatedAt:   now,
			}
			if errLog := tx.Create(&logRow).Error; errLog != nil {
				return errLog
			}
			return o.syncUserWindow(tx, user, admission, false)
		}); errTx != nil {
			return Outcome{}, fmt.Errorf("record rejection: %w", errTx)
		}
		return Outcome{
			Admitted:   false,
			RetryAfter: admission.RetryAfter,
			TaskID:     task.PublicID,
			UserID:     user.ID,
		}, nil
	}

	priority := cls.Priority
	if policy.PriorityFloor > priority {
		priority = policy.PriorityFloor
	}

	task := models.Task{
		PublicID:        continuation.NewID(),
		UserID:          user.ID,
		RawText:         text,
		Category:        cls.Category,
		ComplexityScore: cls.ComplexityScore,
		Priority:        priority,
		CategoryScores:  scores,
		ModelSelected:   tier.ModelFor(user.Tier, cls.Category, cls.ComplexityScore),
		TokenBudget:     tier.TokenBudgetFor(user.Tier, cls.Category),
		Temperature:     temperatureFor(cls.Category),
		State:           models.TaskStateAdmitted,
		CreatedAt:       now,
	}
	if errMove := transition(&task, models.TaskStateProcessing); errMove != nil {
		return Outcome{}, errMove
	}

	if errTx := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&task).Error; errCreate != nil {
			return errCreate
		}
		return o.syncUserWindow(tx, user, admission, true)
	}); errTx != nil {
		return Outcome{}, fmt.Errorf("record admission: %w", errTx)
	}

	return Outcome{
		Admitted: true,
		Decision: Decision{
			TaskID:          task.PublicID,
			Category:        task.Category,
			Priority:        task.Priority,
			ComplexityScore: task.ComplexityScore,
			Model:           task.ModelSelected,
			TokenBudget:     task.TokenBudget,
			Temperature:     task.Temperature,
			SystemPrompt:    SystemPromptFor(task.Category),
		},
		TaskID: task.PublicID,
		UserID: user.ID,
	}, nil
}

// FinalizeTask applies the backend result (or error) to a processing task.
// On success the answer is compressed against the channel limit and, when
// truncated, parked behind a continuation handle. No retry happens here:
// retrying inside the core would double-count quota consumption.
func (o *Orchestrator) FinalizeTask(ctx context.Context, taskID string, result *backend.Result, backendErr error) (*models.Task, error) {
	if o == nil || o.db == nil {
		return nil, errors.New("orchestrator not initialized")
	}

	var task models.Task
	if errFind := o.db.WithContext(ctx).Where("public_id = ?", strings.TrimSpace(taskID)).Take(&task).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("load task: %w", errFind)
	}

	now := o.nowFn()
	elapsed := now.Sub(task.CreatedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	var metrics []models.SystemMetric

	switch {
	case backendErr != nil:
		if errMove := transition(&task, models.TaskStateFailed); errMove != nil {
			return nil, errMove
		}
		kind := backend.FailureTransient
		var classified *backend.Error
		if errors.As(backendErr, &classified) {
			kind = classified.Kind
		}
		task.FailureKind = string(kind)
		task.FailureMessage = backendErr.Error()
		metrics = append(metrics, models.SystemMetric{Name: models.MetricSuccessRate, Value: 0, CreatedAt: now})

	case result != nil:
		if errMove := transition(&task, models.TaskStateCompleted); errMove != nil {
			return nil, errMove
		}
		summary := summarize.Compress(result.Text, o.channelLimit)
		task.OutboundText = summary.ShortText
		task.Truncated = summary.Truncated
		task.TokensUsed = result.TokensUsed
		if summary.Truncated {
			contID := continuation.NewID()
			if errSave := o.continuations.Save(ctx, contID, continuation.Entry{
				TaskID:   task.ID,
				FullText: result.Text,
			}); errSave != nil {
				log.WithError(errSave).Warn("routing: continuation save failed, answer not expandable")
			} else {
				task.ContinuationID = contID
			}
		}
		metrics = append(metrics, models.SystemMetric{Name: models.MetricSuccessRate, Value: 1, CreatedAt: now})

	default:
		return nil, errors.New("finalize requires a result or an error")
	}

	task.CompletedAt = &now
	task.ProcessingSeconds = elapsed
	metrics = append(metrics, models.SystemMetric{Name: models.MetricProcessingTime, Value: elapsed, CreatedAt: now})

	if errTx := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errSave := tx.Save(&task).Error; errSave != nil {
			return errSave
		}
		if task.State == models.TaskStateFailed {
			userID := task.UserID
			logRow := models.ErrorLog{
				UserID:      &userID,
				Kind:        task.FailureKind,
				Message:     task.FailureMessage,
				RequestText: task.RawText,
				CreatedAt:   now,
			}
			if errLog := tx.Create(&logRow).Error; errLog != nil {
				return errLog
			}
		}
		if len(metrics) > 0 {
			if errMetrics := tx.Create(&metrics).Error; errMetrics != nil {
				return errMetrics
			}
		}
		return nil
	}); errTx != nil {
		return nil, fmt.Errorf("finalize task: %w", errTx)
	}
	return &task, nil
}

// ResolveContinuation returns the full answer text behind a continuation
// handle.
func (o *Orchestrator) ResolveContinuation(ctx context.Context, continuationID string) (string, error) {
	if o == nil {
		return "", errors.New("orchestrator not initialized")
	}
	entry, ok, errResolve := o.continuations.Resolve(ctx, strings.TrimSpace(continuationID))
	if errResolve != nil {
		return "", fmt.Errorf("resolve continuation: %w", errResolve)
	}
	if !ok {
		return "", ErrContinuationNotFound
	}
	return entry.FullText, nil
}

// ResolveLatestContinuation expands the sender's most recent truncated
// answer. This backs the bare "MORE" reply, which carries no id.
func (o *Orchestrator) ResolveLatestContinuation(ctx context.Context, phoneNumber string) (string, error) {
	if o == nil || o.db == nil {
		return "", errors.New("orchestrator not initialized")
	}

	var user models.User
	if errFind := o.db.WithContext(ctx).Where("phone_number = ?", strings.TrimSpace(phoneNumber)).Take(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return "", ErrContinuationNotFound
		}
		return "", fmt.Errorf("load user: %w", errFind)
	}

	var task models.Task
	if errFind := o.db.WithContext(ctx).
		Where("user_id = ? AND truncated = ? AND continuation_id <> ''", user.ID, true).
		Order("created_at DESC, id DESC").
		Take(&task).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return "", ErrContinuationNotFound
		}
		return "", fmt.Errorf("load task: %w", errFind)
	}

	return o.ResolveContinuation(ctx, task.ContinuationID)
}

// ensureUser loads or creates the account for a sender. New senders start
// on the free tier.
func (o *Orchestrator) ensureUser(ctx context.Context, phoneNumber string) (*models.User, error) {
	var user models.User
	errFind := o.db.WithContext(ctx).Where("phone_number = ?", phoneNumber).Take(&user).Error
	if errFind == nil {
		return &user, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load user: %w", errFind)
	}

	user = models.User{
		PhoneNumber: phoneNumber,
		Tier:        models.TierFree,
		CreatedAt:   o.nowFn(),
	}
	if errCreate := o.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
		return nil, fmt.Errorf("create user: %w", errCreate)
	}
	return &user, nil
}

// syncUserWindow mirrors the limiter's window state onto the user record.
// Lifetime counters only move on admitted requests.
func (o *Orchestrator) syncUserWindow(tx *gorm.DB, user *models.User, admission ratelimit.Result, admitted bool) error {
	updates := map[string]any{
		"requests_in_window": admission.Count,
		"window_reset_at":    admission.Reset,
		"last_active_at":     o.nowFn(),
	}
	if admitted {
		updates["total_requests"] = gorm.Expr("total_requests + 1")
	}
	if errUpdate := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; errUpdate != nil {
		return fmt.Errorf("sync user window: %w", errUpdate)
	}
	return nil
}

// marshalScores serializes the classifier's score breakdown for the task
// record.
func marshalScores(scores map[models.Category]float64) datatypes.JSON {
	if len(scores) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	payload, errMarshal := json.Marshal(scores)
	if errMarshal != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(payload)
}
