package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/promptline/smsrouter/internal/backend"
	"github.com/promptline/smsrouter/internal/routing"
	log "github.com/sirupsen/logrus"
)

// twimlResponse is the XML reply envelope understood by SMS gateways.
type twimlResponse struct {
	XMLName struct{} `xml:"Response"`
	Message string   `xml:"Message"`
}

// moreKeyword is the bare reply that expands the last truncated answer.
const moreKeyword = "MORE"

// SMSHandler serves the inbound SMS webhook.
type SMSHandler struct {
	orchestrator *routing.Orchestrator
	generator    backend.Generator
}

// NewSMSHandler constructs an SMSHandler.
func NewSMSHandler(orchestrator *routing.Orchestrator, generator backend.Generator) *SMSHandler {
	return &SMSHandler{orchestrator: orchestrator, generator: generator}
}

// Webhook handles one inbound message: admission, classification, backend
// call and reply, all within the request.
func (h *SMSHandler) Webhook(c *gin.Context) {
	from := strings.TrimSpace(c.PostForm("From"))
	body := c.PostForm("Body")

	if from == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sender"})
		return
	}

	if strings.EqualFold(strings.TrimSpace(body), moreKeyword) {
		h.expandLatest(c, from)
		return
	}

	out, errRoute := h.orchestrator.RouteInboundMessage(c.Request.Context(), from, body)
	if errRoute != nil {
		log.WithError(errRoute).Error("sms: routing failed")
		reply(c, "Something went wrong on our side. Please try again.")
		return
	}

	if !out.Admitted {
		reply(c, fmt.Sprintf("You've hit your hourly limit. Try again in %s.", humanDuration(out.RetryAfter)))
		return
	}

	result, errGen := h.generator.Generate(c.Request.Context(), backend.Request{
		Prompt:       body,
		SystemPrompt: out.Decision.SystemPrompt,
		Model:        out.Decision.Model,
		MaxTokens:    out.Decision.TokenBudget,
		Temperature:  out.Decision.Temperature,
	})

	var backendResult *backend.Result
	if errGen == nil {
		backendResult = &result
	}
	task, errFinalize := h.orchestrator.FinalizeTask(c.Request.Context(), out.TaskID, backendResult, errGen)
	if errFinalize != nil {
		log.WithError(errFinalize).Error("sms: finalize failed")
		reply(c, "Something went wrong on our side. Please try again.")
		return
	}

	if errGen != nil {
		reply(c, failureReply(errGen))
		return
	}
	reply(c, task.OutboundText)
}

// expandLatest answers a bare MORE reply with the parked full text.
func (h *SMSHandler) expandLatest(c *gin.Context, from string) {
	full, errResolve := h.orchestrator.ResolveLatestContinuation(c.Request.Context(), from)
	if errResolve != nil {
		if errors.Is(errResolve, routing.ErrContinuationNotFound) {
			reply(c, "Nothing to expand. Send a question first.")
			return
		}
		log.WithError(errResolve).Error("sms: continuation lookup failed")
		reply(c, "Something went wrong on our side. Please try again.")
		return
	}
	reply(c, full)
}

// reply writes the TwiML message envelope.
func reply(c *gin.Context, message string) {
	c.XML(http.StatusOK, twimlResponse{Message: message})
}

// failureReply maps a backend failure to a user-facing message.
func failureReply(errGen error) string {
	var classified *backend.Error
	if errors.As(errGen, &classified) {
		switch classified.Kind {
		case backend.FailureBudgetExceeded:
			return "That question is too long for your plan. Try splitting it up."
		case backend.FailurePermanent:
			return "We couldn't process that request. Try rephrasing it."
		}
	}
	return "The assistant is briefly unavailable. Please try again in a minute."
}

// humanDuration rounds a wait to the nearest minute for reply text.
func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return "under a minute"
	}
	return d.Round(time.Minute).String()
}
