// Package worker consumes the background task queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"cvhub/internal/tasks"
)

// ResetEmailHandler consumes password-reset email tasks.
type ResetEmailHandler struct {
	mailer          Mailer
	frontendBaseURL string
	logger          *slog.Logger
}

// NewResetEmailHandler creates the task handler.
func NewResetEmailHandler(mailer Mailer, frontendBaseURL string, logger *slog.Logger) *ResetEmailHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetEmailHandler{
		mailer:          mailer,
		frontendBaseURL: strings.TrimRight(strings.TrimSpace(frontendBaseURL), "/"),
		logger:          logger,
	}
}

// ProcessTask implements asynq.Handler.
func (h *ResetEmailHandler) ProcessTask(_ context.Context, t *asynq.Task) error {
	var payload tasks.PasswordResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("email", payload.Email),
	)

	link := fmt.Sprintf("%s/reset-password/%s", h.frontendBaseURL, payload.ResetToken)

	greeting := "Hello"
	if payload.FirstName != "" {
		greeting = "Hello " + payload.FirstName
	}
	body := fmt.Sprintf(
		"%s,\n\nA password reset was requested for your account. Open the link below to choose a new password:\n\n%s\n\nIf you did not request this, you can safely ignore this email.\n",
		greeting, link,
	)

	if err := h.mailer.Send(payload.Email, "Reset your password", body); err != nil {
		log.Error("send reset email failed", slog.Any("error", err))
		return err
	}

	log.Info("reset email sent")
	return nil
}
