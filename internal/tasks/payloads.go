package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants shared by the queue producer and the worker.
const (
	TypePasswordResetEmail = "email:password_reset"
)

// PasswordResetEmailPayload carries the minimum information the worker
// needs to send the reset email. The token is only ever stored in Redis and
// in this payload.
type PasswordResetEmailPayload struct {
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	ResetToken    string `json:"reset_token"`
	CorrelationID string `json:"correlation_id"`
}

// NewPasswordResetEmailTask builds a password-reset email task.
func NewPasswordResetEmailTask(email, firstName, resetToken, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PasswordResetEmailPayload{
		Email:         email,
		FirstName:     firstName,
		ResetToken:    resetToken,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePasswordResetEmail, payload), nil
}
