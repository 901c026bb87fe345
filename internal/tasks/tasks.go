package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names routed through the asynq queues.
const (
	// TypeOTPEmail delivers a verification code by email.
	TypeOTPEmail = "otp:deliver"

	// TypeOTPCleanup purges expired verification codes. Scheduled
	// periodically, never enqueued directly.
	TypeOTPCleanup = "otp:cleanup"

	// TypeMembershipSweep removes memberships whose client vanished
	// without a clean leave.
	TypeMembershipSweep = "membership:sweep"
)

// OTPEmailPayload carries one code delivery.
type OTPEmailPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// NewOTPEmailTask builds the delivery task for a freshly issued code.
func NewOTPEmailTask(email, code string) (*asynq.Task, error) {
	payload, err := json.Marshal(OTPEmailPayload{Email: email, Code: code})
	if err != nil {
		return nil, fmt.Errorf("tasks: marshal otp email payload: %w", err)
	}
	// Codes expire quickly; an email delivered late is worthless.
	return asynq.NewTask(TypeOTPEmail, payload,
		asynq.Queue("critical"),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewOTPCleanupTask builds the periodic expired-code purge task.
func NewOTPCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeOTPCleanup, nil, asynq.Queue("low"))
}

// MembershipSweepPayload bounds the sweep to memberships older than TTL.
type MembershipSweepPayload struct {
	TTLMinutes int `json:"ttl_minutes"`
}

// NewMembershipSweepTask builds the periodic stale-membership sweep task.
func NewMembershipSweepTask(ttl time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(MembershipSweepPayload{TTLMinutes: int(ttl.Minutes())})
	if err != nil {
		return nil, fmt.Errorf("tasks: marshal membership sweep payload: %w", err)
	}
	return asynq.NewTask(TypeMembershipSweep, payload, asynq.Queue("low")), nil
}

// Enqueuer submits tasks to the queue. It satisfies service.OTPDispatcher
// so code delivery rides the worker instead of blocking the request.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer wraps an asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	if client == nil {
		panic("asynq client cannot be nil for Enqueuer")
	}
	return &Enqueuer{client: client}
}

// DispatchOTPEmail queues the email delivery for a verification code.
func (e *Enqueuer) DispatchOTPEmail(ctx context.Context, email, code string) error {
	task, err := NewOTPEmailTask(email, code)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("tasks: enqueue otp email: %w", err)
	}
	return nil
}
