package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"study-room/internal/repository"
	"study-room/internal/tasks"
)

// MembershipSweepHandler removes memberships left behind by clients that
// never sent a clean leave, keeping rooms from filling up with ghosts.
type MembershipSweepHandler struct {
	membershipRepo repository.MembershipRepository
}

// NewMembershipSweepHandler creates a MembershipSweepHandler.
func NewMembershipSweepHandler(membershipRepo repository.MembershipRepository) *MembershipSweepHandler {
	return &MembershipSweepHandler{membershipRepo: membershipRepo}
}

// ProcessTask deletes memberships older than the payload TTL.
func (h *MembershipSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.MembershipSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.WithError(err).Error("Membership sweep: failed to unmarshal task payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.TTLMinutes <= 0 {
		return fmt.Errorf("invalid ttl %d: %w", payload.TTLMinutes, asynq.SkipRetry)
	}

	cutoff := time.Now().Add(-time.Duration(payload.TTLMinutes) * time.Minute)
	deleted, err := h.membershipRepo.DeleteStale(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("Membership sweep: delete failed")
		return err
	}

	if deleted > 0 {
		logrus.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff,
		}).Info("Membership sweep: removed stale memberships")
	}
	return nil
}
