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

// OTPHandler processes verification-code delivery and cleanup tasks.
type OTPHandler struct {
	otpRepo repository.OTPRepository
	mailer  Mailer
}

// NewOTPHandler creates an OTPHandler.
func NewOTPHandler(otpRepo repository.OTPRepository, mailer Mailer) *OTPHandler {
	return &OTPHandler{otpRepo: otpRepo, mailer: mailer}
}

// ProcessDelivery mails a freshly issued code to its user.
func (h *OTPHandler) ProcessDelivery(ctx context.Context, t *asynq.Task) error {
	var payload tasks.OTPEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.WithError(err).Error("OTP delivery: failed to unmarshal task payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	logCtx := logrus.WithField("email", payload.Email)
	if err := h.mailer.SendOTP(payload.Email, payload.Code); err != nil {
		logCtx.WithError(err).Error("OTP delivery: send failed")
		return err
	}

	logCtx.Info("OTP delivery: verification code sent")
	return nil
}

// ProcessCleanup purges codes that expired or were already consumed.
func (h *OTPHandler) ProcessCleanup(ctx context.Context, t *asynq.Task) error {
	deleted, err := h.otpRepo.PurgeExpired(ctx, time.Now())
	if err != nil {
		logrus.WithError(err).Error("OTP cleanup: purge failed")
		return err
	}

	if deleted > 0 {
		logrus.WithField("deleted", deleted).Info("OTP cleanup: purged expired codes")
	}
	return nil
}
