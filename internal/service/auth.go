package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"study-room/internal/domain"
	"study-room/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const otpCodeLength = 6

// OTPDispatcher hands a generated code off for email delivery. The Asynq
// enqueuer in the tasks package implements it.
type OTPDispatcher interface {
	DispatchOTPEmail(ctx context.Context, email, code string) error
}

// AuthService owns sign-up, sign-in, OTP verification and profile updates.
type AuthService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	otpRepo     repository.OTPRepository
	dispatcher  OTPDispatcher
	jwtSecret   []byte
	jwtExpiry   time.Duration
	otpExpiry   time.Duration
}

// NewAuthService creates an AuthService. jwtSecretKey must be non-empty;
// jwtExpiryHours defaults to 24 when not positive.
func NewAuthService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	otpRepo repository.OTPRepository,
	dispatcher OTPDispatcher,
	jwtSecretKey string,
	jwtExpiryHours int,
	otpExpiry time.Duration,
) (*AuthService, error) {
	if userRepo == nil || profileRepo == nil || otpRepo == nil {
		panic("repositories cannot be nil for AuthService")
	}
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if jwtExpiryHours <= 0 {
		jwtExpiryHours = 24
	}
	if otpExpiry <= 0 {
		otpExpiry = 10 * time.Minute
	}
	return &AuthService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		otpRepo:     otpRepo,
		dispatcher:  dispatcher,
		jwtSecret:   []byte(jwtSecretKey),
		jwtExpiry:   time.Duration(jwtExpiryHours) * time.Hour,
		otpExpiry:   otpExpiry,
	}, nil
}

// Register creates the identity record plus its profile row.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logCtx := logrus.WithField("email", email)

	if email == "" || password == "" {
		return nil, ErrAuthenticationFailed
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, ErrInternalServer
	}

	user := &domain.User{
		Email:    email,
		Password: hashedPassword,
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Registration failed: email already exists")
			return nil, ErrRegistrationFailed
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, ErrInternalServer
	}

	// The profile row is created alongside the identity record and shares
	// its id.
	profile := &domain.Profile{ID: user.ID, FullName: fullName}
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		logCtx.WithError(err).WithField("user_id", user.ID).Error("Failed to create profile row")
		return nil, ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User registered successfully")
	user.Password = ""
	return user, nil
}

// Login validates the credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logCtx := logrus.WithField("email", email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Login attempt failed: user not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: error finding user")
		}
		return "", ErrAuthenticationFailed
	}
	if user == nil {
		logCtx.Warn("Login attempt failed: repo returned nil user without error")
		return "", ErrAuthenticationFailed
	}

	if !checkPassword(password, user.Password) {
		logCtx.Warn("Login attempt failed: invalid password")
		return "", ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate JWT token during login")
		return "", ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User logged in successfully")
	return token, nil
}

// SendOTP issues a fresh numeric code with a bounded lifetime and hands it
// to the dispatcher for email delivery. Issuing a new code supersedes any
// earlier unconsumed one for the same email.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	logCtx := logrus.WithField("email", email)
	if email == "" {
		return ErrAuthenticationFailed
	}

	code, err := generateNumericCode(otpCodeLength)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate OTP code")
		return ErrInternalServer
	}

	otp := &domain.OTPCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpExpiry),
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		logCtx.WithError(err).Error("Failed to persist OTP code")
		return ErrInternalServer
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.DispatchOTPEmail(ctx, email, code); err != nil {
			logCtx.WithError(err).Error("Failed to enqueue OTP email delivery")
			return ErrInternalServer
		}
	}

	logCtx.WithField("otp_id", otp.ID).Info("OTP code issued")
	return nil
}

// VerifyOTP accepts a code only when it matches the most recently issued one
// for the email, has not been consumed, and has not expired.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	logCtx := logrus.WithField("email", email)

	latest, err := s.otpRepo.FindLatestByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			logCtx.Warn("OTP verification failed: no code on record")
			return ErrOTPInvalid
		}
		logCtx.WithError(err).Error("Repository error during OTP lookup")
		return ErrInternalServer
	}

	if latest.Used {
		logCtx.Warn("OTP verification failed: code already consumed")
		return ErrOTPInvalid
	}
	if latest.Expired(time.Now()) {
		logCtx.Warn("OTP verification failed: code expired")
		return ErrOTPExpired
	}
	if latest.Code != code {
		logCtx.Warn("OTP verification failed: code mismatch")
		return ErrOTPInvalid
	}

	if err := s.otpRepo.MarkUsed(ctx, latest.ID); err != nil {
		logCtx.WithError(err).Error("Failed to mark OTP code used")
		return ErrInternalServer
	}

	logCtx.WithField("otp_id", latest.ID).Info("OTP verified")
	return nil
}

// GetProfile returns the profile row for a user.
func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*domain.Profile, error) {
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		logrus.WithField("user_id", userID).WithError(err).Error("Repository error fetching profile")
		return nil, ErrInternalServer
	}
	return profile, nil
}

// ProfileUpdate carries the partial fields of a profile form; nil means
// leave the field unchanged.
type ProfileUpdate struct {
	FullName  *string
	AvatarURL *string
	Bio       *string
}

// UpdateProfile applies the non-nil fields of the update to the user's
// profile row.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*domain.Profile, error) {
	logCtx := logrus.WithField("user_id", userID)

	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		logCtx.WithError(err).Error("Repository error fetching profile for update")
		return nil, ErrInternalServer
	}

	if update.FullName != nil {
		profile.FullName = *update.FullName
	}
	if update.AvatarURL != nil {
		profile.AvatarURL = *update.AvatarURL
	}
	if update.Bio != nil {
		profile.Bio = *update.Bio
	}

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		logCtx.WithError(err).Error("Failed to save profile update")
		return nil, ErrInternalServer
	}

	logCtx.Info("Profile updated")
	return profile, nil
}

// --- private helpers ---

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (s *AuthService) generateJWT(userID uint) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// generateNumericCode draws each digit from crypto/rand.
func generateNumericCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
