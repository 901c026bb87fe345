package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-room/internal/domain"
	"study-room/internal/repository"
	"study-room/internal/repository/mocks"
	"study-room/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T, userRepo *mocks.UserRepository, profileRepo *mocks.ProfileRepository, otpRepo *mocks.OTPRepository, dispatcher *mocks.OTPDispatcher) *service.AuthService {
	t.Helper()
	var d service.OTPDispatcher
	if dispatcher != nil {
		d = dispatcher
	}
	svc, err := service.NewAuthService(userRepo, profileRepo, otpRepo, d, "very-secret-key", 1, 10*time.Minute)
	require.NoError(t, err)
	return svc
}

func TestAuthService_Register_Success(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	email := "newbie@example.com"
	password := "StrongPass123"

	// The matcher is re-evaluated during AssertExpectations, after Register
	// has cleared the password on the same pointer, so the hash is checked
	// in Run where the argument still holds it.
	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			userArg := args.Get(1).(*domain.User)
			assert.Equal(t, email, userArg.Email)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(userArg.Password), []byte(password)))
			userArg.ID = 5
			userArg.CreatedAt = time.Now().Add(-time.Second)
			userArg.UpdatedAt = time.Now().Add(-time.Second)
		}).
		Return(nil).
		Once()

	mockProfileRepo.On("Save", ctx, mock.MatchedBy(func(p *domain.Profile) bool {
		return p.ID == uint(5) && p.FullName == "New Bie"
	})).Return(nil).Once()

	registeredUser, err := authService.Register(ctx, email, password, "New Bie")

	assert.NoError(t, err)
	require.NotNil(t, registeredUser)
	assert.Equal(t, uint(5), registeredUser.ID)
	assert.Equal(t, email, registeredUser.Email)
	assert.Empty(t, registeredUser.Password, "password hash must not leak out of Register")

	mockUserRepo.AssertExpectations(t)
	mockProfileRepo.AssertExpectations(t)
}

func TestAuthService_Register_NormalizesEmail(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()

	mockUserRepo.On("Save", ctx, mock.MatchedBy(func(user *domain.User) bool {
		return user.Email == "mixed@example.com"
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.User).ID = 9
		}).
		Return(nil).
		Once()
	mockProfileRepo.On("Save", ctx, mock.Anything).Return(nil).Once()

	_, err := authService.Register(ctx, "  MiXeD@Example.COM ", "secret99", "")

	assert.NoError(t, err)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()

	mockUserRepo.On("Save", ctx, mock.Anything).
		Return(repository.ErrDuplicateEntry).
		Once()

	registeredUser, err := authService.Register(ctx, "taken@example.com", "secret99", "")

	assert.Nil(t, registeredUser)
	assert.ErrorIs(t, err, service.ErrRegistrationFailed)
	mockUserRepo.AssertExpectations(t)
	mockProfileRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Register_EmptyCredentials(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	_, err := authService.Register(context.Background(), "", "secret99", "")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)

	_, err = authService.Register(context.Background(), "a@b.com", "", "")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)

	mockUserRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Login_Success(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	password := "StrongPass123"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	mockUserRepo.On("FindByEmail", ctx, "login@example.com").
		Return(&domain.User{ID: 7, Email: "login@example.com", Password: string(hash)}, nil).
		Once()

	token, err := authService.Login(ctx, "login@example.com", password)

	assert.NoError(t, err)
	require.NotEmpty(t, token)

	// The token must carry the user id and validate against the secret.
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("very-secret-key"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(7), claims["user_id"])

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("RightPass"), bcrypt.MinCost)
	require.NoError(t, err)

	mockUserRepo.On("FindByEmail", ctx, "login@example.com").
		Return(&domain.User{ID: 7, Email: "login@example.com", Password: string(hash)}, nil).
		Once()

	token, err := authService.Login(ctx, "login@example.com", "WrongPass")

	assert.Empty(t, token)
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	mockUserRepo.On("FindByEmail", ctx, "ghost@example.com").
		Return(nil, repository.ErrUserNotFound).
		Once()

	token, err := authService.Login(ctx, "ghost@example.com", "whatever")

	assert.Empty(t, token)
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_SendOTP_PersistsAndDispatches(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	mockDispatcher := new(mocks.OTPDispatcher)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, mockDispatcher)

	ctx := context.Background()
	var issuedCode string

	mockOTPRepo.On("Create", ctx, mock.MatchedBy(func(otp *domain.OTPCode) bool {
		assert.Equal(t, "otp@example.com", otp.Email)
		assert.Len(t, otp.Code, 6)
		assert.False(t, otp.Used)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), otp.ExpiresAt, 5*time.Second)
		issuedCode = otp.Code
		return true
	})).Return(nil).Once()

	mockDispatcher.On("DispatchOTPEmail", ctx, "otp@example.com", mock.MatchedBy(func(code string) bool {
		return code == issuedCode
	})).Return(nil).Once()

	err := authService.SendOTP(ctx, "otp@example.com")

	assert.NoError(t, err)
	mockOTPRepo.AssertExpectations(t)
	mockDispatcher.AssertExpectations(t)
}

func TestAuthService_SendOTP_DispatchFailure(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	mockDispatcher := new(mocks.OTPDispatcher)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, mockDispatcher)

	ctx := context.Background()
	mockOTPRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	mockDispatcher.On("DispatchOTPEmail", ctx, "otp@example.com", mock.Anything).
		Return(errors.New("queue down")).
		Once()

	err := authService.SendOTP(ctx, "otp@example.com")

	assert.ErrorIs(t, err, service.ErrInternalServer)
	mockDispatcher.AssertExpectations(t)
}

func TestAuthService_VerifyOTP_Success(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	mockOTPRepo.On("FindLatestByEmail", ctx, "otp@example.com").
		Return(&domain.OTPCode{
			ID:        3,
			Email:     "otp@example.com",
			Code:      "123456",
			ExpiresAt: time.Now().Add(5 * time.Minute),
		}, nil).
		Once()
	mockOTPRepo.On("MarkUsed", ctx, uint(3)).Return(nil).Once()

	err := authService.VerifyOTP(ctx, "otp@example.com", "123456")

	assert.NoError(t, err)
	mockOTPRepo.AssertExpectations(t)
}

func TestAuthService_VerifyOTP_OnlyLatestCodeCounts(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	// The latest issued code is 654321; submitting an older code must fail
	// even if that code once existed.
	mockOTPRepo.On("FindLatestByEmail", ctx, "otp@example.com").
		Return(&domain.OTPCode{
			ID:        4,
			Email:     "otp@example.com",
			Code:      "654321",
			ExpiresAt: time.Now().Add(5 * time.Minute),
		}, nil).
		Once()

	err := authService.VerifyOTP(ctx, "otp@example.com", "123456")

	assert.ErrorIs(t, err, service.ErrOTPInvalid)
	mockOTPRepo.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything)
}

func TestAuthService_VerifyOTP_AlreadyUsed(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	mockOTPRepo.On("FindLatestByEmail", ctx, "otp@example.com").
		Return(&domain.OTPCode{
			ID:        5,
			Email:     "otp@example.com",
			Code:      "123456",
			ExpiresAt: time.Now().Add(5 * time.Minute),
			Used:      true,
		}, nil).
		Once()

	err := authService.VerifyOTP(ctx, "otp@example.com", "123456")

	assert.ErrorIs(t, err, service.ErrOTPInvalid)
	mockOTPRepo.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything)
}

func TestAuthService_VerifyOTP_Expired(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	mockOTPRepo.On("FindLatestByEmail", ctx, "otp@example.com").
		Return(&domain.OTPCode{
			ID:        6,
			Email:     "otp@example.com",
			Code:      "123456",
			ExpiresAt: time.Now().Add(-time.Minute),
		}, nil).
		Once()

	err := authService.VerifyOTP(ctx, "otp@example.com", "123456")

	assert.ErrorIs(t, err, service.ErrOTPExpired)
	mockOTPRepo.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything)
}

func TestAuthService_VerifyOTP_NoCodeOnRecord(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	mockOTPRepo.On("FindLatestByEmail", ctx, "otp@example.com").
		Return(nil, repository.ErrOTPNotFound).
		Once()

	err := authService.VerifyOTP(ctx, "otp@example.com", "123456")

	assert.ErrorIs(t, err, service.ErrOTPInvalid)
}

func TestAuthService_UpdateProfile_PartialFields(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	existing := &domain.Profile{ID: 7, FullName: "Old Name", AvatarURL: "http://a/old.png", Bio: "old bio"}

	mockProfileRepo.On("FindByUserID", ctx, uint(7)).Return(existing, nil).Once()
	mockProfileRepo.On("Save", ctx, mock.MatchedBy(func(p *domain.Profile) bool {
		// Only the bio was submitted; the other fields stay as they were.
		return p.FullName == "Old Name" && p.AvatarURL == "http://a/old.png" && p.Bio == "new bio"
	})).Return(nil).Once()

	bio := "new bio"
	updated, err := authService.UpdateProfile(ctx, 7, service.ProfileUpdate{Bio: &bio})

	assert.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "new bio", updated.Bio)
	mockProfileRepo.AssertExpectations(t)
}

func TestAuthService_GetProfile_NotFound(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	mockProfileRepo := new(mocks.ProfileRepository)
	mockOTPRepo := new(mocks.OTPRepository)
	authService := newAuthService(t, mockUserRepo, mockProfileRepo, mockOTPRepo, nil)

	ctx := context.Background()
	mockProfileRepo.On("FindByUserID", ctx, uint(404)).
		Return(nil, repository.ErrProfileNotFound).
		Once()

	profile, err := authService.GetProfile(ctx, 404)

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, service.ErrProfileNotFound)
}
