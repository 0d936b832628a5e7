// Package services contains server-side business logic. This file implements
// UserService: registration, login and logout, refresh-token rotation,
// password changes, profile updates and the session gate used by the HTTP
// middleware.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/media"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/users"
)

// Caller-facing messages.
const (
	msgAllFieldsRequired     = "All fields are required"
	msgUserExists            = "User with this email or username already exists"
	msgAvatarRequired        = "Avatar is required"
	msgAvatarUploadFailed    = "Failed to upload avatar"
	msgCoverRequired         = "Cover image is required"
	msgCoverUploadFailed     = "Failed to upload cover image"
	msgImagesOnly            = "Only image files are allowed"
	msgCreateUserFailed      = "Failed to create user"
	msgLoginIdentifier       = "Username or email is required"
	msgUserNotFound          = "User not found"
	msgInvalidCredentials    = "Invalid credentials"
	msgTokenGenerationFailed = "Failed to generate access and refresh token"
	msgUnauthorizedRequest   = "Unauthorized request"
	msgInvalidRefreshToken   = "Invalid refresh token"
	msgRefreshTokenExpired   = "Refresh token expired"
	msgRefreshTokenUsed      = "Refresh token is expired or used"
	msgPasswordMismatch      = "New password and confirm password do not match"
	msgNewPasswordRequired   = "New password is required"
	msgInvalidOldPassword    = "Invalid old password"
	msgAccountFieldsRequired = "Full name or email is required"
	msgEmailTaken            = "Email is already in use"
	msgNoTokenProvided       = "Unauthorized - No token provided"
	msgTokenExpired          = "Token expired"
	msgInvalidToken          = "Invalid token"
	msgSessionUserNotFound   = "Unauthorized - User not found"
	msgInternal              = "Internal server error"
	cleanupTimeout           = 10 * time.Second
)

var errNoAssetURL = errors.New("media host returned no url")

// RegisterInput carries the registration form. Avatar is required,
// CoverImage may be nil.
type RegisterInput struct {
	UserName   string
	Email      string
	Password   string
	FullName   string
	Avatar     *media.File
	CoverImage *media.File
}

type LoginInput struct {
	Email    string
	UserName string
	Password string
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// LoginResult is a sanitized user plus a fresh token pair.
type LoginResult struct {
	User   *models.User
	Tokens *auth.TokenPair
}

// Options tunes UserService behaviour.
type Options struct {
	// ConcealLoginFailures answers unknown-user logins with the same 401 as a
	// wrong password.
	ConcealLoginFailures bool
}

type UserService struct {
	users    users.Repository
	hasher   auth.PasswordHasher
	tokens   *auth.TokenIssuer
	uploader media.Uploader
	logger   logging.Logger
	opts     Options
}

func NewUserService(repo users.Repository, hasher auth.PasswordHasher, tokens *auth.TokenIssuer,
	uploader media.Uploader, logger logging.Logger, opts Options) *UserService {
	return &UserService{
		users:    repo,
		hasher:   hasher,
		tokens:   tokens,
		uploader: uploader,
		logger:   logger.With("module", "users"),
		opts:     opts,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	userName := strings.ToLower(strings.TrimSpace(in.UserName))
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if userName == "" || email == "" || fullName == "" || strings.TrimSpace(in.Password) == "" {
		return nil, common.NewError(common.ErrorValidation, msgAllFieldsRequired)
	}

	exists, err := s.users.Exists(ctx, email, userName)
	if err != nil {
		return nil, s.internal(ctx, msgCreateUserFailed, err)
	}
	if exists {
		return nil, common.NewError(common.ErrorConflict, msgUserExists)
	}

	if in.Avatar.Size() == 0 {
		return nil, common.NewError(common.ErrorValidation, msgAvatarRequired)
	}

	avatar, err := s.uploader.Upload(ctx, in.Avatar)
	if err != nil {
		return nil, s.uploadError(ctx, msgAvatarUploadFailed, err)
	}
	if avatar.URL == "" {
		s.cleanup(ctx, avatar)
		return nil, s.internal(ctx, msgAvatarUploadFailed, errNoAssetURL)
	}

	var cover *media.Asset
	if in.CoverImage.Size() > 0 {
		cover, err = s.uploader.Upload(ctx, in.CoverImage)
		switch {
		case errors.Is(err, media.ErrUnsupportedType):
			s.cleanup(ctx, avatar)
			return nil, common.WrapError(common.ErrorValidation, msgImagesOnly, err)
		case err != nil:
			// registration proceeds without a cover image
			s.logger.Warn(ctx, "cover image upload failed", "error", err)
			cover = nil
		case cover.URL == "":
			s.cleanup(ctx, cover)
			cover = nil
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.cleanup(ctx, avatar, cover)
		return nil, s.internal(ctx, msgCreateUserFailed, err)
	}

	user := &models.User{
		UserName:     userName,
		Email:        email,
		FullName:     fullName,
		AvatarURL:    avatar.URL,
		PasswordHash: hash,
	}
	if cover != nil {
		user.CoverImageURL = cover.URL
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		s.cleanup(ctx, avatar, cover)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.WrapError(common.ErrorConflict, msgUserExists, err)
		}
		return nil, s.internal(ctx, msgCreateUserFailed, err)
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created.Sanitized(), nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.TrimSpace(in.Email)
	userName := strings.ToLower(strings.TrimSpace(in.UserName))
	if email == "" && userName == "" {
		return nil, common.NewError(common.ErrorValidation, msgLoginIdentifier)
	}

	user, err := s.users.FindByLogin(ctx, email, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "login failed", "reason", "unknown user")
			if s.opts.ConcealLoginFailures {
				return nil, common.NewError(common.ErrorUnauthorized, msgInvalidCredentials)
			}
			return nil, common.NewError(common.ErrorNotFound, msgUserNotFound)
		}
		return nil, s.internal(ctx, msgInternal, err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, in.Password)
	if err != nil {
		return nil, s.internal(ctx, msgInternal, err)
	}
	if !ok {
		s.logger.Warn(ctx, "login failed", "reason", "invalid password", "user_id", user.ID)
		return nil, common.NewError(common.ErrorUnauthorized, msgInvalidCredentials)
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, s.internal(ctx, msgTokenGenerationFailed, err)
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, s.internal(ctx, msgTokenGenerationFailed, err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{User: user.Sanitized(), Tokens: pair}, nil
}

// Logout clears the stored refresh token. Repeating it is harmless.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	err := s.users.SetRefreshToken(ctx, userID, "")
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return s.internal(ctx, msgInternal, err)
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// RefreshToken exchanges a valid, current refresh token for a new pair.
// The presented token is single use: rotation is a compare-and-swap in the
// store, so a replayed token loses even under concurrency.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, common.WrapError(common.ErrorUnauthorized, msgUnauthorizedRequest, common.ErrTokenMissing)
	}

	claims, err := s.tokens.Verify(refreshToken, auth.TokenRefresh)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.WrapError(common.ErrorUnauthorized, msgRefreshTokenExpired, err)
		}
		return nil, common.WrapError(common.ErrorUnauthorized, msgInvalidRefreshToken, err)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.WrapError(common.ErrorUnauthorized, msgInvalidRefreshToken, common.ErrUnknownSubject)
		}
		return nil, s.internal(ctx, msgInternal, err)
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		s.logger.Warn(ctx, "stale refresh token presented", "user_id", user.ID)
		return nil, common.WrapError(common.ErrorUnauthorized, msgRefreshTokenUsed, common.ErrRefreshTokenReused)
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, s.internal(ctx, msgTokenGenerationFailed, err)
	}

	err = s.users.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrRefreshTokenReused):
		s.logger.Warn(ctx, "refresh token rotated concurrently", "user_id", user.ID)
		return nil, common.WrapError(common.ErrorUnauthorized, msgRefreshTokenUsed, err)
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.WrapError(common.ErrorUnauthorized, msgInvalidRefreshToken, common.ErrUnknownSubject)
	default:
		return nil, s.internal(ctx, msgTokenGenerationFailed, err)
	}

	s.logger.Info(ctx, "access token refreshed", "user_id", user.ID)
	return pair, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return common.NewError(common.ErrorValidation, msgPasswordMismatch)
	}
	if strings.TrimSpace(in.NewPassword) == "" {
		return common.NewError(common.ErrorValidation, msgNewPasswordRequired)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.WrapError(common.ErrorUnauthorized, msgUnauthorizedRequest, common.ErrUnknownSubject)
		}
		return s.internal(ctx, msgInternal, err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, in.OldPassword)
	if err != nil {
		return s.internal(ctx, msgInternal, err)
	}
	if !ok {
		return common.NewError(common.ErrorUnauthorized, msgInvalidOldPassword)
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return s.internal(ctx, msgInternal, err)
	}
	if err := s.users.SetPasswordHash(ctx, userID, hash); err != nil {
		return s.internal(ctx, msgInternal, err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// GetCurrentUser returns the projection attached by the session gate.
func (s *UserService) GetCurrentUser(ctx context.Context, current *models.User) (*models.User, error) {
	if current == nil {
		return nil, common.WrapError(common.ErrorUnauthorized, msgUnauthorizedRequest, common.ErrTokenMissing)
	}
	return current.Sanitized(), nil
}

func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return nil, common.NewError(common.ErrorValidation, msgAccountFieldsRequired)
	}

	user, err := s.users.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, common.WrapError(common.ErrorConflict, msgEmailTaken, err)
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.WrapError(common.ErrorNotFound, msgUserNotFound, err)
		default:
			return nil, s.internal(ctx, msgInternal, err)
		}
	}

	s.logger.Info(ctx, "account details updated", "user_id", userID)
	return user.Sanitized(), nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *media.File) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, msgAvatarRequired, msgAvatarUploadFailed, s.users.SetAvatar, "avatar updated")
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, file *media.File) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, msgCoverRequired, msgCoverUploadFailed, s.users.SetCoverImage, "cover image updated")
}

func (s *UserService) replaceImage(ctx context.Context, userID string, file *media.File,
	requiredMsg, failedMsg string,
	persist func(ctx context.Context, id, url string) (*models.User, error),
	event string,
) (*models.User, error) {
	if file.Size() == 0 {
		return nil, common.NewError(common.ErrorValidation, requiredMsg)
	}

	asset, err := s.uploader.Upload(ctx, file)
	if err != nil {
		return nil, s.uploadError(ctx, failedMsg, err)
	}
	if asset.URL == "" {
		s.cleanup(ctx, asset)
		return nil, s.internal(ctx, failedMsg, errNoAssetURL)
	}

	user, err := persist(ctx, userID, asset.URL)
	if err != nil {
		s.cleanup(ctx, asset)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.WrapError(common.ErrorNotFound, msgUserNotFound, err)
		}
		return nil, s.internal(ctx, msgInternal, err)
	}

	s.logger.Info(ctx, event, "user_id", userID)
	return user.Sanitized(), nil
}

// Authenticate is the session gate: it verifies an access token and loads
// its subject. It never mutates state. The returned user is sanitized.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, common.WrapError(common.ErrorUnauthorized, msgNoTokenProvided, common.ErrTokenMissing)
	}

	claims, err := s.tokens.Verify(accessToken, auth.TokenAccess)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.WrapError(common.ErrorUnauthorized, msgTokenExpired, err)
		}
		return nil, common.WrapError(common.ErrorUnauthorized, msgInvalidToken, err)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.WrapError(common.ErrorUnauthorized, msgSessionUserNotFound, common.ErrUnknownSubject)
		}
		return nil, s.internal(ctx, msgInternal, err)
	}

	return user.Sanitized(), nil
}

// uploadError keeps caller mistakes at 400. Host, transport and breaker
// failures are internal.
func (s *UserService) uploadError(ctx context.Context, msg string, err error) error {
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		return common.WrapError(common.ErrorValidation, msgImagesOnly, err)
	case errors.Is(err, media.ErrEmptyFile):
		return common.WrapError(common.ErrorValidation, msg, err)
	}
	return s.internal(ctx, msg, err)
}

func (s *UserService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.WrapError(common.ErrorInternal, msg, err)
}

// cleanup deletes media orphaned by a failed operation. It runs detached
// from ctx so a cancelled request still releases its uploads.
func (s *UserService) cleanup(ctx context.Context, assets ...*media.Asset) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	for _, a := range assets {
		if a == nil || a.Key == "" {
			continue
		}
		if err := s.uploader.Delete(dctx, a.Key); err != nil {
			s.logger.Warn(ctx, "orphaned media cleanup failed", "key", a.Key, "error", err)
		}
	}
}
