package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/media"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/services"
)

// AccountService is the business API the HTTP layer drives.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	ChangePassword(ctx context.Context, userID string, in services.ChangePasswordInput) error
	GetCurrentUser(ctx context.Context, current *models.User) (*models.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID string, file *media.File) (*models.User, error)
	UpdateCoverImage(ctx context.Context, userID string, file *media.File) (*models.User, error)
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type registerRequest struct {
	UserName string `json:"userName" form:"userName"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	FullName string `json:"fullName" form:"fullName"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	UserName string `json:"userName" form:"userName"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" form:"oldPassword"`
	NewPassword     string `json:"newPassword" form:"newPassword"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
}

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	avatar, err := formImage(c, avatarField)
	if err != nil {
		fail(c, err)
		return
	}
	cover, err := formImage(c, coverImageField)
	if err != nil {
		fail(c, err)
		return
	}

	user, err := s.accounts.Register(c.Request.Context(), services.RegisterInput{
		UserName:   req.UserName,
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusCreated, user, "User registered successfully")
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	res, err := s.accounts.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		UserName: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	s.cookies.setTokens(c, res.Tokens)
	respond(c, http.StatusOK, gin.H{
		"user":         res.User,
		"accessToken":  res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	}, "User logged in successfully")
}

func (s *HTTPServer) logout(c *gin.Context) {
	if err := s.accounts.Logout(c.Request.Context(), currentUser(c).ID); err != nil {
		fail(c, err)
		return
	}

	s.cookies.clearTokens(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out successfully")
}

func (s *HTTPServer) refreshAccessToken(c *gin.Context) {
	token, _ := c.Cookie(common.RefreshTokenCookieName)
	if token == "" {
		var req refreshRequest
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		token = req.RefreshToken
	}

	pair, err := s.accounts.RefreshToken(c.Request.Context(), token)
	if err != nil {
		fail(c, err)
		return
	}

	s.cookies.setTokens(c, pair)
	respond(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed successfully")
}

func (s *HTTPServer) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	err := s.accounts.ChangePassword(c.Request.Context(), currentUser(c).ID, services.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (s *HTTPServer) getCurrentUser(c *gin.Context) {
	user, err := s.accounts.GetCurrentUser(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "Current user fetched successfully")
}

func (s *HTTPServer) updateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}

	user, err := s.accounts.UpdateAccount(c.Request.Context(), currentUser(c).ID, req.FullName, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "Account details updated successfully")
}

func (s *HTTPServer) updateAvatar(c *gin.Context) {
	s.updateImage(c, avatarField, s.accounts.UpdateAvatar, "Avatar updated successfully")
}

func (s *HTTPServer) updateCoverImage(c *gin.Context) {
	s.updateImage(c, coverImageField, s.accounts.UpdateCoverImage, "Cover image updated successfully")
}

func (s *HTTPServer) updateImage(c *gin.Context, field string,
	update func(ctx context.Context, userID string, file *media.File) (*models.User, error),
	message string,
) {
	file, err := formImage(c, field)
	if err != nil {
		fail(c, err)
		return
	}

	user, err := update(c.Request.Context(), currentUser(c).ID, file)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, message)
}

func liveness(c *gin.Context) {
	respond(c, http.StatusOK, nil, "Test route is working!")
}

func notFound(c *gin.Context) {
	abortWith(c, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.RequestURI()))
}
