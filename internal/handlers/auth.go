package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rtchat/server/internal/models"
	"rtchat/server/internal/store"
	"rtchat/server/internal/utils"
)

// AuthHandler implements the credential boundary: sign-up, sign-in and
// token refresh. The realtime core trusts the identity these establish.
type AuthHandler struct {
	Store store.Store
	Log   *zap.Logger
}

// SignUpRequest represents the sign-up request body.
type SignUpRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SignInRequest represents the sign-in request body.
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenEnvelope is the response for both sign-up and sign-in.
type tokenEnvelope struct {
	User   models.Profile `json:"user"`
	Tokens tokenPair      `json:"tokens"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (h *AuthHandler) respondWithTokens(c *fiber.Ctx, user *models.User) error {
	access, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}
	refresh, err := utils.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate refresh token",
		})
	}

	// Cookie mirror of the access token so the websocket upgrade can
	// authenticate without a header.
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    access,
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   900,
	})

	return c.JSON(tokenEnvelope{
		User:   user.ToProfile(),
		Tokens: tokenPair{Access: access, Refresh: refresh},
	})
}

// SignUp creates an identity. Username and names are lowercased before
// storage.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username, password, first name and last name are required",
		})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user, err := h.Store.CreateUser(c.Context(), store.NewUser{
		Username:     strings.ToLower(req.Username),
		FirstName:    strings.ToLower(req.FirstName),
		LastName:     strings.ToLower(req.LastName),
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrUsernameTaken) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Username already taken",
		})
	}
	if err != nil {
		h.Log.Error("sign up", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	return h.respondWithTokens(c, user)
}

// SignIn authenticates a credential pair.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Please provide both username and password",
		})
	}

	user, err := h.Store.CredentialsByUsername(c.Context(), strings.ToLower(req.Username))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}
	if err != nil {
		h.Log.Error("sign in", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	return h.respondWithTokens(c, user)
}

// Refresh rotates the token pair given a valid refresh token in the body
// or cookie.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = c.BodyParser(&req)
	if req.Refresh == "" {
		req.Refresh = c.Cookies("refresh_token")
	}
	if req.Refresh == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Refresh token not found",
		})
	}

	claims, err := utils.ValidateToken(req.Refresh)
	if err != nil || claims.Type != utils.TokenTypeRefresh {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid refresh token",
		})
	}

	user, err := h.Store.UserByID(c.Context(), claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid refresh token",
		})
	}

	return h.respondWithTokens(c, user)
}
