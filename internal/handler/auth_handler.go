package handler

import (
	"net/http"
	"time"

	"millorders/internal/middleware"
	"millorders/internal/service"
	"millorders/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues and revokes session tokens. Tokens go out both in the
// JSON body and as HttpOnly cookies so the browser app and API clients can
// each use what suits them.
type AuthHandler struct {
	userService service.UserService
	auth        *middleware.Auth
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func NewAuthHandler(userService service.UserService, auth *middleware.Auth, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{userService: userService, auth: auth, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/auth")
	{
		group.POST("/login", h.Login)
		group.POST("/refresh", h.Refresh)
		group.POST("/logout", h.Logout)
		group.GET("/me", h.auth.Authenticated(), h.Me)
	}
}

// Login godoc
// @Summary      Log in
// @Description  Checks email and password and starts a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginUserRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tokens, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.startSession(c, tokens)
}

// Refresh godoc
// @Summary      Refresh session
// @Description  Rotates the refresh token (cookie, or body as fallback) and issues a new access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest  false  "Refresh token when no cookie is sent"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	req := service.RefreshTokenRequest{RefreshToken: middleware.RefreshTokenFromCookie(c)}
	if req.RefreshToken == "" {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	tokens, err := h.userService.RefreshToken(c.Request.Context(), req)
	if err != nil {
		h.auth.ClearTokenCookies(c)
		writeError(c, err)
		return
	}
	h.startSession(c, tokens)
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the refresh token and clears the session cookies
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.RefreshTokenFromCookie(c); token != "" {
		if err := h.userService.Logout(c.Request.Context(), token); err != nil {
			_ = c.Error(err)
		}
	}
	h.auth.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// Me godoc
// @Summary      Current user
// @Description  The signed-in staff member and the permission codes of their role
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.MeResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	me, err := h.userService.Me(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, me))
}

func (h *AuthHandler) startSession(c *gin.Context, tokens *service.TokenResponse) {
	h.auth.SetTokenCookies(c, tokens.Token, tokens.RefreshToken, h.accessTTL, h.refreshTTL)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}
