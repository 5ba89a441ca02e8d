package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"millorders/internal/order"
	"millorders/internal/service"
	"millorders/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by the auth middleware
const (
	ContextUserID = "userID"
	ContextRole   = "userRole"
	ContextPerms  = "userPerms"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// Auth validates access tokens and resolves the caller's permissions
type Auth struct {
	secret        []byte
	perms         service.PermissionService
	secureCookies bool
}

// NewAuth builds the auth middleware. secureCookies switches cookies to
// SameSite=None + Secure for cross-origin deployments.
func NewAuth(secret []byte, perms service.PermissionService, secureCookies bool) *Auth {
	return &Auth{secret: secret, perms: perms, secureCookies: secureCookies}
}

// tokenFromRequest tries the cookie first, then the Authorization header
func tokenFromRequest(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie(accessCookie); err == nil && tokenString != "" {
		return tokenString, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid authorization format. Expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// authenticate parses the token and stores user id and role in the context
func (a *Auth) authenticate(c *gin.Context) bool {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return false
	}
	sub, _ := claims["sub"].(string)
	if _, err := uuid.Parse(sub); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return false
	}
	userRole, ok := claims["role"].(string)
	if !ok || userRole == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
		return false
	}

	c.Set(ContextUserID, sub)
	c.Set(ContextRole, userRole)
	return true
}

// Authenticated admits any valid token
func (a *Auth) Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequirePermission validates the JWT and checks that the user's role holds
// every listed permission code. The resolved set is left in the context so
// handlers can pass it on to the order state machine.
func (a *Auth) RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}

		perms, err := a.perms.PermissionsForRole(c.Request.Context(), c.GetString(ContextRole))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		c.Set(ContextPerms, perms)

		for _, required := range requiredPerms {
			if !perms.HasPermission(required) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}

// ActorFrom reads the caller set by the auth middleware
func ActorFrom(c *gin.Context) service.Actor {
	actor := service.Actor{Role: c.GetString(ContextRole), Perms: order.NewPermissionSet()}
	if id, err := uuid.Parse(c.GetString(ContextUserID)); err == nil {
		actor.UserID = id
	}
	if v, ok := c.Get(ContextPerms); ok {
		if perms, ok := v.(order.PermissionSet); ok {
			actor.Perms = perms
		}
	}
	return actor
}

func (a *Auth) cookieMode() (http.SameSite, bool) {
	if a.secureCookies {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func (a *Auth) SetTokenCookies(c *gin.Context, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	sameSite, secure := a.cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(accessCookie, accessToken, int(accessTTL.Seconds()), "/", "", secure, true)
	c.SetCookie(refreshCookie, refreshToken, int(refreshTTL.Seconds()), "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func (a *Auth) ClearTokenCookies(c *gin.Context) {
	sameSite, secure := a.cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(accessCookie, "", -1, "/", "", secure, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", secure, true)
}

// RefreshTokenFromCookie returns the refresh cookie, or "" when absent
func RefreshTokenFromCookie(c *gin.Context) string {
	token, err := c.Cookie(refreshCookie)
	if err != nil {
		return ""
	}
	return token
}
