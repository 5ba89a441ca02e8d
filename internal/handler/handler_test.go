package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"millorders/internal/middleware"
	"millorders/internal/model"
	"millorders/internal/order"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("handler-secret")

type rolePerms map[string][]string

func (r rolePerms) PermissionsForRole(_ context.Context, role string) (order.PermissionSet, error) {
	return order.NewPermissionSet(r[role]...), nil
}

func (r rolePerms) ClearCache(string) {}

func allCodes() []string {
	codes := make([]string, 0, len(model.DefaultPermissions))
	for _, p := range model.DefaultPermissions {
		codes = append(codes, p.Code)
	}
	return codes
}

func testAuth() *middleware.Auth {
	return middleware.NewAuth(testSecret, rolePerms{
		model.RoleAdmin:   allCodes(),
		model.RoleManager: model.DefaultRolePermissions[model.RoleManager],
		model.RoleSales:   model.DefaultRolePermissions[model.RoleSales],
	}, false)
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func bearer(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + s
}

func do(t *testing.T, r http.Handler, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Details    json.RawMessage `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

