package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"millorders/internal/model"
	"millorders/internal/repository"
	"millorders/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFilters map[string]string

func (m memoryFilters) Get(_ context.Context, userID uuid.UUID, key string) (string, error) {
	v, ok := m[userID.String()+key]
	if !ok {
		return "", repository.ErrKeyNotFound
	}
	return v, nil
}

func (m memoryFilters) Put(_ context.Context, userID uuid.UUID, key, value string) error {
	m[userID.String()+key] = value
	return nil
}

func (m memoryFilters) Delete(_ context.Context, userID uuid.UUID, key string) error {
	delete(m, userID.String()+key)
	return nil
}

func TestFilterHandler_SaveAndLoad(t *testing.T) {
	store := memoryFilters{}
	r := newEngine()
	NewFilterHandler(service.NewFilterService(store), testAuth()).RegisterRoutes(&r.RouterGroup)
	userID := uuid.New()
	token := bearer(t, userID, model.RoleSales)

	w := do(t, r, http.MethodPut, "/api/filters/orders.list", token, `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `{"status":"approved"}`, store[userID.String()+"orders.list"])

	w = do(t, r, http.MethodGet, "/api/filters/orders.list", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var value map[string]string
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &value))
	assert.Equal(t, "approved", value["status"])

	w = do(t, r, http.MethodPut, "/api/filters/orders.list", token, `{broken`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, "/api/filters/orders.list", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store)

	w = do(t, r, http.MethodGet, "/api/filters/orders.list", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, string(decode(t, w).Data))
}
