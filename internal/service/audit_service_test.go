package service

import (
	"context"
	"testing"

	"millorders/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAuditLogs_AttributesSystemRows(t *testing.T) {
	repo := &fakeAuditRepo{}
	uid := uuid.New()
	require.NoError(t, repo.Log(context.Background(), &model.AuditLog{Action: model.ActionMarkOverdue, EntityID: "o-1"}))
	require.NoError(t, repo.Log(context.Background(), &model.AuditLog{
		Action: model.ActionCreateOrder, EntityID: "o-2", UserID: &uid, User: &model.User{Username: "ravi"},
		Details: `{"total":"427.50"}`,
	}))

	logs, total, err := NewAuditService(repo).GetAuditLogs(context.Background(), AuditQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "System", logs[0].Username)
	assert.Empty(t, logs[0].UserID)
	assert.Nil(t, logs[0].Details)
	assert.Equal(t, "ravi", logs[1].Username)
	assert.JSONEq(t, `{"total":"427.50"}`, string(logs[1].Details))

	logs, _, err = NewAuditService(repo).GetAuditLogs(context.Background(), AuditQuery{EntityID: "o-2", Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, uid.String(), logs[0].UserID)
}

func TestGetAuditLogs_ActionFilter(t *testing.T) {
	repo := &fakeAuditRepo{}
	for _, action := range []string{model.ActionCreateOrder, model.ActionTransitionOrder, model.ActionTransitionOrder} {
		require.NoError(t, repo.Log(context.Background(), &model.AuditLog{Action: action, EntityID: "o-1"}))
	}

	logs, total, err := NewAuditService(repo).GetAuditLogs(context.Background(), AuditQuery{Action: model.ActionTransitionOrder})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, logs, 2)

	_, _, err = NewAuditService(repo).GetAuditLogs(context.Background(), AuditQuery{Action: "DROP_TABLE"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
