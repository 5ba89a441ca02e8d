package order_test

import (
	"testing"

	"millorders/internal/model"
	"millorders/internal/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []model.OrderStatus{
	model.OrderStatusPending,
	model.OrderStatusApproved,
	model.OrderStatusProcessing,
	model.OrderStatusReady,
	model.OrderStatusDispatched,
	model.OrderStatusDelivered,
	model.OrderStatusCompleted,
	model.OrderStatusRejected,
	model.OrderStatusCancelled,
}

func fullPerms() order.PermissionSet {
	return order.NewPermissionSet(order.PermOrdersApprove, order.PermOrdersUpdate)
}

func orderIn(status model.OrderStatus) model.Order {
	return model.Order{
		Status: status,
		Items: []model.OrderItem{
			{ProductName: "Chakki Atta", Quantity: decimal.NewFromInt(10), Unit: model.UnitKG, RatePerUnit: decimal.NewFromInt(25)},
		},
	}
}

func TestTransition_Table(t *testing.T) {
	valid := map[order.Action]map[model.OrderStatus]model.OrderStatus{
		order.ActionApprove:         {model.OrderStatusPending: model.OrderStatusApproved},
		order.ActionReject:          {model.OrderStatusPending: model.OrderStatusRejected},
		order.ActionStartProduction: {model.OrderStatusApproved: model.OrderStatusProcessing},
		order.ActionMarkReady:       {model.OrderStatusProcessing: model.OrderStatusReady},
		order.ActionDispatch:        {model.OrderStatusReady: model.OrderStatusDispatched},
		order.ActionMarkDelivered:   {model.OrderStatusDispatched: model.OrderStatusDelivered},
		order.ActionComplete:        {model.OrderStatusDelivered: model.OrderStatusCompleted},
		order.ActionCancel: {
			model.OrderStatusPending:    model.OrderStatusCancelled,
			model.OrderStatusApproved:   model.OrderStatusCancelled,
			model.OrderStatusProcessing: model.OrderStatusCancelled,
		},
	}

	for _, action := range order.Actions() {
		for _, status := range allStatuses {
			next, err := order.Transition(orderIn(status), action, fullPerms(), "customer asked")
			want, ok := valid[action][status]
			if ok {
				require.NoError(t, err, "%s from %s", action, status)
				assert.Equal(t, want, next.Status, "%s from %s", action, status)
				continue
			}
			assert.ErrorIs(t, err, order.ErrInvalidTransition, "%s from %s", action, status)
		}
	}
}

func TestTransition_UnknownAction(t *testing.T) {
	_, err := order.Transition(orderIn(model.OrderStatusPending), order.Action("ship"), fullPerms(), "")
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestTransition_PermissionDenied(t *testing.T) {
	tests := []struct {
		name   string
		action order.Action
		status model.OrderStatus
		perms  order.PermissionChecker
	}{
		{"approve without approve permission", order.ActionApprove, model.OrderStatusPending, order.NewPermissionSet(order.PermOrdersUpdate)},
		{"reject without approve permission", order.ActionReject, model.OrderStatusPending, order.NewPermissionSet(order.PermOrdersUpdate)},
		{"dispatch without update permission", order.ActionDispatch, model.OrderStatusReady, order.NewPermissionSet(order.PermOrdersApprove)},
		{"cancel with no permissions", order.ActionCancel, model.OrderStatusPending, order.NewPermissionSet()},
		{"nil checker", order.ActionApprove, model.OrderStatusPending, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := order.Transition(orderIn(tt.status), tt.action, tt.perms, "reason")
			assert.ErrorIs(t, err, order.ErrPermissionDenied)
		})
	}
}

func TestTransition_PermissionCheckedBeforeStatus(t *testing.T) {
	_, err := order.Transition(orderIn(model.OrderStatusCompleted), order.ActionApprove, order.NewPermissionSet(), "")
	assert.ErrorIs(t, err, order.ErrPermissionDenied)
}

func TestTransition_RejectNotes(t *testing.T) {
	perms := order.NewPermissionSet(order.PermOrdersApprove)

	for _, notes := range []string{"", "   ", "\t\n"} {
		_, err := order.Transition(orderIn(model.OrderStatusPending), order.ActionReject, perms, notes)
		assert.ErrorIs(t, err, order.ErrMissingNotes, "notes %q", notes)
	}

	next, err := order.Transition(orderIn(model.OrderStatusPending), order.ActionReject, perms, "  rate not agreed ")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRejected, next.Status)
	assert.Equal(t, "rate not agreed", next.Notes)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	in := orderIn(model.OrderStatusPending)
	in.Notes = "original"

	next, err := order.Transition(in, order.ActionApprove, fullPerms(), "")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, in.Status)
	assert.Equal(t, "original", next.Notes)

	next.Items[0].ProductName = "changed"
	assert.Equal(t, "Chakki Atta", in.Items[0].ProductName)
}

func TestTransition_EmptyOrder(t *testing.T) {
	empty := model.Order{Status: model.OrderStatusPending}

	_, err := order.Transition(empty, order.ActionApprove, fullPerms(), "")
	assert.ErrorIs(t, err, order.ErrEmptyOrder)

	next, err := order.Transition(empty, order.ActionCancel, fullPerms(), "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, next.Status)

	next, err = order.Transition(empty, order.ActionReject, fullPerms(), "no items")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRejected, next.Status)
}

func TestAvailableActions(t *testing.T) {
	tests := []struct {
		status model.OrderStatus
		perms  order.PermissionSet
		want   []order.Action
	}{
		{model.OrderStatusPending, fullPerms(), []order.Action{order.ActionApprove, order.ActionReject, order.ActionCancel}},
		{model.OrderStatusPending, order.NewPermissionSet(order.PermOrdersUpdate), []order.Action{order.ActionCancel}},
		{model.OrderStatusApproved, fullPerms(), []order.Action{order.ActionStartProduction, order.ActionCancel}},
		{model.OrderStatusProcessing, fullPerms(), []order.Action{order.ActionMarkReady, order.ActionCancel}},
		{model.OrderStatusReady, fullPerms(), []order.Action{order.ActionDispatch}},
		{model.OrderStatusDelivered, fullPerms(), []order.Action{order.ActionComplete}},
		{model.OrderStatusCompleted, fullPerms(), nil},
		{model.OrderStatusRejected, fullPerms(), nil},
		{model.OrderStatusCancelled, fullPerms(), nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, order.AvailableActions(orderIn(tt.status), tt.perms))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, order.IsTerminal(model.OrderStatusCompleted))
	assert.True(t, order.IsTerminal(model.OrderStatusRejected))
	assert.True(t, order.IsTerminal(model.OrderStatusCancelled))
	assert.False(t, order.IsTerminal(model.OrderStatusDelivered))
	assert.False(t, order.IsTerminal(model.OrderStatusPending))
}

func TestParseAction(t *testing.T) {
	a, err := order.ParseAction("markDelivered")
	require.NoError(t, err)
	assert.Equal(t, order.ActionMarkDelivered, a)

	_, err = order.ParseAction("teleport")
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}
