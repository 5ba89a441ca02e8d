package order

import (
	"fmt"
	"sort"
	"strings"

	"millorders/internal/model"
)

// Action is a lifecycle step a caller can request on an order
type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionStartProduction Action = "startProduction"
	ActionMarkReady       Action = "markReady"
	ActionDispatch        Action = "dispatch"
	ActionMarkDelivered   Action = "markDelivered"
	ActionComplete        Action = "complete"
	ActionCancel          Action = "cancel"
)

// Permission codes consulted by the state machine
const (
	PermOrdersApprove = "orders.approve"
	PermOrdersUpdate  = "orders.update"
)

// PermissionChecker answers whether the acting user holds a permission code
type PermissionChecker interface {
	HasPermission(name string) bool
}

// PermissionSet is a PermissionChecker over a fixed set of codes
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from permission codes
func NewPermissionSet(codes ...string) PermissionSet {
	set := make(PermissionSet, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

func (p PermissionSet) HasPermission(name string) bool {
	_, ok := p[name]
	return ok
}

// Codes returns the permission codes sorted
func (p PermissionSet) Codes() []string {
	codes := make([]string, 0, len(p))
	for c := range p {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

type transitionRule struct {
	action     Action
	permission string
	from       []model.OrderStatus
	to         model.OrderStatus
	needsNotes bool
	terminal   bool // ends the order; allowed even without items
}

// rules is the complete transition table, in the order actions are offered.
var rules = []transitionRule{
	{action: ActionApprove, permission: PermOrdersApprove, from: []model.OrderStatus{model.OrderStatusPending}, to: model.OrderStatusApproved},
	{action: ActionReject, permission: PermOrdersApprove, from: []model.OrderStatus{model.OrderStatusPending}, to: model.OrderStatusRejected, needsNotes: true, terminal: true},
	{action: ActionStartProduction, permission: PermOrdersUpdate, from: []model.OrderStatus{model.OrderStatusApproved}, to: model.OrderStatusProcessing},
	{action: ActionMarkReady, permission: PermOrdersUpdate, from: []model.OrderStatus{model.OrderStatusProcessing}, to: model.OrderStatusReady},
	{action: ActionDispatch, permission: PermOrdersUpdate, from: []model.OrderStatus{model.OrderStatusReady}, to: model.OrderStatusDispatched},
	{action: ActionMarkDelivered, permission: PermOrdersUpdate, from: []model.OrderStatus{model.OrderStatusDispatched}, to: model.OrderStatusDelivered},
	{action: ActionComplete, permission: PermOrdersUpdate, from: []model.OrderStatus{model.OrderStatusDelivered}, to: model.OrderStatusCompleted},
	{action: ActionCancel, permission: PermOrdersUpdate, from: []model.OrderStatus{model.OrderStatusPending, model.OrderStatusApproved, model.OrderStatusProcessing}, to: model.OrderStatusCancelled, terminal: true},
}

func (r transitionRule) allows(status model.OrderStatus) bool {
	for _, s := range r.from {
		if s == status {
			return true
		}
	}
	return false
}

func ruleFor(action Action) (transitionRule, bool) {
	for _, r := range rules {
		if r.action == action {
			return r, true
		}
	}
	return transitionRule{}, false
}

// Actions lists every known action in table order
func Actions() []Action {
	out := make([]Action, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.action)
	}
	return out
}

// ParseAction maps a request string onto a known action
func ParseAction(s string) (Action, error) {
	if _, ok := ruleFor(Action(s)); ok {
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, s)
}

// RequiredPermission returns the permission code an action needs
func RequiredPermission(action Action) (string, bool) {
	r, ok := ruleFor(action)
	return r.permission, ok
}

// Transition validates action against the order's current status and the
// caller's permissions and returns a copy of o in the resulting status.
// Checks run in order: permission, source status, notes, items.
func Transition(o model.Order, action Action, perms PermissionChecker, notes string) (model.Order, error) {
	r, ok := ruleFor(action)
	if !ok {
		return model.Order{}, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
	if perms == nil || !perms.HasPermission(r.permission) {
		return model.Order{}, fmt.Errorf("%w: %s requires %s", ErrPermissionDenied, action, r.permission)
	}
	if !r.allows(o.Status) {
		return model.Order{}, fmt.Errorf("%w: cannot %s an order that is %s", ErrInvalidTransition, action, o.Status)
	}
	notes = strings.TrimSpace(notes)
	if r.needsNotes && notes == "" {
		return model.Order{}, fmt.Errorf("%w: %s needs a reason", ErrMissingNotes, action)
	}
	if !r.terminal && len(o.Items) == 0 {
		return model.Order{}, fmt.Errorf("%w: cannot %s", ErrEmptyOrder, action)
	}

	next := Clone(o)
	next.Status = r.to
	if notes != "" {
		next.Notes = notes
	}
	return next, nil
}

// AvailableActions returns the actions the caller may offer for o, in table order.
func AvailableActions(o model.Order, perms PermissionChecker) []Action {
	if perms == nil {
		return nil
	}
	var out []Action
	for _, r := range rules {
		if !r.allows(o.Status) || !perms.HasPermission(r.permission) {
			continue
		}
		if !r.terminal && len(o.Items) == 0 {
			continue
		}
		out = append(out, r.action)
	}
	return out
}

// IsTerminal reports whether no further action can move the order
func IsTerminal(status model.OrderStatus) bool {
	for _, r := range rules {
		if r.allows(status) {
			return false
		}
	}
	return true
}

// IsEditable reports whether the order's items and pricing inputs may still change
func IsEditable(status model.OrderStatus) bool {
	return status == model.OrderStatusPending || status == model.OrderStatusApproved
}

// Clone returns a copy of o that shares no item storage with it
func Clone(o model.Order) model.Order {
	next := o
	if o.Items != nil {
		next.Items = make([]model.OrderItem, len(o.Items))
		copy(next.Items, o.Items)
	}
	return next
}
