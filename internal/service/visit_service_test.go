package service

import (
	"context"
	"testing"
	"time"

	"millorders/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visitFixture struct {
	svc      *visitService
	visits   *fakeVisitRepo
	audit    *fakeAuditRepo
	customer model.Customer
}

func newVisitFixture() *visitFixture {
	customer := model.Customer{ID: uuid.New(), Name: "Gupta Stores", City: "Indore"}
	f := &visitFixture{visits: newFakeVisitRepo(), audit: &fakeAuditRepo{}, customer: customer}
	svc := NewVisitService(f.visits, newFakeCustomerRepo(customer), f.audit, fakeTx{}, quietLogger()).(*visitService)
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func floatPtr(v float64) *float64 { return &v }

func TestCreateVisit_DefaultsToActor(t *testing.T) {
	f := newVisitFixture()
	actor := Actor{UserID: uuid.New(), Role: model.RoleSales}

	resp, err := f.svc.CreateVisit(context.Background(), actor, CreateVisitRequest{
		CustomerID: f.customer.ID.String(),
		Purpose:    " collect payment ",
	})
	require.NoError(t, err)

	assert.Equal(t, model.VisitStatusPending, resp.Status)
	assert.Equal(t, "collect payment", resp.Purpose)
	assert.Equal(t, fixedNow.Format(time.RFC3339), resp.ScheduledAt)
	require.NotNil(t, resp.AssignedTo)
	assert.Equal(t, actor.UserID.String(), *resp.AssignedTo)
	assert.Equal(t, []string{}, resp.ImageURLs)
	assert.Equal(t, []string{model.ActionCreateVisit}, f.audit.actions())
}

func TestCreateVisit_Rejects(t *testing.T) {
	f := newVisitFixture()
	actor := Actor{UserID: uuid.New()}

	_, err := f.svc.CreateVisit(context.Background(), actor, CreateVisitRequest{CustomerID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = f.svc.CreateVisit(context.Background(), actor, CreateVisitRequest{CustomerID: f.customer.ID.String(), ScheduledAt: "tomorrow"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateVisit(context.Background(), actor, CreateVisitRequest{CustomerID: f.customer.ID.String(), OrderID: "ord-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.visits.visits)
}

func TestUpdateVisitStatus_Lifecycle(t *testing.T) {
	f := newVisitFixture()
	actor := Actor{UserID: uuid.New()}
	created, err := f.svc.CreateVisit(context.Background(), actor, CreateVisitRequest{CustomerID: f.customer.ID.String()})
	require.NoError(t, err)

	_, err = f.svc.UpdateVisitStatus(context.Background(), actor, created.ID, UpdateVisitStatusRequest{Action: VisitActionComplete})
	assert.ErrorIs(t, err, ErrInvalidVisitTransition, "cannot complete before starting")

	started, err := f.svc.UpdateVisitStatus(context.Background(), actor, created.ID, UpdateVisitStatusRequest{
		Action:    VisitActionStart,
		Latitude:  floatPtr(22.7196),
		Longitude: floatPtr(75.8577),
	})
	require.NoError(t, err)
	assert.Equal(t, model.VisitStatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.Equal(t, 22.7196, *started.Latitude)

	done, err := f.svc.UpdateVisitStatus(context.Background(), actor, created.ID, UpdateVisitStatusRequest{
		Action:    VisitActionComplete,
		ImageURLs: []string{"https://cdn.example.com/shelf.jpg", " ", "http://cdn.example.com/bill.jpg"},
		Notes:     "order taken",
	})
	require.NoError(t, err)
	assert.Equal(t, model.VisitStatusCompleted, done.Status)
	assert.Equal(t, []string{"https://cdn.example.com/shelf.jpg", "http://cdn.example.com/bill.jpg"}, done.ImageURLs)
	assert.Equal(t, "order taken", done.Notes)
	assert.Equal(t, 75.8577, *done.Longitude, "location survives later updates")

	_, err = f.svc.UpdateVisitStatus(context.Background(), actor, created.ID, UpdateVisitStatusRequest{Action: VisitActionCancel})
	assert.ErrorIs(t, err, ErrInvalidVisitTransition)

	assert.Equal(t, []string{model.ActionCreateVisit, model.ActionUpdateVisit, model.ActionUpdateVisit}, f.audit.actions())
}

func TestUpdateVisitStatus_BadInput(t *testing.T) {
	f := newVisitFixture()
	actor := Actor{UserID: uuid.New()}
	created, err := f.svc.CreateVisit(context.Background(), actor, CreateVisitRequest{CustomerID: f.customer.ID.String()})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  UpdateVisitStatusRequest
		want error
	}{
		{"unknown action", UpdateVisitStatusRequest{Action: "snooze"}, ErrInvalidVisitTransition},
		{"latitude alone", UpdateVisitStatusRequest{Action: VisitActionStart, Latitude: floatPtr(10)}, ErrInvalidInput},
		{"latitude out of range", UpdateVisitStatusRequest{Action: VisitActionStart, Latitude: floatPtr(91), Longitude: floatPtr(0)}, ErrInvalidInput},
		{"longitude out of range", UpdateVisitStatusRequest{Action: VisitActionStart, Latitude: floatPtr(0), Longitude: floatPtr(-181)}, ErrInvalidInput},
		{"ftp image", UpdateVisitStatusRequest{Action: VisitActionStart, ImageURLs: []string{"ftp://host/a.jpg"}}, ErrInvalidInput},
		{"relative image", UpdateVisitStatusRequest{Action: VisitActionStart, ImageURLs: []string{"/uploads/a.jpg"}}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateVisitStatus(context.Background(), actor, created.ID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = f.svc.UpdateVisitStatus(context.Background(), actor, uuid.NewString(), UpdateVisitStatusRequest{Action: VisitActionStart})
	assert.ErrorIs(t, err, ErrVisitNotFound)

	stored, err := f.svc.GetVisit(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VisitStatusPending, stored.Status)
}

func TestListVisits_FiltersByAssignee(t *testing.T) {
	f := newVisitFixture()
	alice := Actor{UserID: uuid.New()}
	bob := Actor{UserID: uuid.New()}
	for _, a := range []Actor{alice, alice, bob} {
		_, err := f.svc.CreateVisit(context.Background(), a, CreateVisitRequest{CustomerID: f.customer.ID.String()})
		require.NoError(t, err)
	}

	got, total, err := f.svc.ListVisits(context.Background(), VisitFilter{AssignedTo: alice.UserID.String()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, got, 2)

	_, _, err = f.svc.ListVisits(context.Background(), VisitFilter{CustomerID: "bad"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
