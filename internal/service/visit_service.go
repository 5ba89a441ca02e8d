package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"millorders/internal/model"
	"millorders/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Visit actions
const (
	VisitActionStart    = "start"
	VisitActionComplete = "complete"
	VisitActionCancel   = "cancel"
)

var visitTransitions = map[string]struct {
	from []model.VisitStatus
	to   model.VisitStatus
}{
	VisitActionStart:    {from: []model.VisitStatus{model.VisitStatusPending}, to: model.VisitStatusInProgress},
	VisitActionComplete: {from: []model.VisitStatus{model.VisitStatusInProgress}, to: model.VisitStatusCompleted},
	VisitActionCancel:   {from: []model.VisitStatus{model.VisitStatusPending, model.VisitStatusInProgress}, to: model.VisitStatusCancelled},
}

// --- DTOs ---

type CreateVisitRequest struct {
	CustomerID  string `json:"customer_id" binding:"required"`
	OrderID     string `json:"order_id"`
	AssignedTo  string `json:"assigned_to"`
	Purpose     string `json:"purpose"`
	ScheduledAt string `json:"scheduled_at"` // RFC3339, defaults to now
	Notes       string `json:"notes"`
}

// UpdateVisitStatusRequest moves a visit and optionally records where it happened
type UpdateVisitStatusRequest struct {
	Action    string   `json:"action" binding:"required,oneof=start complete cancel"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	ImageURLs []string `json:"image_urls"`
	Notes     string   `json:"notes"`
}

type VisitFilter struct {
	Status     string
	CustomerID string
	AssignedTo string
	Page       int
	Limit      int
}

type VisitResponse struct {
	ID           string            `json:"id"`
	CustomerID   string            `json:"customer_id"`
	CustomerName string            `json:"customer_name"`
	OrderID      *string           `json:"order_id"`
	AssignedTo   *string           `json:"assigned_to"`
	Purpose      string            `json:"purpose"`
	Status       model.VisitStatus `json:"status"`
	ScheduledAt  string            `json:"scheduled_at"`
	StartedAt    *string           `json:"started_at"`
	CompletedAt  *string           `json:"completed_at"`
	Latitude     *float64          `json:"latitude"`
	Longitude    *float64          `json:"longitude"`
	ImageURLs    []string          `json:"image_urls"`
	Notes        string            `json:"notes"`
	CreatedAt    string            `json:"created_at"`
}

// --- Interface ---

type VisitService interface {
	CreateVisit(ctx context.Context, actor Actor, req CreateVisitRequest) (VisitResponse, error)
	GetVisit(ctx context.Context, id string) (VisitResponse, error)
	ListVisits(ctx context.Context, filter VisitFilter) ([]VisitResponse, int64, error)
	UpdateVisitStatus(ctx context.Context, actor Actor, id string, req UpdateVisitStatusRequest) (VisitResponse, error)
}

type visitService struct {
	visitRepo    repository.VisitRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	log          *logrus.Logger
	now          func() time.Time
}

func NewVisitService(
	visitRepo repository.VisitRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	logger *logrus.Logger,
) VisitService {
	return &visitService{
		visitRepo:    visitRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		log:          logger,
		now:          time.Now,
	}
}

func (s *visitService) CreateVisit(ctx context.Context, actor Actor, req CreateVisitRequest) (VisitResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return VisitResponse{}, fmt.Errorf("%w: customer_id %q", ErrInvalidInput, req.CustomerID)
	}
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return VisitResponse{}, mapNotFound(err, ErrCustomerNotFound)
	}

	visit := model.Visit{
		CustomerID:  customerID,
		Purpose:     strings.TrimSpace(req.Purpose),
		Status:      model.VisitStatusPending,
		ScheduledAt: s.now(),
		Notes:       strings.TrimSpace(req.Notes),
	}

	if req.ScheduledAt != "" {
		scheduled, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return VisitResponse{}, fmt.Errorf("%w: scheduled_at must be RFC3339", ErrInvalidInput)
		}
		visit.ScheduledAt = scheduled
	}
	if req.OrderID != "" {
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			return VisitResponse{}, fmt.Errorf("%w: order_id %q", ErrInvalidInput, req.OrderID)
		}
		visit.OrderID = &orderID
	}

	switch {
	case req.AssignedTo != "":
		assignee, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			return VisitResponse{}, fmt.Errorf("%w: assigned_to %q", ErrInvalidInput, req.AssignedTo)
		}
		visit.AssignedTo = &assignee
	case actor.UserID != uuid.Nil:
		assignee := actor.UserID
		visit.AssignedTo = &assignee
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.visitRepo.Create(txCtx, &visit); err != nil {
			return fmt.Errorf("failed to create visit: %w", err)
		}
		return s.writeAudit(txCtx, actor, model.ActionCreateVisit, visit, map[string]interface{}{
			"customer_id":  visit.CustomerID.String(),
			"scheduled_at": visit.ScheduledAt.Format(time.RFC3339),
		})
	})
	if err != nil {
		return VisitResponse{}, err
	}

	return s.GetVisit(ctx, visit.ID.String())
}

func (s *visitService) GetVisit(ctx context.Context, id string) (VisitResponse, error) {
	visitID, err := parseID(id)
	if err != nil {
		return VisitResponse{}, err
	}
	visit, err := s.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		return VisitResponse{}, mapNotFound(err, ErrVisitNotFound)
	}
	return toVisitResponse(*visit), nil
}

func (s *visitService) ListVisits(ctx context.Context, filter VisitFilter) ([]VisitResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.VisitListFilter{Status: filter.Status, Page: filter.Page, Limit: filter.Limit}
	if filter.CustomerID != "" {
		id, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: customer_id %q", ErrInvalidInput, filter.CustomerID)
		}
		repoFilter.CustomerID = &id
	}
	if filter.AssignedTo != "" {
		id, err := uuid.Parse(filter.AssignedTo)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: assigned_to %q", ErrInvalidInput, filter.AssignedTo)
		}
		repoFilter.AssignedTo = &id
	}

	visits, total, err := s.visitRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch visits: %w", err)
	}

	result := make([]VisitResponse, 0, len(visits))
	for _, v := range visits {
		result = append(result, toVisitResponse(v))
	}
	return result, total, nil
}

func (s *visitService) UpdateVisitStatus(ctx context.Context, actor Actor, id string, req UpdateVisitStatusRequest) (VisitResponse, error) {
	visitID, err := parseID(id)
	if err != nil {
		return VisitResponse{}, err
	}

	rule, ok := visitTransitions[req.Action]
	if !ok {
		return VisitResponse{}, fmt.Errorf("%w: unknown action %q", ErrInvalidVisitTransition, req.Action)
	}
	if err := validateLocation(req.Latitude, req.Longitude); err != nil {
		return VisitResponse{}, err
	}
	images, err := cleanImageURLs(req.ImageURLs)
	if err != nil {
		return VisitResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		visit, findErr := s.visitRepo.FindByIDForUpdate(txCtx, visitID)
		if findErr != nil {
			return mapNotFound(findErr, ErrVisitNotFound)
		}

		allowed := false
		for _, from := range rule.from {
			if visit.Status == from {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: cannot %s a %s visit", ErrInvalidVisitTransition, req.Action, visit.Status)
		}

		from := visit.Status
		now := s.now()
		visit.Status = rule.to
		switch rule.to {
		case model.VisitStatusInProgress:
			visit.StartedAt = &now
		case model.VisitStatusCompleted:
			visit.CompletedAt = &now
		}
		if req.Latitude != nil {
			visit.Latitude = req.Latitude
			visit.Longitude = req.Longitude
		}
		if len(images) > 0 {
			visit.ImageURLs = strings.Join(append(splitImageURLs(visit.ImageURLs), images...), "\n")
		}
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			visit.Notes = notes
		}

		if saveErr := s.visitRepo.Update(txCtx, visit); saveErr != nil {
			return fmt.Errorf("failed to update visit: %w", saveErr)
		}
		return s.writeAudit(txCtx, actor, model.ActionUpdateVisit, *visit, map[string]interface{}{
			"action": req.Action,
			"from":   string(from),
			"to":     string(visit.Status),
		})
	})
	if err != nil {
		return VisitResponse{}, err
	}

	s.log.WithFields(logrus.Fields{"visit_id": visitID, "action": req.Action}).Info("Visit updated")
	return s.GetVisit(ctx, visitID.String())
}

// validateLocation requires both coordinates together and in range
func validateLocation(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return fmt.Errorf("%w: latitude and longitude must be sent together", ErrInvalidInput)
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidInput, *lat)
	}
	if *lng < -180 || *lng > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidInput, *lng)
	}
	return nil
}

func cleanImageURLs(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		u, err := url.Parse(r)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: image url %q", ErrInvalidInput, r)
		}
		out = append(out, r)
	}
	return out, nil
}

func splitImageURLs(stored string) []string {
	if stored == "" {
		return nil
	}
	return strings.Split(stored, "\n")
}

func (s *visitService) writeAudit(ctx context.Context, actor Actor, action string, v model.Visit, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	entry := model.AuditLog{
		Action:     action,
		EntityID:   v.ID.String(),
		EntityName: "visit",
		Details:    string(payload),
	}
	if actor.UserID != uuid.Nil {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if err := s.auditRepo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toVisitResponse(v model.Visit) VisitResponse {
	resp := VisitResponse{
		ID:          v.ID.String(),
		CustomerID:  v.CustomerID.String(),
		Purpose:     v.Purpose,
		Status:      v.Status,
		ScheduledAt: v.ScheduledAt.Format(time.RFC3339),
		StartedAt:   formatTime(v.StartedAt),
		CompletedAt: formatTime(v.CompletedAt),
		Latitude:    v.Latitude,
		Longitude:   v.Longitude,
		ImageURLs:   splitImageURLs(v.ImageURLs),
		Notes:       v.Notes,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}
	if v.Customer != nil {
		resp.CustomerName = v.Customer.Name
	}
	if v.OrderID != nil {
		s := v.OrderID.String()
		resp.OrderID = &s
	}
	if v.AssignedTo != nil {
		s := v.AssignedTo.String()
		resp.AssignedTo = &s
	}
	return resp
}
