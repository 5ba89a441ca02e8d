package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"millorders/internal/model"
	"millorders/internal/repository"
)

type AuditLogResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Username   string          `json:"username"`
	Action     string          `json:"action"`
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

// AuditQuery selects a page of the audit trail
type AuditQuery struct {
	EntityID string
	Action   string
	Page     int
	Limit    int
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, q AuditQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

var auditActions = map[string]bool{
	model.ActionCreateOrder:      true,
	model.ActionCreateQuickOrder: true,
	model.ActionUpdateOrder:      true,
	model.ActionTransitionOrder:  true,
	model.ActionRecordPayment:    true,
	model.ActionMarkOverdue:      true,
	model.ActionCreateCustomer:   true,
	model.ActionCreateVisit:      true,
	model.ActionUpdateVisit:      true,
}

// GetAuditLogs returns the trail newest first. Rows written by scheduled
// jobs have no user and are attributed to "System".
func (s *auditService) GetAuditLogs(ctx context.Context, q AuditQuery) ([]AuditLogResponse, int64, error) {
	if q.Action != "" && !auditActions[q.Action] {
		return nil, 0, fmt.Errorf("%w: unknown audit action %q", ErrInvalidInput, q.Action)
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	logs, total, err := s.repo.List(ctx, repository.AuditFilter{
		EntityID: q.EntityID,
		Action:   q.Action,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		entry := AuditLogResponse{
			ID:         l.ID.String(),
			Username:   "System",
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			CreatedAt:  l.CreatedAt.UTC().Format(time.RFC3339),
		}
		if l.UserID != nil {
			entry.UserID = l.UserID.String()
		}
		if l.User != nil {
			entry.Username = l.User.Username
		}
		if l.Details != "" && json.Valid([]byte(l.Details)) {
			entry.Details = json.RawMessage(l.Details)
		}
		res = append(res, entry)
	}
	return res, total, nil
}
