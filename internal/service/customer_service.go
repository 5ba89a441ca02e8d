package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"millorders/internal/model"
	"millorders/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CustomerAddressInput struct {
	AddressType string `json:"address_type" binding:"required,oneof=BILLING SHIPPING"`
	FullAddress string `json:"full_address" binding:"required"`
	IsDefault   bool   `json:"is_default"`
}

type CreateCustomerRequest struct {
	Name                string                 `json:"name" binding:"required"`
	ShopName            string                 `json:"shop_name"`
	Phone               string                 `json:"phone"`
	Email               string                 `json:"email" binding:"omitempty,email"`
	GSTIN               string                 `json:"gstin"`
	City                string                 `json:"city"`
	Area                string                 `json:"area"`
	DefaultPaymentTerms string                 `json:"default_payment_terms"`
	PaymentTermsDays    int                    `json:"payment_terms_days"`
	Addresses           []CustomerAddressInput `json:"addresses"`
}

type CustomerAddressResponse struct {
	ID          string `json:"id"`
	AddressType string `json:"address_type"`
	FullAddress string `json:"full_address"`
	IsDefault   bool   `json:"is_default"`
}

type CustomerResponse struct {
	ID                  string                    `json:"id"`
	Name                string                    `json:"name"`
	ShopName            string                    `json:"shop_name"`
	Phone               string                    `json:"phone"`
	Email               string                    `json:"email"`
	GSTIN               string                    `json:"gstin"`
	City                string                    `json:"city"`
	Area                string                    `json:"area"`
	DefaultPaymentTerms string                    `json:"default_payment_terms"`
	PaymentTermsDays    int                       `json:"payment_terms_days"`
	IsActive            bool                      `json:"is_active"`
	Addresses           []CustomerAddressResponse `json:"addresses"`
	CreatedAt           string                    `json:"created_at"`
}

// --- Interface ---

type CustomerService interface {
	CreateCustomer(ctx context.Context, actor Actor, req CreateCustomerRequest) (CustomerResponse, error)
	GetCustomer(ctx context.Context, id string) (CustomerResponse, error)
	ListCustomers(ctx context.Context, search, city string, page, limit int) ([]CustomerResponse, int64, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(customerRepo repository.CustomerRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) CustomerService {
	return &customerService{customerRepo: customerRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *customerService) CreateCustomer(ctx context.Context, actor Actor, req CreateCustomerRequest) (CustomerResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return CustomerResponse{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if req.PaymentTermsDays < 0 {
		return CustomerResponse{}, fmt.Errorf("%w: payment_terms_days must not be negative", ErrInvalidInput)
	}

	customer := model.Customer{
		Name:                strings.TrimSpace(req.Name),
		ShopName:            strings.TrimSpace(req.ShopName),
		Phone:               strings.TrimSpace(req.Phone),
		Email:               strings.TrimSpace(req.Email),
		GSTIN:               strings.ToUpper(strings.TrimSpace(req.GSTIN)),
		City:                strings.TrimSpace(req.City),
		Area:                strings.TrimSpace(req.Area),
		DefaultPaymentTerms: strings.TrimSpace(req.DefaultPaymentTerms),
		PaymentTermsDays:    req.PaymentTermsDays,
		IsActive:            true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.customerRepo.Create(txCtx, &customer); err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}

		addresses := make([]model.CustomerAddress, 0, len(req.Addresses))
		for _, a := range req.Addresses {
			addresses = append(addresses, model.CustomerAddress{
				CustomerID:  customer.ID,
				AddressType: a.AddressType,
				FullAddress: strings.TrimSpace(a.FullAddress),
				IsDefault:   a.IsDefault,
			})
		}
		if err := s.customerRepo.CreateAddresses(txCtx, addresses); err != nil {
			return fmt.Errorf("failed to create customer addresses: %w", err)
		}
		customer.Addresses = addresses

		details, _ := json.Marshal(map[string]interface{}{
			"city": customer.City,
			"area": customer.Area,
		})
		entry := model.AuditLog{
			Action:     model.ActionCreateCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    string(details),
		}
		if actor.UserID != uuid.Nil {
			uid := actor.UserID
			entry.UserID = &uid
		}
		if err := s.auditRepo.Log(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return CustomerResponse{}, err
	}

	return toCustomerResponse(customer), nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (CustomerResponse, error) {
	customerID, err := parseID(id)
	if err != nil {
		return CustomerResponse{}, err
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return CustomerResponse{}, mapNotFound(err, ErrCustomerNotFound)
	}
	return toCustomerResponse(*customer), nil
}

func (s *customerService) ListCustomers(ctx context.Context, search, city string, page, limit int) ([]CustomerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	customers, total, err := s.customerRepo.List(ctx, strings.TrimSpace(search), strings.TrimSpace(city), page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customers: %w", err)
	}

	result := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		result = append(result, toCustomerResponse(c))
	}
	return result, total, nil
}

func toCustomerResponse(c model.Customer) CustomerResponse {
	resp := CustomerResponse{
		ID:                  c.ID.String(),
		Name:                c.Name,
		ShopName:            c.ShopName,
		Phone:               c.Phone,
		Email:               c.Email,
		GSTIN:               c.GSTIN,
		City:                c.City,
		Area:                c.Area,
		DefaultPaymentTerms: c.DefaultPaymentTerms,
		PaymentTermsDays:    c.PaymentTermsDays,
		IsActive:            c.IsActive,
		Addresses:           make([]CustomerAddressResponse, 0, len(c.Addresses)),
		CreatedAt:           c.CreatedAt.Format(time.RFC3339),
	}
	for _, a := range c.Addresses {
		resp.Addresses = append(resp.Addresses, CustomerAddressResponse{
			ID:          a.ID.String(),
			AddressType: a.AddressType,
			FullAddress: a.FullAddress,
			IsDefault:   a.IsDefault,
		})
	}
	return resp
}
