package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"millorders/internal/events"
	"millorders/internal/metrics"
	"millorders/internal/model"
	"millorders/internal/order"
	"millorders/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID uuid.UUID
	Role   string
	Perms  order.PermissionChecker
}

type OrderItemInput struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       string `json:"quantity"`
	Unit           string `json:"unit"`
	RatePerUnit    string `json:"rate_per_unit"`
	Packaging      string `json:"packaging"`
	IsBagSelection bool   `json:"is_bag_selection"`
	BagPieces      int    `json:"bag_pieces"`
}

type OrderPricingInput struct {
	DiscountPercentage string `json:"discount_percentage"`
	DiscountFixed      string `json:"discount_fixed"`
	IsTaxable          bool   `json:"is_taxable"`
	TaxPercentage      string `json:"tax_percentage"` // empty = active GST rule when taxable
}

type CreateOrderRequest struct {
	CustomerID       string           `json:"customer_id"`
	PaymentTerms     string           `json:"payment_terms"`
	PaymentTermsDays *int             `json:"payment_terms_days"`
	Notes            string           `json:"notes"`
	Items            []OrderItemInput `json:"items"`
	OrderPricingInput
}

// QuickOrderLine picks a catalog product; name, unit and rate come from the catalog
type QuickOrderLine struct {
	ProductID      string `json:"product_id" binding:"required"`
	Quantity       string `json:"quantity"`
	Packaging      string `json:"packaging"`
	IsBagSelection bool   `json:"is_bag_selection"`
	BagPieces      int    `json:"bag_pieces"`
}

type CreateQuickOrderRequest struct {
	CustomerID       string           `json:"customer_id"`
	PaymentTerms     string           `json:"payment_terms"`
	PaymentTermsDays *int             `json:"payment_terms_days"`
	Notes            string           `json:"notes"`
	Lines            []QuickOrderLine `json:"lines"`
	OrderPricingInput
}

// UpdateOrderRequest patches an editable order; nil fields are left unchanged
type UpdateOrderRequest struct {
	PaymentTerms       *string           `json:"payment_terms"`
	PaymentTermsDays   *int              `json:"payment_terms_days"`
	Notes              *string           `json:"notes"`
	DiscountPercentage *string           `json:"discount_percentage"`
	DiscountFixed      *string           `json:"discount_fixed"`
	IsTaxable          *bool             `json:"is_taxable"`
	TaxPercentage      *string           `json:"tax_percentage"`
	Items              *[]OrderItemInput `json:"items"`
}

type TransitionOrderRequest struct {
	Action string `json:"action" binding:"required"`
	Notes  string `json:"notes"`
}

type RecordPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type OrderFilter struct {
	Status        string
	PaymentStatus string
	CustomerID    string
	Search        string
	Page          int
	Limit         int
}

type OrderItemResponse struct {
	ID             string  `json:"id"`
	Position       int     `json:"position"`
	ProductID      *string `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Quantity       string  `json:"quantity"`
	Unit           string  `json:"unit"`
	RatePerUnit    string  `json:"rate_per_unit"`
	TotalAmount    string  `json:"total_amount"`
	Packaging      string  `json:"packaging"`
	IsBagSelection bool    `json:"is_bag_selection"`
	BagPieces      int     `json:"bag_pieces"`
}

type OrderResponse struct {
	ID                 string              `json:"id"`
	OrderNumber        string              `json:"order_number"`
	Source             string              `json:"source"`
	CustomerID         string              `json:"customer_id"`
	CustomerName       string              `json:"customer_name"`
	Status             model.OrderStatus   `json:"status"`
	PaymentStatus      model.PaymentStatus `json:"payment_status"`
	PaymentTerms       string              `json:"payment_terms"`
	PaymentTermsDays   int                 `json:"payment_terms_days"`
	Items              []OrderItemResponse `json:"items"`
	Subtotal           string              `json:"subtotal"`
	DiscountPercentage string              `json:"discount_percentage"`
	DiscountFixed      string              `json:"discount_fixed"`
	Discount           string              `json:"discount"`
	IsTaxable          bool                `json:"is_taxable"`
	TaxPercentage      string              `json:"tax_percentage"`
	TaxAmount          string              `json:"tax_amount"`
	TotalAmount        string              `json:"total_amount"`
	PaidAmount         string              `json:"paid_amount"`
	Outstanding        string              `json:"outstanding"`
	Notes              string              `json:"notes"`
	DueDate            *string             `json:"due_date"`
	ApprovedBy         *string             `json:"approved_by"`
	ApprovedAt         *string             `json:"approved_at"`
	DeliveredAt        *string             `json:"delivered_at"`
	AvailableActions   []order.Action      `json:"available_actions"`
	CreatedAt          string              `json:"created_at"`
	UpdatedAt          string              `json:"updated_at"`
}

// --- Interface ---

type OrderService interface {
	GetOrder(ctx context.Context, actor Actor, id string) (OrderResponse, error)
	ListOrders(ctx context.Context, actor Actor, filter OrderFilter) ([]OrderResponse, int64, error)
	CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (OrderResponse, error)
	CreateQuickOrder(ctx context.Context, actor Actor, req CreateQuickOrderRequest) (OrderResponse, error)
	UpdateOrder(ctx context.Context, actor Actor, id string, req UpdateOrderRequest) (OrderResponse, error)
	TransitionOrder(ctx context.Context, actor Actor, id string, req TransitionOrderRequest) (OrderResponse, error)
	RecordPayment(ctx context.Context, actor Actor, id string, req RecordPaymentRequest) (OrderResponse, error)
	AvailableActions(ctx context.Context, actor Actor, id string) ([]order.Action, error)
	MarkOverduePayments(ctx context.Context, now time.Time) (int, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	taxRuleRepo  repository.TaxRuleRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	publisher    events.Publisher
	log          *logrus.Logger
	now          func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	taxRuleRepo repository.TaxRuleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	logger *logrus.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		taxRuleRepo:  taxRuleRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		publisher:    publisher,
		log:          logger,
		now:          time.Now,
	}
}

// --- Reads ---

func (s *orderService) GetOrder(ctx context.Context, actor Actor, id string) (OrderResponse, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(*o, actor.Perms), nil
}

func (s *orderService) ListOrders(ctx context.Context, actor Actor, filter OrderFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.OrderListFilter{
		Status:        filter.Status,
		PaymentStatus: filter.PaymentStatus,
		Search:        strings.TrimSpace(filter.Search),
		Page:          filter.Page,
		Limit:         filter.Limit,
	}
	if filter.CustomerID != "" {
		customerID, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: customer_id %q", ErrInvalidInput, filter.CustomerID)
		}
		repoFilter.CustomerID = &customerID
	}

	orders, total, err := s.orderRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	result := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, toOrderResponse(o, actor.Perms))
	}
	return result, total, nil
}

func (s *orderService) AvailableActions(ctx context.Context, actor Actor, id string) ([]order.Action, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	actions := order.AvailableActions(*o, actor.Perms)
	if actions == nil {
		actions = []order.Action{}
	}
	return actions, nil
}

// --- Writes ---

func (s *orderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (OrderResponse, error) {
	customer, err := s.lookupCustomer(ctx, req.CustomerID)
	if err != nil {
		return OrderResponse{}, err
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	for i, in := range req.Items {
		it, err := itemFromInput(in)
		if err != nil {
			return OrderResponse{}, fmt.Errorf("item %d: %w", i+1, err)
		}
		items = append(items, order.NormalizeItem(it))
	}

	o, taxGiven, err := s.newOrder(customer, req.PaymentTerms, req.PaymentTermsDays, req.Notes, req.OrderPricingInput)
	if err != nil {
		return OrderResponse{}, err
	}
	o.Source = model.OrderSourceItemized
	o.Items = items

	return s.create(ctx, actor, o, taxGiven, model.ActionCreateOrder)
}

func (s *orderService) CreateQuickOrder(ctx context.Context, actor Actor, req CreateQuickOrderRequest) (OrderResponse, error) {
	customer, err := s.lookupCustomer(ctx, req.CustomerID)
	if err != nil {
		return OrderResponse{}, err
	}

	ids := make([]uuid.UUID, 0, len(req.Lines))
	for i, line := range req.Lines {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			return OrderResponse{}, fmt.Errorf("line %d: %w: product_id %q", i+1, ErrInvalidInput, line.ProductID)
		}
		ids = append(ids, id)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]model.OrderItem, 0, len(req.Lines))
	for i, line := range req.Lines {
		p, ok := byID[ids[i]]
		if !ok || !p.IsActive {
			return OrderResponse{}, fmt.Errorf("line %d: %w: %s", i+1, ErrProductNotFound, ids[i])
		}
		if customer != nil && !ServesCustomer(p.Godown, *customer) {
			return OrderResponse{}, fmt.Errorf("line %d: %w: %s", i+1, ErrProductUnavailable, p.Name)
		}

		qty, err := parseDecimal("quantity", line.Quantity)
		if err != nil {
			return OrderResponse{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		productID := p.ID
		items = append(items, order.NormalizeItem(model.OrderItem{
			ProductID:      &productID,
			ProductName:    p.Name,
			Quantity:       qty,
			Unit:           p.Unit,
			RatePerUnit:    p.RatePerUnit,
			Packaging:      line.Packaging,
			IsBagSelection: line.IsBagSelection,
			BagPieces:      line.BagPieces,
		}))
	}

	o, taxGiven, err := s.newOrder(customer, req.PaymentTerms, req.PaymentTermsDays, req.Notes, req.OrderPricingInput)
	if err != nil {
		return OrderResponse{}, err
	}
	o.Source = model.OrderSourceQuick
	o.Items = items

	return s.create(ctx, actor, o, taxGiven, model.ActionCreateQuickOrder)
}

func (s *orderService) create(ctx context.Context, actor Actor, o model.Order, taxGiven bool, auditAction string) (OrderResponse, error) {
	if actor.UserID != uuid.Nil {
		createdBy := actor.UserID
		o.CreatedBy = &createdBy
	}

	o, err := s.prepare(ctx, o, !taxGiven)
	if err != nil {
		return OrderResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.generateOrderNumber(txCtx)
		if numErr != nil {
			return fmt.Errorf("failed to generate order number: %w", numErr)
		}
		o.OrderNumber = number

		if createErr := s.orderRepo.Create(txCtx, &o); createErr != nil {
			return fmt.Errorf("failed to create order: %w", createErr)
		}

		return s.writeAudit(txCtx, actor.UserID, auditAction, o, map[string]interface{}{
			"source":       o.Source,
			"customer_id":  o.CustomerID.String(),
			"items":        len(o.Items),
			"total_amount": o.TotalAmount.StringFixed(2),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"source":       o.Source,
	}).Info("Order created")
	s.publish(ctx, events.NewOrderEvent(events.TypeOrderCreated, o, "", actor.UserID))

	return s.reload(ctx, o.ID, actor)
}

func (s *orderService) UpdateOrder(ctx context.Context, actor Actor, id string, req UpdateOrderRequest) (OrderResponse, error) {
	orderID, err := parseID(id)
	if err != nil {
		return OrderResponse{}, err
	}

	var items []model.OrderItem
	if req.Items != nil {
		items = make([]model.OrderItem, 0, len(*req.Items))
		for i, in := range *req.Items {
			it, itemErr := itemFromInput(in)
			if itemErr != nil {
				return OrderResponse{}, fmt.Errorf("item %d: %w", i+1, itemErr)
			}
			items = append(items, order.NormalizeItem(it))
		}
	}

	var updated model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			return mapNotFound(findErr, ErrOrderNotFound)
		}
		if !order.IsEditable(current.Status) {
			return fmt.Errorf("%w: order is %s", ErrOrderLocked, current.Status)
		}

		next := order.Clone(*current)
		useGST, patchErr := applyPatch(&next, req)
		if patchErr != nil {
			return patchErr
		}
		if items != nil {
			next.Items = items
		}
		s.setDueDate(&next)

		prepared, prepErr := s.prepare(txCtx, next, useGST)
		if prepErr != nil {
			return prepErr
		}

		if saveErr := s.orderRepo.Update(txCtx, &prepared); saveErr != nil {
			return fmt.Errorf("failed to update order: %w", saveErr)
		}
		if items != nil {
			if itemsErr := s.orderRepo.ReplaceItems(txCtx, prepared.ID, prepared.Items); itemsErr != nil {
				return fmt.Errorf("failed to replace order items: %w", itemsErr)
			}
		}

		updated = prepared
		return s.writeAudit(txCtx, actor.UserID, model.ActionUpdateOrder, prepared, map[string]interface{}{
			"items_replaced": items != nil,
			"total_amount":   prepared.TotalAmount.StringFixed(2),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.publish(ctx, events.NewOrderEvent(events.TypeOrderUpdated, updated, "", actor.UserID))
	return s.reload(ctx, orderID, actor)
}

func (s *orderService) TransitionOrder(ctx context.Context, actor Actor, id string, req TransitionOrderRequest) (OrderResponse, error) {
	orderID, err := parseID(id)
	if err != nil {
		return OrderResponse{}, err
	}

	action, err := order.ParseAction(req.Action)
	if err != nil {
		metrics.RecordTransition("unknown", err)
		return OrderResponse{}, err
	}

	var from model.OrderStatus
	var next model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			return mapNotFound(findErr, ErrOrderNotFound)
		}
		from = current.Status

		var transErr error
		next, transErr = order.Transition(*current, action, actor.Perms, req.Notes)
		if transErr != nil {
			return transErr
		}

		now := s.now()
		switch next.Status {
		case model.OrderStatusApproved:
			approver := actor.UserID
			next.ApprovedBy = &approver
			next.ApprovedAt = &now
		case model.OrderStatusDelivered:
			next.DeliveredAt = &now
		}

		if saveErr := s.orderRepo.Update(txCtx, &next); saveErr != nil {
			return fmt.Errorf("failed to update order status: %w", saveErr)
		}

		return s.writeAudit(txCtx, actor.UserID, model.ActionTransitionOrder, next, map[string]interface{}{
			"action": string(action),
			"from":   string(from),
			"to":     string(next.Status),
			"notes":  strings.TrimSpace(req.Notes),
		})
	})
	metrics.RecordTransition(string(action), err)
	if err != nil {
		return OrderResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"action":   action,
		"from":     from,
		"status":   next.Status,
	}).Info("Order status changed")
	s.publish(ctx, events.NewOrderEvent(events.TypeOrderStatusChanged, next, string(action), actor.UserID))

	return s.reload(ctx, orderID, actor)
}

func (s *orderService) RecordPayment(ctx context.Context, actor Actor, id string, req RecordPaymentRequest) (OrderResponse, error) {
	orderID, err := parseID(id)
	if err != nil {
		return OrderResponse{}, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: amount %q", order.ErrInvalidPayment, req.Amount)
	}

	var paid model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, findErr := s.orderRepo.FindByIDForUpdate(txCtx, orderID)
		if findErr != nil {
			return mapNotFound(findErr, ErrOrderNotFound)
		}

		next, payErr := order.ApplyPayment(*current, amount)
		if payErr != nil {
			return payErr
		}

		if saveErr := s.orderRepo.Update(txCtx, &next); saveErr != nil {
			return fmt.Errorf("failed to record payment: %w", saveErr)
		}

		paid = next
		return s.writeAudit(txCtx, actor.UserID, model.ActionRecordPayment, next, map[string]interface{}{
			"amount":         amount.StringFixed(2),
			"paid_amount":    next.PaidAmount.StringFixed(2),
			"payment_status": string(next.PaymentStatus),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.publish(ctx, events.NewOrderEvent(events.TypeOrderPayment, paid, "", actor.UserID))
	return s.reload(ctx, orderID, actor)
}

// MarkOverduePayments flags unpaid orders whose due date has passed. Failures on
// one order are logged and do not stop the sweep.
func (s *orderService) MarkOverduePayments(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.orderRepo.ListOverdueCandidates(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue candidates: %w", err)
	}

	marked := 0
	var errs []error
	for _, o := range candidates {
		o := o
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if updErr := s.orderRepo.UpdatePaymentStatus(txCtx, o.ID, model.PaymentStatusOverdue); updErr != nil {
				return fmt.Errorf("failed to mark order %s overdue: %w", o.OrderNumber, updErr)
			}
			o.PaymentStatus = model.PaymentStatusOverdue
			return s.writeAudit(txCtx, uuid.Nil, model.ActionMarkOverdue, o, map[string]interface{}{
				"due_date":    o.DueDate,
				"outstanding": order.Outstanding(o).StringFixed(2),
			})
		})
		if err != nil {
			s.log.WithError(err).WithField("order_id", o.ID).Error("Overdue sweep failed for order")
			errs = append(errs, err)
			continue
		}
		marked++
		s.publish(ctx, events.NewOrderEvent(events.TypeOrderOverdue, o, "", uuid.Nil))
	}

	metrics.RecordOverdue(marked)
	if marked > 0 {
		s.log.WithField("count", marked).Info("Orders marked overdue")
	}
	return marked, errors.Join(errs...)
}

// --- Helpers ---

// prepare validates a normalized order and returns its recalculated snapshot.
// useGST fills a zero tax percentage from the active GST rule.
func (s *orderService) prepare(ctx context.Context, o model.Order, useGST bool) (model.Order, error) {
	if err := order.ValidateOrder(o).Err(); err != nil {
		return model.Order{}, err
	}

	if o.IsTaxable && useGST && o.TaxPercentage.IsZero() {
		rule, err := s.taxRuleRepo.FindActiveByType(ctx, model.TaxTypeGST, s.now())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.Order{}, fmt.Errorf("%w: no active %s rule", order.ErrInvalidTax, model.TaxTypeGST)
			}
			return model.Order{}, fmt.Errorf("failed to load tax rule: %w", err)
		}
		o.TaxPercentage = rule.Percentage
	}

	return order.Recalculate(o)
}

func (s *orderService) newOrder(customer *model.Customer, terms string, termsDays *int, notes string, pricing OrderPricingInput) (model.Order, bool, error) {
	o := model.Order{
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		PaymentTerms:  strings.TrimSpace(terms),
		Notes:         strings.TrimSpace(notes),
		IsTaxable:     pricing.IsTaxable,
		CreatedAt:     s.now(),
	}

	if customer != nil {
		o.CustomerID = customer.ID
		if o.PaymentTerms == "" {
			o.PaymentTerms = customer.DefaultPaymentTerms
		}
		o.PaymentTermsDays = customer.PaymentTermsDays
	}
	if termsDays != nil {
		if *termsDays < 0 {
			return model.Order{}, false, fmt.Errorf("%w: payment_terms_days must not be negative", ErrInvalidInput)
		}
		o.PaymentTermsDays = *termsDays
	}
	s.setDueDate(&o)

	var err error
	if o.DiscountPercentage, err = parseDecimal("discount_percentage", pricing.DiscountPercentage); err != nil {
		return model.Order{}, false, err
	}
	if o.DiscountFixed, err = parseDecimal("discount_fixed", pricing.DiscountFixed); err != nil {
		return model.Order{}, false, err
	}
	if o.TaxPercentage, err = parseDecimal("tax_percentage", pricing.TaxPercentage); err != nil {
		return model.Order{}, false, err
	}
	return o, strings.TrimSpace(pricing.TaxPercentage) != "", nil
}

// setDueDate derives the due date from creation time and payment terms days.
// Orders without credit days have no due date and are never swept.
func (s *orderService) setDueDate(o *model.Order) {
	if o.PaymentTermsDays <= 0 {
		o.DueDate = nil
		return
	}
	created := o.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	due := created.AddDate(0, 0, o.PaymentTermsDays)
	o.DueDate = &due
}

// applyPatch reports whether the GST rule should fill the tax percentage, which
// only happens when the patch turns tax on without naming a percentage. Any other
// edit keeps the stored percentage, zero included.
func applyPatch(o *model.Order, req UpdateOrderRequest) (bool, error) {
	turnsTaxOn := req.IsTaxable != nil && *req.IsTaxable && !o.IsTaxable
	if req.PaymentTerms != nil {
		o.PaymentTerms = strings.TrimSpace(*req.PaymentTerms)
	}
	if req.PaymentTermsDays != nil {
		if *req.PaymentTermsDays < 0 {
			return false, fmt.Errorf("%w: payment_terms_days must not be negative", ErrInvalidInput)
		}
		o.PaymentTermsDays = *req.PaymentTermsDays
	}
	if req.Notes != nil {
		o.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.IsTaxable != nil {
		o.IsTaxable = *req.IsTaxable
	}

	var err error
	if req.DiscountPercentage != nil {
		if o.DiscountPercentage, err = parseDecimal("discount_percentage", *req.DiscountPercentage); err != nil {
			return false, err
		}
	}
	if req.DiscountFixed != nil {
		if o.DiscountFixed, err = parseDecimal("discount_fixed", *req.DiscountFixed); err != nil {
			return false, err
		}
	}

	if req.TaxPercentage != nil && strings.TrimSpace(*req.TaxPercentage) != "" {
		if o.TaxPercentage, err = parseDecimal("tax_percentage", *req.TaxPercentage); err != nil {
			return false, err
		}
		return false, nil
	}
	return turnsTaxOn, nil
}

func itemFromInput(in OrderItemInput) (model.OrderItem, error) {
	qty, err := parseDecimal("quantity", in.Quantity)
	if err != nil {
		return model.OrderItem{}, err
	}
	rate, err := parseDecimal("rate_per_unit", in.RatePerUnit)
	if err != nil {
		return model.OrderItem{}, err
	}

	it := model.OrderItem{
		ProductName:    in.ProductName,
		Quantity:       qty,
		Unit:           in.Unit,
		RatePerUnit:    rate,
		Packaging:      strings.TrimSpace(in.Packaging),
		IsBagSelection: in.IsBagSelection,
		BagPieces:      in.BagPieces,
	}
	if in.ProductID != "" {
		productID, err := uuid.Parse(in.ProductID)
		if err != nil {
			return model.OrderItem{}, fmt.Errorf("%w: product_id %q", ErrInvalidInput, in.ProductID)
		}
		it.ProductID = &productID
	}
	return it, nil
}

// parseDecimal treats an empty string as zero
func parseDecimal(field, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", ErrInvalidInput, field, value)
	}
	return d, nil
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id %q", ErrInvalidInput, id)
	}
	return parsed, nil
}

func mapNotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// lookupCustomer returns nil for an empty id so validation can report MissingCustomer
func (s *orderService) lookupCustomer(ctx context.Context, id string) (*model.Customer, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: customer_id %q", ErrInvalidInput, id)
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}
	return customer, nil
}

func (s *orderService) findOrder(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err, ErrOrderNotFound)
	}
	return o, nil
}

func (s *orderService) reload(ctx context.Context, id uuid.UUID, actor Actor) (OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("failed to reload order: %w", err)
	}
	return toOrderResponse(*o, actor.Perms), nil
}

// generateOrderNumber runs inside the create transaction. The per-day lock keeps
// concurrent creates from reading the same count.
func (s *orderService) generateOrderNumber(ctx context.Context) (string, error) {
	prefix := "ORD-" + s.now().Format("20060102") + "-"

	if err := s.orderRepo.LockOrderNumbers(ctx, prefix); err != nil {
		return "", err
	}
	count, err := s.orderRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (s *orderService) writeAudit(ctx context.Context, userID uuid.UUID, action string, o model.Order, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	entry := model.AuditLog{
		Action:     action,
		EntityID:   o.ID.String(),
		EntityName: o.OrderNumber,
		Details:    string(payload),
	}
	if userID != uuid.Nil {
		uid := userID
		entry.UserID = &uid
	}
	if err := s.auditRepo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// publish never fails the caller; the order is already committed
func (s *orderService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":    evt.Type,
			"order_id": evt.OrderID,
		}).Warn("Order event not delivered")
	}
}

// --- Mapping ---

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toOrderResponse(o model.Order, perms order.PermissionChecker) OrderResponse {
	resp := OrderResponse{
		ID:                 o.ID.String(),
		OrderNumber:        o.OrderNumber,
		Source:             o.Source,
		CustomerID:         o.CustomerID.String(),
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		PaymentTerms:       o.PaymentTerms,
		PaymentTermsDays:   o.PaymentTermsDays,
		Items:              make([]OrderItemResponse, 0, len(o.Items)),
		Subtotal:           o.Subtotal.StringFixed(2),
		DiscountPercentage: o.DiscountPercentage.String(),
		DiscountFixed:      o.DiscountFixed.StringFixed(2),
		Discount:           o.Discount.StringFixed(2),
		IsTaxable:          o.IsTaxable,
		TaxPercentage:      o.TaxPercentage.String(),
		TaxAmount:          o.TaxAmount.StringFixed(2),
		TotalAmount:        o.TotalAmount.StringFixed(2),
		PaidAmount:         o.PaidAmount.StringFixed(2),
		Outstanding:        order.Outstanding(o).StringFixed(2),
		Notes:              o.Notes,
		DueDate:            formatTime(o.DueDate),
		ApprovedAt:         formatTime(o.ApprovedAt),
		DeliveredAt:        formatTime(o.DeliveredAt),
		AvailableActions:   order.AvailableActions(o, perms),
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          o.UpdatedAt.Format(time.RFC3339),
	}
	if resp.AvailableActions == nil {
		resp.AvailableActions = []order.Action{}
	}
	if o.Customer != nil {
		resp.CustomerName = o.Customer.Name
	}
	if o.ApprovedBy != nil {
		s := o.ApprovedBy.String()
		resp.ApprovedBy = &s
	}

	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:             it.ID.String(),
			Position:       it.Position,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity.String(),
			Unit:           it.Unit,
			RatePerUnit:    it.RatePerUnit.StringFixed(2),
			TotalAmount:    it.TotalAmount.StringFixed(2),
			Packaging:      it.Packaging,
			IsBagSelection: it.IsBagSelection,
			BagPieces:      it.BagPieces,
		}
		if it.ProductID != nil {
			s := it.ProductID.String()
			item.ProductID = &s
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
