package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"millorders/internal/events"
	"millorders/internal/model"
	"millorders/internal/order"
	"millorders/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- orders ---

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]model.Order
	numbering []string
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]model.Order{}}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = o.ID
	}
	r.orders[o.ID] = order.Clone(*o)
	return nil
}

func (r *fakeOrderRepo) get(id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := order.Clone(o)
	return &c, nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return r.get(id)
}

func (r *fakeOrderRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return r.get(id)
}

func (r *fakeOrderRepo) Update(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.orders[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	next := order.Clone(*o)
	next.Items = existing.Items
	r.orders[o.ID] = next
	return nil
}

func (r *fakeOrderRepo) ReplaceItems(_ context.Context, orderID uuid.UUID, items []model.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.orders[orderID]
	o.Items = append([]model.OrderItem(nil), items...)
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = orderID
	}
	r.orders[orderID] = o
	return nil
}

func (r *fakeOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status model.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.PaymentStatus = status
	r.orders[id] = o
	return nil
}

func (r *fakeOrderRepo) List(_ context.Context, f repository.OrderListFilter) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		out = append(out, order.Clone(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) ListOverdueCandidates(_ context.Context, now time.Time) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.DueDate == nil || !o.DueDate.Before(now) {
			continue
		}
		if o.PaymentStatus != model.PaymentStatusPending && o.PaymentStatus != model.PaymentStatusPartial {
			continue
		}
		if o.Status == model.OrderStatusRejected || o.Status == model.OrderStatusCancelled {
			continue
		}
		out = append(out, order.Clone(o))
	}
	return out, nil
}

func (r *fakeOrderRepo) LockOrderNumbers(_ context.Context, prefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbering = append(r.numbering, "lock "+prefix)
	return nil
}

func (r *fakeOrderRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbering = append(r.numbering, "count "+prefix)
	var n int64
	for _, o := range r.orders {
		if strings.HasPrefix(o.OrderNumber, prefix) {
			n++
		}
	}
	return n, nil
}

// put stores an order directly, bypassing the service
func (r *fakeOrderRepo) put(o model.Order) model.Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.mu.Lock()
	r.orders[o.ID] = order.Clone(o)
	r.mu.Unlock()
	return o
}

// --- customers ---

type fakeCustomerRepo struct {
	customers map[uuid.UUID]model.Customer
	addresses []model.CustomerAddress
}

func newFakeCustomerRepo(cs ...model.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: map[uuid.UUID]model.Customer{}}
	for _, c := range cs {
		r.customers[c.ID] = c
	}
	return r
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = *c
	return nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	r.customers[c.ID] = *c
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *fakeCustomerRepo) List(_ context.Context, search, city string, page, limit int) ([]model.Customer, int64, error) {
	var out []model.Customer
	for _, c := range r.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCustomerRepo) CreateAddresses(_ context.Context, addresses []model.CustomerAddress) error {
	for i := range addresses {
		addresses[i].ID = uuid.New()
	}
	r.addresses = append(r.addresses, addresses...)
	return nil
}

// --- products ---

type fakeProductRepo struct {
	products []model.Product
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	r.products = append(r.products, *p)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	for _, p := range r.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		for _, p := range r.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListActiveWithGodown(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.IsActive && p.Godown != nil && p.Godown.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	return r.products, int64(len(r.products)), nil
}

func (r *fakeProductRepo) CreateGodown(context.Context, *model.Godown) error { return nil }

// --- tax rules ---

type fakeTaxRuleRepo struct {
	active *model.TaxRule
}

func (r *fakeTaxRuleRepo) Create(context.Context, *model.TaxRule) error { return nil }

func (r *fakeTaxRuleRepo) FindActiveByType(_ context.Context, taxType string, _ time.Time) (*model.TaxRule, error) {
	if r.active == nil || r.active.TaxType != taxType {
		return nil, gorm.ErrRecordNotFound
	}
	rule := *r.active
	return &rule, nil
}

func (r *fakeTaxRuleRepo) CountByType(context.Context, string) (int64, error) { return 0, nil }

// --- audit ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, e *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, f repository.AuditFilter) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range r.entries {
		if (f.EntityID == "" || e.EntityID == f.EntityID) && (f.Action == "" || e.Action == f.Action) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- events ---

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// --- roles ---

type fakeRoleRepo struct {
	codes map[string][]string
	calls int
}

func (r *fakeRoleRepo) FindOrCreateRole(context.Context, *model.Role) error { return nil }

func (r *fakeRoleRepo) PermissionCodes(_ context.Context, role string) ([]string, error) {
	r.calls++
	codes, ok := r.codes[role]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return codes, nil
}

func (r *fakeRoleRepo) FindOrCreatePermission(context.Context, *model.Permission) error { return nil }

func (r *fakeRoleRepo) GrantPermissions(context.Context, uuid.UUID, []uuid.UUID) error {
	return nil
}

// --- visits ---

type fakeVisitRepo struct {
	visits map[uuid.UUID]model.Visit
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{visits: map[uuid.UUID]model.Visit{}}
}

func (r *fakeVisitRepo) Create(_ context.Context, v *model.Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.visits[v.ID] = *v
	return nil
}

func (r *fakeVisitRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Visit, error) {
	v, ok := r.visits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r *fakeVisitRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeVisitRepo) Update(_ context.Context, v *model.Visit) error {
	r.visits[v.ID] = *v
	return nil
}

func (r *fakeVisitRepo) List(_ context.Context, f repository.VisitListFilter) ([]model.Visit, int64, error) {
	var out []model.Visit
	for _, v := range r.visits {
		if f.Status != "" && string(v.Status) != f.Status {
			continue
		}
		if f.AssignedTo != nil && (v.AssignedTo == nil || *v.AssignedTo != *f.AssignedTo) {
			continue
		}
		out = append(out, v)
	}
	return out, int64(len(out)), nil
}

// --- users ---

type fakeUserRepo struct {
	users  map[uuid.UUID]model.User
	tokens map[string]model.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]model.User{}, tokens: map[string]model.RefreshToken{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) find(match func(model.User) bool) (*model.User, error) {
	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) List(_ context.Context, role string, _, _ int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) CreateRefreshToken(_ context.Context, t *model.RefreshToken) error {
	r.tokens[t.Token] = *t
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	t.User = r.users[t.UserID]
	return &t, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(_ context.Context, token string) (int64, error) {
	if _, ok := r.tokens[token]; !ok {
		return 0, nil
	}
	delete(r.tokens, token)
	return 1, nil
}

func (r *fakeUserRepo) DeleteExpiredRefreshTokens(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, t := range r.tokens {
		if t.ExpiresAt.Before(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}
