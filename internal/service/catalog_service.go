package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"millorders/internal/model"
	"millorders/internal/order"
	"millorders/internal/repository"

	"github.com/google/uuid"
)

type CatalogProductResponse struct {
	ID          string   `json:"id"`
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Unit        string   `json:"unit"`
	RatePerUnit string   `json:"rate_per_unit"`
	Packagings  []string `json:"packagings"`
	GodownID    string   `json:"godown_id"`
	GodownName  string   `json:"godown_name"`
}

type CatalogService interface {
	QuickProducts(ctx context.Context, customerID string) ([]CatalogProductResponse, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]CatalogProductResponse, int64, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
}

func NewCatalogService(productRepo repository.ProductRepository, customerRepo repository.CustomerRepository) CatalogService {
	return &catalogService{productRepo: productRepo, customerRepo: customerRepo}
}

// ServesCustomer reports whether the godown ships to the customer's city or area
func ServesCustomer(godown *model.Godown, customer model.Customer) bool {
	if godown == nil || !godown.IsActive {
		return false
	}

	wanted := map[string]bool{}
	for _, v := range []string{customer.City, customer.Area} {
		if token := normalizeArea(v); token != "" {
			wanted[token] = true
		}
	}
	if len(wanted) == 0 {
		return false
	}

	if wanted[normalizeArea(godown.City)] {
		return true
	}
	for _, area := range strings.Split(godown.ServiceAreas, ",") {
		if wanted[normalizeArea(area)] {
			return true
		}
	}
	return false
}

func normalizeArea(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QuickProducts lists the products a quick order for this customer may pick from
func (s *catalogService) QuickProducts(ctx context.Context, customerID string) ([]CatalogProductResponse, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: customer_id %q", ErrInvalidInput, customerID)
	}

	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrCustomerNotFound)
	}

	products, err := s.productRepo.ListActiveWithGodown(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	result := make([]CatalogProductResponse, 0, len(products))
	for _, p := range products {
		if ServesCustomer(p.Godown, *customer) {
			result = append(result, toCatalogProduct(p))
		}
	}
	return result, nil
}

func (s *catalogService) ListProducts(ctx context.Context, page, limit int, search string) ([]CatalogProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, strings.TrimSpace(search))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	result := make([]CatalogProductResponse, 0, len(products))
	for _, p := range products {
		result = append(result, toCatalogProduct(p))
	}
	return result, total, nil
}

// packagingsFor lists Loose first, then the product's bag sizes ascending
func packagingsFor(p model.Product) []string {
	var sizes []int
	for _, raw := range strings.Split(p.BagSizesKg, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && n > 0 {
			sizes = append(sizes, n)
		}
	}
	sort.Ints(sizes)

	out := []string{order.PackagingLoose}
	for _, n := range sizes {
		out = append(out, order.BagPackaging(n))
	}
	return out
}

func toCatalogProduct(p model.Product) CatalogProductResponse {
	resp := CatalogProductResponse{
		ID:          p.ID.String(),
		SKU:         p.SKU,
		Name:        p.Name,
		Unit:        p.Unit,
		RatePerUnit: p.RatePerUnit.StringFixed(2),
		Packagings:  packagingsFor(p),
	}
	if p.GodownID != nil {
		resp.GodownID = p.GodownID.String()
	}
	if p.Godown != nil {
		resp.GodownName = p.Godown.Name
	}
	return resp
}
