package services

import (
	"context"
	"strings"

	"cafeorders/internal/domain"
)

// ProductStore is the catalog persistence used by CatalogService.
// repos.ProductRepo and cache.Products both satisfy it.
type ProductStore interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type CatalogService struct {
	Prods ProductStore
}

func NewCatalogService(prods ProductStore) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	out, err := s.Prods.List(ctx)
	return out, domain.Persist("list products", err)
}

func (s *CatalogService) Get(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	return p, domain.Persist("get product", err)
}

func (s *CatalogService) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	if p.Name == "" {
		return domain.Product{}, domain.Invalid("name", "is required")
	}
	if p.Category == "" {
		return domain.Product{}, domain.Invalid("category", "is required")
	}
	if p.Price.IsNegative() {
		return domain.Product{}, domain.Invalid("price", "must not be negative")
	}
	if p.StockQuantity != nil && *p.StockQuantity < 0 {
		return domain.Product{}, domain.Invalid("stockQuantity", "must not be negative")
	}
	out, err := s.Prods.Create(ctx, p)
	return out, domain.Persist("create product", err)
}

func (s *CatalogService) Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	if patch.Name != nil {
		n := strings.TrimSpace(*patch.Name)
		if n == "" {
			return domain.Product{}, domain.Invalid("name", "must not be empty")
		}
		patch.Name = &n
	}
	if patch.Category != nil {
		c := strings.TrimSpace(*patch.Category)
		if c == "" {
			return domain.Product{}, domain.Invalid("category", "must not be empty")
		}
		patch.Category = &c
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return domain.Product{}, domain.Invalid("price", "must not be negative")
	}
	if patch.StockQuantity != nil && *patch.StockQuantity < 0 {
		return domain.Product{}, domain.Invalid("stockQuantity", "must not be negative")
	}
	out, err := s.Prods.Update(ctx, id, patch)
	return out, domain.Persist("update product", err)
}

// Delete removes a product. Deleting an unknown id is not an error.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	return domain.Persist("delete product", s.Prods.Delete(ctx, id))
}
