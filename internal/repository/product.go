package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/storefront/internal/model"
)

type ProductQuery struct {
	Search   string
	Category string
	Sort     string
	Order    string
	Limit    int
	Offset   int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, q ProductQuery) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) (*model.Product, error)
}

type memProductRepo struct{ store *Store }

func NewProductRepository(store *Store) ProductRepository {
	return &memProductRepo{store: store}
}

func (r *memProductRepo) Create(_ context.Context, product *model.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if r.indexOf(product.ID) >= 0 {
		return fmt.Errorf("create product %s: %w", product.ID, ErrDuplicate)
	}
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now

	p := *product
	r.store.products = append(r.store.products, &p)
	return nil
}

func (r *memProductRepo) GetByID(_ context.Context, id string) (*model.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	p := *r.store.products[i]
	return &p, nil
}

func (r *memProductRepo) List(_ context.Context, q ProductQuery) ([]model.Product, int, error) {
	r.store.mu.RLock()
	search := strings.ToLower(q.Search)
	var matched []model.Product
	for _, p := range r.store.products {
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		matched = append(matched, *p)
	}
	r.store.mu.RUnlock()

	sortProducts(matched, q.Sort, q.Order)

	total := len(matched)
	if q.Offset > 0 {
		if q.Offset >= total {
			return []model.Product{}, total, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	if matched == nil {
		matched = []model.Product{}
	}
	return matched, total, nil
}

func (r *memProductRepo) Update(_ context.Context, product *model.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	i := r.indexOf(product.ID)
	if i < 0 {
		return ErrNoRows
	}
	product.CreatedAt = r.store.products[i].CreatedAt
	product.UpdatedAt = time.Now().UTC()
	p := *product
	r.store.products[i] = &p
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id string) (*model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNoRows
	}
	removed := *r.store.products[i]
	r.store.products = append(r.store.products[:i], r.store.products[i+1:]...)
	return &removed, nil
}

// indexOf expects the caller to hold the store lock.
func (r *memProductRepo) indexOf(id string) int {
	for i, p := range r.store.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func sortProducts(products []model.Product, field, order string) {
	var less func(a, b model.Product) bool
	switch field {
	case "name":
		less = func(a, b model.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "price":
		less = func(a, b model.Product) bool { return a.Price.LessThan(b.Price) }
	case "created_at":
		less = func(a, b model.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return
	}
	desc := order == "desc"
	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}
