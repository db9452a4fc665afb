// Package seed loads the demo catalog and accounts into a fresh store.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

type account struct {
	email, password, name, role string
}

var accounts = []account{
	{"admin@example.com", "admin123", "Admin User", model.RoleAdmin},
	{"customer@example.com", "customer123", "Test Customer", model.RoleCustomer},
}

func Products() []model.Product {
	return []model.Product{
		{
			ID: "1", Name: "Premium Wireless Headphones", Category: "Electronics", Stock: 15,
			Price:       decimal.RequireFromString("299.99"),
			Description: "High-quality noise cancelling headphones with premium sound and comfort.",
			Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?auto=format&fit=crop&w=1000&q=80",
		},
		{
			ID: "2", Name: "Smart Watch Series 5", Category: "Electronics", Stock: 20,
			Price:       decimal.RequireFromString("249.99"),
			Description: "Track your fitness, receive notifications, and more with this advanced smartwatch.",
			Image:       "https://images.unsplash.com/photo-1523275335684-37898b6baf30?auto=format&fit=crop&w=1000&q=80",
		},
		{
			ID: "3", Name: "Organic Cotton T-shirt", Category: "Clothing", Stock: 50,
			Price:       decimal.RequireFromString("29.99"),
			Description: "Soft, comfortable t-shirt made from 100% organic cotton.",
			Image:       "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?auto=format&fit=crop&w=1000&q=80",
		},
		{
			ID: "4", Name: "Designer Sunglasses", Category: "Accessories", Stock: 30,
			Price:       decimal.RequireFromString("159.99"),
			Description: "Protect your eyes in style with these trendy designer sunglasses.",
			Image:       "https://images.unsplash.com/photo-1572635196237-14b3f281503f?auto=format&fit=crop&w=1000&q=80",
		},
		{
			ID: "5", Name: "Professional Camera Kit", Category: "Electronics", Stock: 5,
			Price:       decimal.RequireFromString("1299.99"),
			Description: "Complete professional camera kit with lenses and accessories.",
			Image:       "https://images.unsplash.com/photo-1526170375885-4d8ecf77b99f?auto=format&fit=crop&w=1000&q=80",
		},
		{
			ID: "6", Name: "Leather Wallet", Category: "Accessories", Stock: 25,
			Price:       decimal.RequireFromString("49.99"),
			Description: "Handcrafted genuine leather wallet with multiple card slots.",
			Image:       "https://images.unsplash.com/photo-1627123264281-39e2a3a7c0e4?auto=format&fit=crop&w=1000&q=80",
		},
		{
			ID: "7", Name: "Wireless Charging Pad", Category: "Electronics", Stock: 40,
			Price:       decimal.RequireFromString("39.99"),
			Description: "Fast wireless charging pad compatible with all Qi-enabled devices.",
			Image:       "https://images.unsplash.com/photo-1618677366787-9727aacca7ea?auto=format&fit=crop&w=1000&q=80",
		},
		{
			ID: "8", Name: "Fitness Tracker Band", Category: "Electronics", Stock: 18,
			Price:       decimal.RequireFromString("89.99"),
			Description: "Track steps, heart rate, and sleep with this water-resistant fitness band.",
			Image:       "https://images.unsplash.com/photo-1575311373937-040b8e1fd5b1?auto=format&fit=crop&w=1000&q=80",
		},
	}
}

// Load inserts the demo products and the admin and customer accounts.
func Load(ctx context.Context, products repository.ProductRepository, users repository.UserRepository) error {
	for _, p := range Products() {
		p := p
		if err := products.Create(ctx, &p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	for _, a := range accounts {
		hashed, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u := &model.User{Email: a.email, Password: string(hashed), Name: a.name, Role: a.role}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", a.email, err)
		}
	}
	return nil
}
