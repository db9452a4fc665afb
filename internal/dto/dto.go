package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/storefront/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func NewAuthResponse(s *model.Session) AuthResponse {
	return AuthResponse{Token: s.Token, User: NewUserResponse(&s.User)}
}

// --- Product ---

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category" binding:"required"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Image       *string          `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
}

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1,max=100000"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Sort     string `form:"sort" binding:"omitempty,oneof=name price created_at"`
	Order    string `form:"order,default=asc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewProductResponses(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, NewProductResponse(&products[i]))
	}
	return out
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=10000"`
}

// UpdateCartItemRequest accepts zero or negative quantities; they remove the line.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type CartResponse struct {
	UserID    string             `json:"user_id"`
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Total     string             `json:"total"`
	Version   int64              `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type CartItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  string          `json:"subtotal"`
}

func NewCartResponse(c *model.Cart) CartResponse {
	return CartResponse{
		UserID:    c.UserID,
		Items:     newLineResponses(c.Lines),
		ItemCount: c.ItemCount(),
		Total:     model.Total(c.Lines).StringFixed(2),
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
	}
}

func newLineResponses(lines []model.CartLine) []CartItemResponse {
	out := make([]CartItemResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, CartItemResponse{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Image:     l.Product.Image,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal().StringFixed(2),
		})
	}
	return out
}

// --- Order ---

type Address struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	Zip     string `json:"zip" binding:"required"`
	Country string `json:"country" binding:"required"`
}

func (a Address) Model() model.Address {
	return model.Address{Street: a.Street, City: a.City, State: a.State, Zip: a.Zip, Country: a.Country}
}

type CreateOrderRequest struct {
	ShippingAddress Address `json:"shipping_address" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	Status          model.OrderStatus  `json:"status"`
	Total           string             `json:"total"`
	Items           []CartItemResponse `json:"items"`
	ShippingAddress Address            `json:"shipping_address"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func NewOrderResponse(o *model.Order) OrderResponse {
	a := o.ShippingAddress
	return OrderResponse{
		ID:     o.ID,
		UserID: o.UserID,
		Status: o.Status,
		Total:  o.Total.StringFixed(2),
		Items:  newLineResponses(o.Items),
		ShippingAddress: Address{
			Street: a.Street, City: a.City, State: a.State, Zip: a.Zip, Country: a.Country,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

func NewOrderListResponse(orders []model.Order) OrderListResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return OrderListResponse{Orders: out, Total: len(out)}
}

// --- Admin ---

type DashboardResponse struct {
	ProductCount  int    `json:"product_count"`
	LowStockCount int    `json:"low_stock_count"`
	OrderCount    int    `json:"order_count"`
	PendingOrders int    `json:"pending_orders"`
	Revenue       string `json:"revenue"`
}

func NewDashboardResponse(s *model.DashboardSummary) DashboardResponse {
	return DashboardResponse{
		ProductCount:  s.ProductCount,
		LowStockCount: s.LowStockCount,
		OrderCount:    s.OrderCount,
		PendingOrders: s.PendingOrders,
		Revenue:       s.Revenue.StringFixed(2),
	}
}

type ActivityResponse struct {
	Kind       model.OrderEventKind `json:"kind"`
	OrderID    string               `json:"order_id"`
	UserID     string               `json:"user_id"`
	Status     model.OrderStatus    `json:"status"`
	Total      string               `json:"total"`
	OccurredAt time.Time            `json:"occurred_at"`
	RecordedAt time.Time            `json:"recorded_at"`
}

func NewActivityResponses(entries []model.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityResponse{
			Kind:       e.Kind,
			OrderID:    e.OrderID,
			UserID:     e.UserID,
			Status:     e.Status,
			Total:      e.Total.StringFixed(2),
			OccurredAt: e.OccurredAt,
			RecordedAt: e.RecordedAt,
		})
	}
	return out
}
