package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	Role      string
	CreatedAt time.Time
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Image       string
	Price       decimal.Decimal
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Cart holds at most one line per product, in insertion order.
type Cart struct {
	UserID    string
	Lines     []CartLine
	Version   int64
	UpdatedAt time.Time
}

type CartLine struct {
	Product  Product
	Quantity int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums price × quantity over lines.
func Total(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// CloneLines copies lines so later cart or catalog edits never reach the copy.
func CloneLines(lines []CartLine) []CartLine {
	if len(lines) == 0 {
		return []CartLine{}
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

type Address struct {
	Street  string
	City    string
	State   string
	Zip     string
	Country string
}

type Order struct {
	ID              string
	UserID          string
	Items           []CartLine
	Total           decimal.Decimal
	Status          OrderStatus
	ShippingAddress Address
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Session is the result of a successful login or registration.
type Session struct {
	Token string
	User  User
}

type OrderEventKind string

const (
	OrderEventCreated       OrderEventKind = "order.created"
	OrderEventStatusChanged OrderEventKind = "order.status_changed"
)

type OrderMessage struct {
	ID         string         `json:"id"`
	Kind       OrderEventKind `json:"kind"`
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id"`
	Status     OrderStatus    `json:"status"`
	Total      string         `json:"total"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Activity struct {
	Kind       OrderEventKind
	OrderID    string
	UserID     string
	Status     OrderStatus
	Total      decimal.Decimal
	OccurredAt time.Time
	RecordedAt time.Time
}

type DashboardSummary struct {
	ProductCount  int
	LowStockCount int
	OrderCount    int
	PendingOrders int
	Revenue       decimal.Decimal
}
