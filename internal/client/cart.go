package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/service"
)

// cartBackend applies cart mutations for one owner. Each call takes the
// lines the container currently shows and returns the lines to show next.
type cartBackend interface {
	load(ctx context.Context) ([]model.CartLine, error)
	add(ctx context.Context, lines []model.CartLine, product model.Product, quantity int) ([]model.CartLine, error)
	setQuantity(ctx context.Context, lines []model.CartLine, productID string, quantity int) ([]model.CartLine, error)
	remove(ctx context.Context, lines []model.CartLine, productID string) ([]model.CartLine, error)
	clear(ctx context.Context, lines []model.CartLine) ([]model.CartLine, error)
}

// remoteCart waits for the backend on every call; the server cart is the
// source of truth.
type remoteCart struct {
	api   API
	token string
}

func (r remoteCart) load(ctx context.Context) ([]model.CartLine, error) {
	return cartLines(r.api.GetCart(ctx, r.token))
}

func (r remoteCart) add(ctx context.Context, _ []model.CartLine, product model.Product, quantity int) ([]model.CartLine, error) {
	return cartLines(r.api.AddToCart(ctx, r.token, product.ID, quantity))
}

func (r remoteCart) setQuantity(ctx context.Context, _ []model.CartLine, productID string, quantity int) ([]model.CartLine, error) {
	return cartLines(r.api.UpdateCartItem(ctx, r.token, productID, quantity))
}

func (r remoteCart) remove(ctx context.Context, _ []model.CartLine, productID string) ([]model.CartLine, error) {
	return cartLines(r.api.RemoveFromCart(ctx, r.token, productID))
}

func (r remoteCart) clear(ctx context.Context, _ []model.CartLine) ([]model.CartLine, error) {
	return cartLines(r.api.ClearCart(ctx, r.token))
}

func cartLines(c *model.Cart, err error) ([]model.CartLine, error) {
	if err != nil {
		return nil, err
	}
	return model.CloneLines(c.Lines), nil
}

// localCart is the guest cart. Changes apply immediately and are written to
// Storage afterwards; a failed write is logged and the change stands.
type localCart struct {
	storage Storage
	log     *slog.Logger
}

type guestProduct struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

type guestLine struct {
	Product  guestProduct `json:"product"`
	Quantity int          `json:"quantity"`
}

func (l localCart) load(context.Context) ([]model.CartLine, error) {
	raw, ok, err := l.storage.Get(guestCartKey)
	if err != nil {
		l.log.Warn("read guest cart", "error", err)
		return []model.CartLine{}, nil
	}
	if !ok || raw == "" {
		return []model.CartLine{}, nil
	}

	var stored []guestLine
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		l.log.Warn("decode guest cart", "error", err)
		return []model.CartLine{}, nil
	}

	lines := make([]model.CartLine, 0, len(stored))
	for _, g := range stored {
		if g.Quantity < 1 {
			continue
		}
		lines = append(lines, model.CartLine{
			Product: model.Product{
				ID:          g.Product.ID,
				Name:        g.Product.Name,
				Description: g.Product.Description,
				Category:    g.Product.Category,
				Image:       g.Product.Image,
				Price:       g.Product.Price,
				Stock:       g.Product.Stock,
			},
			Quantity: g.Quantity,
		})
	}
	return lines, nil
}

func (l localCart) add(_ context.Context, lines []model.CartLine, product model.Product, quantity int) ([]model.CartLine, error) {
	out := model.CloneLines(lines)
	if i := findLine(out, product.ID); i >= 0 {
		if quantity > math.MaxInt-out[i].Quantity {
			return nil, service.ErrInvalidQuantity
		}
		out[i].Quantity += quantity
	} else {
		out = append(out, model.CartLine{Product: product, Quantity: quantity})
	}
	l.persist(out)
	return out, nil
}

func (l localCart) setQuantity(ctx context.Context, lines []model.CartLine, productID string, quantity int) ([]model.CartLine, error) {
	if quantity <= 0 {
		return l.remove(ctx, lines, productID)
	}
	out := model.CloneLines(lines)
	if i := findLine(out, productID); i >= 0 {
		out[i].Quantity = quantity
	}
	l.persist(out)
	return out, nil
}

func (l localCart) remove(_ context.Context, lines []model.CartLine, productID string) ([]model.CartLine, error) {
	out := make([]model.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.Product.ID != productID {
			out = append(out, line)
		}
	}
	l.persist(out)
	return out, nil
}

func (l localCart) clear(context.Context, []model.CartLine) ([]model.CartLine, error) {
	out := []model.CartLine{}
	l.persist(out)
	return out, nil
}

func (l localCart) persist(lines []model.CartLine) {
	stored := make([]guestLine, len(lines))
	for i, line := range lines {
		p := line.Product
		stored[i] = guestLine{
			Product: guestProduct{
				ID: p.ID, Name: p.Name, Description: p.Description, Category: p.Category,
				Image: p.Image, Price: p.Price, Stock: p.Stock,
			},
			Quantity: line.Quantity,
		}
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		l.log.Warn("encode guest cart", "error", err)
		return
	}
	if err := l.storage.Set(guestCartKey, string(raw)); err != nil {
		l.log.Warn("persist guest cart", "error", err)
	}
}

func findLine(lines []model.CartLine, productID string) int {
	for i, l := range lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// CartContainer mirrors the cart of whoever the AuthContainer says is signed
// in. Signed-in users get the server cart, guests get a cart kept in
// Storage. A guest cart is not merged into the server cart on sign-in.
type CartContainer struct {
	auth    *AuthContainer
	api     API
	storage Storage
	log     *slog.Logger

	op sync.Mutex

	mu      sync.RWMutex
	state   CartState
	owner   string
	backend cartBackend
}

func NewCartContainer(auth *AuthContainer, api API, storage Storage, log *slog.Logger) *CartContainer {
	c := &CartContainer{
		auth:    auth,
		api:     api,
		storage: storage,
		log:     log,
		state:   CartState{Guest: true},
		backend: localCart{storage: storage, log: log},
	}
	auth.Subscribe(c.onAuth)
	return c
}

func (c *CartContainer) State() CartState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.Lines = model.CloneLines(s.Lines)
	return s
}

func (c *CartContainer) Total() decimal.Decimal { return c.State().Total() }

func (c *CartContainer) ItemCount() int { return c.State().ItemCount() }

func (c *CartContainer) onAuth(ctx context.Context, s AuthState) {
	if s.Status != StatusReady {
		return
	}
	c.mu.RLock()
	same := c.owner == s.Token && c.state.Status != StatusUninitialized
	c.mu.RUnlock()
	if same {
		return
	}
	if err := c.Load(ctx); err != nil {
		c.log.Warn("load cart", "error", err, "user_id", s.userID())
	}
}

// Load picks the backend for the current auth state and fetches its cart.
// Switching owner drops the lines shown for the previous one.
func (c *CartContainer) Load(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	as := c.auth.State()
	c.mu.Lock()
	if c.owner != as.Token || c.state.Status == StatusUninitialized {
		c.owner = as.Token
		if as.Authenticated() {
			c.backend = remoteCart{api: c.api, token: as.Token}
		} else {
			c.backend = localCart{storage: c.storage, log: c.log}
		}
		c.state = CartState{Guest: !as.Authenticated()}
	}
	c.state.Status = StatusLoading
	c.state.Err = ""
	backend := c.backend
	c.mu.Unlock()

	lines, err := backend.load(ctx)
	return c.settle(lines, err)
}

func (c *CartContainer) settle(lines []model.CartLine, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state.Status = StatusError
		c.state.Err = err.Error()
		return err
	}
	c.state.Status = StatusReady
	c.state.Lines = lines
	return nil
}

func (c *CartContainer) begin() ([]model.CartLine, cartBackend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Status = StatusLoading
	c.state.Err = ""
	return model.CloneLines(c.state.Lines), c.backend
}

// Add puts quantity more of product in the cart, never past product.Stock.
func (c *CartContainer) Add(ctx context.Context, product model.Product, quantity int) error {
	c.op.Lock()
	defer c.op.Unlock()

	lines, backend := c.begin()
	if quantity < 1 {
		return c.settle(nil, service.ErrInvalidQuantity)
	}
	have := 0
	if i := findLine(lines, product.ID); i >= 0 {
		have = lines[i].Quantity
	}
	if quantity > product.Stock-have {
		return c.settle(nil, ErrInsufficientStock)
	}
	return c.settle(backend.add(ctx, lines, product, quantity))
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
func (c *CartContainer) SetQuantity(ctx context.Context, productID string, quantity int) error {
	c.op.Lock()
	defer c.op.Unlock()

	lines, backend := c.begin()
	if i := findLine(lines, productID); i >= 0 && quantity > lines[i].Product.Stock {
		return c.settle(nil, ErrInsufficientStock)
	}
	return c.settle(backend.setQuantity(ctx, lines, productID, quantity))
}

func (c *CartContainer) Remove(ctx context.Context, productID string) error {
	c.op.Lock()
	defer c.op.Unlock()

	lines, backend := c.begin()
	return c.settle(backend.remove(ctx, lines, productID))
}

func (c *CartContainer) Clear(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	lines, backend := c.begin()
	return c.settle(backend.clear(ctx, lines))
}

// Checkout turns the shown lines into an order and empties the cart. Guests
// have to sign in first.
func (c *CartContainer) Checkout(ctx context.Context, addr model.Address) (*model.Order, error) {
	c.op.Lock()
	defer c.op.Unlock()

	lines, _ := c.begin()
	as := c.auth.State()
	if !as.Authenticated() {
		return nil, c.settle(nil, ErrNotAuthenticated)
	}

	start := time.Now()
	order, err := c.api.CreateOrder(ctx, as.Token, lines, addr)
	if err != nil {
		return nil, c.settle(nil, err)
	}
	c.log.Info("order placed",
		"order_id", order.ID,
		"user_id", as.userID(),
		"total", order.Total.StringFixed(2),
		"duration", time.Since(start),
	)
	return order, c.settle([]model.CartLine{}, nil)
}
