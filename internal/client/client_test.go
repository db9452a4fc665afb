package client

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
	"github.com/flicky/storefront/internal/service"
)

const (
	shopperEmail    = "shopper@example.com"
	shopperPassword = "secret1"
)

var (
	headphones = model.Product{ID: "1", Name: "Headphones", Category: "Electronics", Price: decimal.NewFromInt(100), Stock: 5}
	tshirt     = model.Product{ID: "2", Name: "T-Shirt", Category: "Clothing", Price: decimal.RequireFromString("29.99"), Stock: 50}

	testAddress = model.Address{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701", Country: "US"}
)

type harness struct {
	auth    *service.AuthService
	carts   *service.CartService
	orders  *service.OrderService
	api     *ServiceAPI
	storage *MemoryStorage
	user    *model.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	store := repository.NewStore()
	products := repository.NewProductRepository(store)
	cartRepo := repository.NewCartRepository(store)
	for _, p := range []model.Product{headphones, tshirt} {
		p := p
		require.NoError(t, products.Create(ctx, &p))
	}

	h := &harness{
		auth:    service.NewAuthService(repository.NewUserRepository(store), "test-secret", time.Hour),
		carts:   service.NewCartService(cartRepo, products),
		orders:  service.NewOrderService(repository.NewOrderRepository(store), cartRepo, nil, discardLogger()),
		storage: NewMemoryStorage(),
	}
	h.api = NewServiceAPI(h.auth, h.carts, h.orders, 0)

	session, err := h.auth.Register(ctx, dto.RegisterRequest{Email: shopperEmail, Password: shopperPassword, Name: "Shopper"})
	require.NoError(t, err)
	h.user = &session.User
	return h
}

// session builds fresh containers over the harness storage, as a restarted
// client would.
func (h *harness) session(t *testing.T) (*AuthContainer, *CartContainer) {
	t.Helper()
	auth := NewAuthContainer(h.api, h.storage, discardLogger())
	cart := NewCartContainer(auth, h.api, h.storage, discardLogger())
	auth.Init(context.Background())
	return auth, cart
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quantities(lines []model.CartLine) map[string]int {
	out := make(map[string]int, len(lines))
	for _, l := range lines {
		out[l.Product.ID] = l.Quantity
	}
	return out
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StatusUninitialized.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "error", StatusError.String())
}

func TestAuthContainer_InitWithoutToken(t *testing.T) {
	h := newHarness(t)
	auth, _ := h.session(t)

	s := auth.State()
	assert.Equal(t, StatusReady, s.Status)
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.User)
}

func TestAuthContainer_LoginRestoresAfterRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	auth, _ := h.session(t)

	require.NoError(t, auth.Login(ctx, shopperEmail, shopperPassword))
	s := auth.State()
	require.True(t, s.Authenticated())
	assert.Equal(t, h.user.ID, s.User.ID)
	assert.Empty(t, s.User.Password)

	stored, ok, err := h.storage.Get(tokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s.Token, stored)

	restarted, _ := h.session(t)
	r := restarted.State()
	assert.Equal(t, StatusReady, r.Status)
	require.True(t, r.Authenticated())
	assert.Equal(t, h.user.ID, r.User.ID)
}

func TestAuthContainer_InitDropsRejectedToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.storage.Set(tokenKey, "not-a-token"))

	auth, _ := h.session(t)

	s := auth.State()
	assert.Equal(t, StatusReady, s.Status)
	assert.False(t, s.Authenticated())
	_, ok, _ := h.storage.Get(tokenKey)
	assert.False(t, ok)
}

func TestAuthContainer_BadLogin(t *testing.T) {
	h := newHarness(t)
	auth, _ := h.session(t)

	err := auth.Login(context.Background(), shopperEmail, "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	s := auth.State()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, service.ErrInvalidCredentials.Error(), s.Err)
	assert.False(t, s.Authenticated())
	_, ok, _ := h.storage.Get(tokenKey)
	assert.False(t, ok)
}

func TestAuthContainer_ErrorKeepsUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	auth, _ := h.session(t)
	require.NoError(t, auth.Login(ctx, shopperEmail, shopperPassword))

	err := auth.Register(ctx, shopperEmail, "another1", "Dup")
	assert.ErrorIs(t, err, service.ErrEmailTaken)

	s := auth.State()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "email already in use", s.Err)
	require.NotNil(t, s.User)
	assert.Equal(t, h.user.ID, s.User.ID)
}

func TestAuthContainer_Register(t *testing.T) {
	h := newHarness(t)
	auth, _ := h.session(t)

	require.NoError(t, auth.Register(context.Background(), "new@example.com", "secret1", "New"))
	s := auth.State()
	require.True(t, s.Authenticated())
	assert.Equal(t, model.RoleCustomer, s.User.Role)
}

func TestAuthContainer_Logout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	auth, _ := h.session(t)
	require.NoError(t, auth.Login(ctx, shopperEmail, shopperPassword))

	auth.Logout(ctx)

	s := auth.State()
	assert.Equal(t, StatusReady, s.Status)
	assert.False(t, s.Authenticated())
	_, ok, _ := h.storage.Get(tokenKey)
	assert.False(t, ok)
}

func TestAuthContainer_ListenersSeeTransitions(t *testing.T) {
	h := newHarness(t)
	auth, _ := h.session(t)

	var (
		mu   sync.Mutex
		seen []Status
	)
	auth.Subscribe(func(_ context.Context, s AuthState) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	require.NoError(t, auth.Login(context.Background(), shopperEmail, shopperPassword))
	assert.Equal(t, []Status{StatusLoading, StatusReady}, seen)
}

func TestCartContainer_GuestCartPersisted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, cart := h.session(t)

	s := cart.State()
	assert.Equal(t, StatusReady, s.Status)
	assert.True(t, s.Guest)
	assert.Empty(t, s.Lines)

	require.NoError(t, cart.Add(ctx, headphones, 2))
	require.NoError(t, cart.Add(ctx, tshirt, 1))
	require.NoError(t, cart.Add(ctx, headphones, 1))
	assert.Equal(t, 4, cart.ItemCount())
	assert.Equal(t, "329.99", cart.Total().StringFixed(2))

	_, reloaded := h.session(t)
	r := reloaded.State()
	assert.True(t, r.Guest)
	assert.Equal(t, map[string]int{"1": 3, "2": 1}, quantities(r.Lines))
	assert.Equal(t, "329.99", r.Total().StringFixed(2))
	assert.Equal(t, "1", r.Lines[0].Product.ID, "insertion order survives reload")
}

func TestCartContainer_GuestSetQuantityAndRemove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, cart := h.session(t)

	require.NoError(t, cart.Add(ctx, headphones, 1))
	require.NoError(t, cart.Add(ctx, tshirt, 1))

	require.NoError(t, cart.SetQuantity(ctx, "2", 4))
	assert.Equal(t, map[string]int{"1": 1, "2": 4}, quantities(cart.State().Lines))

	require.NoError(t, cart.SetQuantity(ctx, "missing", 3), "guest cart tolerates unknown lines")
	require.NoError(t, cart.SetQuantity(ctx, "1", 0))
	assert.Equal(t, map[string]int{"2": 4}, quantities(cart.State().Lines))

	require.NoError(t, cart.Remove(ctx, "2"))
	require.NoError(t, cart.Remove(ctx, "2"))
	assert.Empty(t, cart.State().Lines)

	require.NoError(t, cart.Add(ctx, tshirt, 2))
	require.NoError(t, cart.Clear(ctx))
	_, reloaded := h.session(t)
	assert.Empty(t, reloaded.State().Lines)
}

func TestCartContainer_RejectsBeyondStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, cart := h.session(t)

	require.NoError(t, cart.Add(ctx, headphones, 5))

	err := cart.Add(ctx, headphones, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	s := cart.State()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, map[string]int{"1": 5}, quantities(s.Lines))

	assert.ErrorIs(t, cart.SetQuantity(ctx, "1", 6), ErrInsufficientStock)
	assert.ErrorIs(t, cart.Add(ctx, tshirt, 0), service.ErrInvalidQuantity)
	assert.Equal(t, map[string]int{"1": 5}, quantities(cart.State().Lines))

	require.NoError(t, cart.SetQuantity(ctx, "1", 4))
	assert.Equal(t, StatusReady, cart.State().Status)
	assert.Empty(t, cart.State().Err)
}

func TestCartContainer_HugeAddKeepsLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, cart := h.session(t)

	require.NoError(t, cart.Add(ctx, headphones, 2))
	assert.ErrorIs(t, cart.Add(ctx, headphones, math.MaxInt), ErrInsufficientStock)
	assert.Equal(t, map[string]int{"1": 2}, quantities(cart.State().Lines))
}

func TestLocalCart_AddOverflow(t *testing.T) {
	l := localCart{storage: NewMemoryStorage(), log: discardLogger()}
	lines := []model.CartLine{{Product: headphones, Quantity: math.MaxInt}}

	_, err := l.add(context.Background(), lines, headphones, 1)
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)
}

func TestCartContainer_SignedInUsesServerCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.carts.AddItem(ctx, h.user.ID, "2", 2)
	require.NoError(t, err)

	auth, cart := h.session(t)
	require.NoError(t, auth.Login(ctx, shopperEmail, shopperPassword))

	s := cart.State()
	assert.Equal(t, StatusReady, s.Status)
	assert.False(t, s.Guest)
	assert.Equal(t, map[string]int{"2": 2}, quantities(s.Lines))

	require.NoError(t, cart.Add(ctx, headphones, 1))
	server, err := h.carts.GetCart(ctx, h.user.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2": 2, "1": 1}, quantities(server.Lines))
	assert.Equal(t, quantities(server.Lines), quantities(cart.State().Lines))

	assert.ErrorIs(t, cart.SetQuantity(ctx, "missing", 1), service.ErrLineNotFound)
}

func TestCartContainer_ErrorKeepsLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	auth, cart := h.session(t)
	require.NoError(t, auth.Login(ctx, shopperEmail, shopperPassword))
	require.NoError(t, cart.Add(ctx, tshirt, 3))

	gone := model.Product{ID: "gone", Name: "Discontinued", Price: decimal.NewFromInt(5), Stock: 10}
	err := cart.Add(ctx, gone, 1)
	assert.ErrorIs(t, err, service.ErrProductNotFound)

	s := cart.State()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "product not found", s.Err)
	assert.Equal(t, map[string]int{"2": 3}, quantities(s.Lines))
}

func TestCartContainer_GuestCartNotMergedOnLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	auth, cart := h.session(t)

	require.NoError(t, cart.Add(ctx, tshirt, 2))

	require.NoError(t, auth.Login(ctx, shopperEmail, shopperPassword))
	assert.False(t, cart.State().Guest)
	assert.Empty(t, cart.State().Lines)

	auth.Logout(ctx)
	s := cart.State()
	assert.True(t, s.Guest)
	assert.Equal(t, map[string]int{"2": 2}, quantities(s.Lines))
}

func TestCartContainer_Checkout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	auth, cart := h.session(t)

	require.NoError(t, cart.Add(ctx, headphones, 1))
	_, err := cart.Checkout(ctx, testAddress)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 1, cart.ItemCount())

	require.NoError(t, auth.Login(ctx, shopperEmail, shopperPassword))
	require.NoError(t, cart.Add(ctx, headphones, 2))
	require.NoError(t, cart.Add(ctx, headphones, 3))
	assert.Equal(t, 5, cart.ItemCount())

	order, err := cart.Checkout(ctx, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "500.00", order.Total.StringFixed(2))
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, testAddress, order.ShippingAddress)

	assert.Empty(t, cart.State().Lines)
	assert.Equal(t, StatusReady, cart.State().Status)
	server, err := h.carts.GetCart(ctx, h.user.ID)
	require.NoError(t, err)
	assert.Empty(t, server.Lines)

	_, err = cart.Checkout(ctx, testAddress)
	assert.ErrorIs(t, err, service.ErrEmptyCart)
}

func TestCartContainer_ConcurrentGuestAdds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, cart := h.session(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cart.Add(ctx, tshirt, 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, cart.ItemCount())
}

func TestServiceAPI_Latency(t *testing.T) {
	h := newHarness(t)
	slow := NewServiceAPI(h.auth, h.carts, h.orders, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := slow.Login(ctx, shopperEmail, shopperPassword)
	assert.ErrorIs(t, err, context.Canceled)

	quick := NewServiceAPI(h.auth, h.carts, h.orders, 10*time.Millisecond)
	start := time.Now()
	session, err := quick.Login(context.Background(), shopperEmail, shopperPassword)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Empty(t, session.User.Password)

	_, err = quick.GetCart(context.Background(), "bogus")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
