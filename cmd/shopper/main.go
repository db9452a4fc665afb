// Command shopper drives the client containers through one storefront visit
// against an in-process backend: browse as a guest, sign in, fill the server
// cart and check out. Client state is kept in a file, so the guest cart
// carries over to the next run.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/flicky/storefront/internal/client"
	"github.com/flicky/storefront/internal/config"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
	"github.com/flicky/storefront/internal/seed"
	"github.com/flicky/storefront/internal/service"
	"github.com/flicky/storefront/internal/worker"
)

func main() {
	statePath := flag.String("state", filepath.Join(os.TempDir(), "storefront-shopper.json"), "client state file")
	email := flag.String("email", "customer@example.com", "account to sign in with")
	password := flag.String("password", "customer123", "account password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *statePath, *email, *password); err != nil {
		log.Error("shopping session failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, statePath, email, password string) error {
	store := repository.NewStore()
	productRepo := repository.NewProductRepository(store)
	userRepo := repository.NewUserRepository(store)
	cartRepo := repository.NewCartRepository(store)
	activityRepo := repository.NewActivityRepository(store)
	if err := seed.Load(ctx, productRepo, userRepo); err != nil {
		return err
	}

	orderWorker := worker.NewOrderWorker(nil, activityRepo, worker.NewDeduper(nil), log)
	products := service.NewProductService(productRepo, nil)
	api := client.NewServiceAPI(
		service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration),
		service.NewCartService(cartRepo, productRepo),
		service.NewOrderService(repository.NewOrderRepository(store), cartRepo, worker.NewDirectPublisher(orderWorker), log),
		cfg.Store.Latency,
	)

	storage := client.NewFileStorage(statePath)
	auth := client.NewAuthContainer(api, storage, log)
	cart := client.NewCartContainer(auth, api, storage, log)
	auth.Init(ctx)

	catalog, err := products.ListByCategory(ctx, "Electronics")
	if err != nil {
		return err
	}
	if len(catalog) > 0 {
		if err := cart.Add(ctx, catalog[0], 1); err != nil && !errors.Is(err, client.ErrInsufficientStock) {
			return err
		}
		log.Info("guest cart", "items", cart.ItemCount(), "total", cart.Total().StringFixed(2))
	}

	if !auth.State().Authenticated() {
		if err := auth.Login(ctx, email, password); err != nil {
			return err
		}
	}
	log.Info("signed in", "user_id", auth.State().User.ID)

	for _, p := range catalog {
		if p.Stock < 2 {
			continue
		}
		if err := cart.Add(ctx, p, 2); err != nil {
			return err
		}
	}

	order, err := cart.Checkout(ctx, model.Address{
		Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701", Country: "US",
	})
	if err != nil {
		return err
	}
	log.Info("checked out", "order_id", order.ID, "items", len(order.Items), "total", order.Total.StringFixed(2))

	auth.Logout(ctx)
	log.Info("signed out", "guest_items", cart.ItemCount())
	return nil
}
