// Package server wires configuration, storage and services into the HTTP
// kernel and runs it until the process is signalled.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aniicone/cafe-api/app/models"
	"github.com/aniicone/cafe-api/app/repositories"
	"github.com/aniicone/cafe-api/app/routes"
	"github.com/aniicone/cafe-api/app/services"
	"github.com/aniicone/cafe-api/config"
	"github.com/aniicone/cafe-api/internal/kernel"
	"github.com/aniicone/cafe-api/pkg/auth"
	"github.com/aniicone/cafe-api/pkg/cache"
	"github.com/aniicone/cafe-api/pkg/database"
	"github.com/aniicone/cafe-api/pkg/event"
	"github.com/aniicone/cafe-api/pkg/logger"
	"github.com/aniicone/cafe-api/pkg/router"
	"github.com/aniicone/cafe-api/pkg/storage"
	"github.com/aniicone/cafe-api/pkg/ws"
)

const shutdownTimeout = 30 * time.Second

// Start validates configuration, connects MongoDB and serves until
// SIGINT or SIGTERM, then drains in-flight requests.
func Start() error {
	if err := config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = database.Disconnect(dctx)
	}()

	if config.LogToMongo() {
		h := logger.NewMongoHandler(database.DB, "logs", slog.LevelWarn)
		defer h.Close()
		logger.SetDefault(slog.New(logger.NewMultiHandler(logger.L.Handler(), h)))
	}

	if err := repositories.EnsureIndexes(ctx, database.DB); err != nil {
		logger.Warn("server: ensure indexes failed", "error", err)
	}
	if err := repositories.SyncOrderCounter(ctx, database.DB); err != nil {
		return fmt.Errorf("server: sync order counter: %w", err)
	}

	provider, err := NewIdentityProvider(ctx)
	if err != nil {
		return err
	}
	store, closeStore, err := NewPaymentStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	storage.Connect(ctx)
	disk, err := storage.Default()
	if err != nil {
		return err
	}

	app := Wire(database.DB, provider, store, disk)
	go app.Hub.Run(ctx)

	if brokers := config.KafkaBrokers(); len(brokers) > 0 {
		producer, err := event.NewKafkaProducer(brokers)
		if err != nil {
			return err
		}
		pub := event.NewKafkaPublisher(producer, OrderKey)
		defer pub.Close()
		pub.Attach(app.Bus)
		logger.Info("server: publishing order events to kafka", "brokers", brokers)
	}

	k, err := kernel.NewHTTPKernel(kernelOptions(), func(r *router.Router) error {
		return routes.RegisterAPI(r, app.Deps)
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + config.Port(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	app.Bus.Wait()
	return nil
}

// App holds the wired services.
type App struct {
	Deps routes.Deps
	Bus  *event.Bus
	Hub  *ws.Hub
}

// Wire builds the services over db and connects order events to the
// live feed.
func Wire(db *mongo.Database, provider auth.Provider, store cache.Store, disk storage.Disk) *App {
	users := repositories.NewUserRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	counters := repositories.NewCounterRepository(db)

	bus := event.NewBus()
	hub := ws.NewHub(config.CORSOrigins()...)
	LiveFeed(bus, hub)

	gateway := services.NewCashfreeGateway(
		services.CashfreeBaseURL(config.CashfreeSandbox()),
		config.CashfreeClientID(),
		config.CashfreeClientSecret(),
	)

	return &App{
		Bus: bus,
		Hub: hub,
		Deps: routes.Deps{
			Identity:       services.NewIdentityService(provider, users),
			Menu:           services.NewMenuService(menuRepo, disk),
			Orders:         services.NewOrderService(orderRepo, menuRepo, counters, bus),
			Payments:       services.NewPaymentService(gateway, services.NewPaymentCache(store, config.PaymentCacheTTL()), config.PaymentCurrency()),
			Hub:            hub,
			AdminSecretKey: config.AdminSecretKey,
		},
	}
}

// Broadcaster fans a message out to connected clients.
type Broadcaster interface {
	Broadcast(msg []byte)
}

type liveMessage struct {
	Event string      `json:"event"`
	Order interface{} `json:"order"`
}

// LiveFeed forwards every bus event to b as {"event","order"} JSON.
func LiveFeed(bus *event.Bus, b Broadcaster) {
	bus.Listen("*", func(name string, payload interface{}) {
		msg, err := json.Marshal(liveMessage{Event: name, Order: payload})
		if err != nil {
			logger.Warn("server: encode live event", "event", name, "error", err)
			return
		}
		b.Broadcast(msg)
	})
}

// OrderKey partitions order events by order id.
func OrderKey(payload interface{}) string {
	if d, ok := payload.(*models.OrderDetail); ok && d != nil {
		return d.ID.Hex()
	}
	return ""
}

// NewIdentityProvider returns the provider selected by IDENTITY_PROVIDER.
func NewIdentityProvider(ctx context.Context) (auth.Provider, error) {
	if config.IdentityProvider() == "local" {
		logger.Warn("server: using local identity provider")
		return auth.NewLocalProvider(config.LocalIdentitySecret()), nil
	}
	return auth.NewFirebaseProvider(ctx, config.FirebaseProjectID(), config.FirebaseServiceAccount())
}

// NewPaymentStore returns the cache selected by PAYMENT_CACHE_DRIVER and
// a func that releases it.
func NewPaymentStore(ctx context.Context) (cache.Store, func(), error) {
	if config.PaymentCacheDriver() != "redis" {
		return cache.NewMemory(), func() {}, nil
	}
	rdb, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword())
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedis(rdb, "cafe:"), func() { _ = rdb.Close() }, nil
}

// RouteTable lists every route without connecting to anything.
func RouteTable() ([]router.RouteInfo, error) {
	k, err := kernel.NewHTTPKernel(kernel.Options{}, func(r *router.Router) error {
		return routes.RegisterAPI(r, routes.Deps{})
	})
	if err != nil {
		return nil, err
	}
	return k.Routes(), nil
}

func kernelOptions() kernel.Options {
	opts := kernel.Options{
		CORSOrigins:        config.CORSOrigins(),
		RateLimitPerMinute: config.RateLimitPerMinute(),
		TrustedProxies:     config.TrustedProxies(),
		Ping:               func(r *http.Request) error { return database.Ping(r.Context()) },
	}
	if config.StorageDefault() == "local" {
		if d, err := storage.Use("local"); err == nil {
			if ld, ok := d.(*storage.LocalDisk); ok {
				opts.StorageRoot = ld.Root()
			}
		}
	}
	return opts
}
