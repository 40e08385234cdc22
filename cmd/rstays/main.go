package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"rstays/internal/app/commands"
	bookingapp "rstays/internal/app/handlers/booking"
	calendarapp "rstays/internal/app/handlers/calendar"
	meapp "rstays/internal/app/handlers/me"
	promoapp "rstays/internal/app/handlers/promo"
	"rstays/internal/app/middleware"
	appoutbox "rstays/internal/app/outbox"
	"rstays/internal/app/queries"
	authsvc "rstays/internal/app/services/auth"
	"rstays/internal/app/uow"
	domaininventory "rstays/internal/domain/inventory"
	domainlistings "rstays/internal/domain/listings"
	domainpromo "rstays/internal/domain/promo"
	"rstays/internal/domain/pricing"
	"rstays/internal/infra/broker/kafka"
	"rstays/internal/infra/config"
	dbmongo "rstays/internal/infra/db/mongo"
	"rstays/internal/infra/holidays"
	ginserver "rstays/internal/infra/http/gin"
	"rstays/internal/infra/locale"
	"rstays/internal/infra/obs"
	outboxinfra "rstays/internal/infra/outbox"
	"rstays/internal/infra/payments"
	"rstays/internal/infra/rates"
	"rstays/internal/infra/security"
	"rstays/internal/infra/storage/memory"
	"rstays/internal/infra/ws"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.StorageMode = "memory"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	store, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage initialization failed", "error", err)
		os.Exit(1)
	}
	defer store.close()

	app := buildApplication(cfg, logger, store)
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: store.ready,
	}, app.handlers)

	if cfg.StorageMode != "mongo" {
		fixturesPath := getenv("STAY_FIXTURES", defaultFixturesPath())
		if err := loadFixtures(ctx, fixturesPath, store.factory, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

// storage groups the persistence-mode specific pieces behind one seam so the
// rest of the wiring is identical for Mongo and in-memory runs.
type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	ready       func() error
	close       func()
}

func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.StorageMode != "mongo" {
		factory := memory.NewFactory()
		return storage{
			factory:     factory,
			outbox:      memory.NewOutbox(),
			idempotency: memory.NewIdempotencyStore(),
			ready:       func() error { return nil },
			close:       func() {},
		}, nil
	}

	client, err := dbmongo.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, fmt.Errorf("connect mongo: %w", err)
	}
	db := client.DB

	factory := dbmongo.Factory{
		DB:            db,
		ListingsRepo:  dbmongo.NewListingRepository(db),
		InventoryRepo: dbmongo.NewInventoryRepository(db),
		BookingsRepo:  dbmongo.NewBookingRepository(db),
		PaymentsRepo:  dbmongo.NewPaymentRepository(db),
		PromosRepo:    dbmongo.NewPromoRepository(db),
		CalendarsRepo: dbmongo.NewCalendarRepository(db),
	}

	outboxStore := outboxinfra.NewStore(db)
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		_ = db.Client().Disconnect(context.Background())
		return storage{}, fmt.Errorf("connect kafka: %w", err)
	}

	hostname, _ := os.Hostname()
	worker := &outboxinfra.Worker{
		Store:       outboxStore,
		Producer:    producer,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		ID:          hostname,
		Backoff:     cfg.RetryBackoff,
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox relay stopped", "error", err)
		}
	}()

	return storage{
		factory:     factory,
		outbox:      outboxStore,
		idempotency: dbmongo.NewIdempotencyStore(db, cfg.IdempotencyTTL),
		ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		},
		close: func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka producer close failed", "error", err)
			}
			if err := db.Client().Disconnect(context.Background()); err != nil {
				logger.Warn("mongo disconnect failed", "error", err)
			}
		},
	}, nil
}

type application struct {
	handlers ginserver.Handlers
}

func buildApplication(cfg config.Config, logger *slog.Logger, store storage) application {
	holidayPort := holidays.NewService()
	ratesPort := rates.NewCachedProvider(redisClientFor(cfg), cfg.RatesTTL)
	translator := locale.StaticTranslator{}
	registry := ws.NewRegistry()
	gateway := payments.NewGateway()
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateCommand{}.Key(), &bookingapp.CreateHandler{
		UoWFactory: store.factory,
		Holidays:   holidayPort,
		Rates:      ratesPort,
		Locale:     translator,
		Registry:   registry,
		Outbox:     store.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.PayCommand{}.Key(), &bookingapp.PayHandler{
		UoWFactory: store.factory,
		Payments:   gateway,
		Registry:   registry,
		Outbox:     store.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelCommand{}.Key(), &bookingapp.CancelHandler{
		UoWFactory: store.factory,
		Payments:   gateway,
		Registry:   registry,
		Outbox:     store.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.ReviewCommand{}.Key(), &bookingapp.ReviewHandler{
		UoWFactory: store.factory,
		Payments:   gateway,
		Registry:   registry,
		Outbox:     store.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, calendarapp.BlockCommand{}.Key(), &calendarapp.BlockHandler{
		UoWFactory: store.factory,
		Outbox:     store.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, calendarapp.UnblockCommand{}.Key(), &calendarapp.UnblockHandler{
		UoWFactory: store.factory,
		Outbox:     store.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, calendarapp.PricesCommand{}.Key(), &calendarapp.PricesHandler{
		UoWFactory: store.factory,
		Outbox:     store.outbox,
		Encoder:    encoder,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, meapp.GuestBookingsQuery{}.Key(), &meapp.GuestBookingsHandler{
		UoWFactory: store.factory,
		Locale:     translator,
	})
	queries.RegisterHandler(queryBus, promoapp.CheckQuery{}.Key(), &promoapp.CheckHandler{
		UoWFactory: store.factory,
	})

	commandPipeline := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(store.idempotency, nil),
		middleware.Transaction(store.factory, nil),
		middleware.OutboxFlush(store.outbox),
	)
	queryPipeline := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(middleware.SelfValidator{}),
	)

	authService := &authsvc.Service{
		Users:     memory.NewUserRepository(),
		Sessions:  memory.NewSessionStore(),
		Passwords: security.BcryptHasher{},
		Tokens:    security.RandomTokenGenerator{},
		Logger:    logger,
	}

	return application{
		handlers: ginserver.Handlers{
			Booking:        ginserver.BookingHandler{Commands: commandPipeline, Logger: logger},
			Calendar:       ginserver.CalendarHandler{Commands: commandPipeline, Logger: logger},
			Promo:          ginserver.PromoHandler{Queries: queryPipeline, Logger: logger},
			Me:             ginserver.MeHandler{Queries: queryPipeline, Logger: logger},
			Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
			WS:             ginserver.WSHandler{Registry: registry, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
		},
	}
}

func redisClientFor(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
}

// loadFixtures seeds the in-memory stores from a JSON file so a dev run has
// bookable inventory without a database.
func loadFixtures(ctx context.Context, path string, factory uow.UoWFactory, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fx fixtureFile
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = unit.Rollback(ctx) }()
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}

	now := time.Now().UTC()
	for _, f := range fx.Units {
		agg := &domaininventory.Unit{
			ID:           f.ID,
			ListingID:    f.ListingID,
			Guests:       f.Guests,
			CheckInTime:  f.CheckInTime,
			CheckOutTime: f.CheckOutTime,
			Requirements: domaininventory.Requirements{MinNights: f.MinNights, MaxNights: f.MaxNights},
			Prices:       f.Prices,
			Rules:        f.Rules,
			Cancellation: domaininventory.CancellationTerms{Days: f.CancelDays, Percent: f.CancelPercent},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := unit.Inventory().SaveUnit(ctx, agg); err != nil {
			logger.Error("cannot store fixture unit", "unit_id", f.ID, "error", err)
		}
	}
	for _, f := range fx.Pools {
		rooms := make([]int, f.Rooms)
		for i := range rooms {
			rooms[i] = i + 1
		}
		agg := &domaininventory.RoomPool{
			ID:           f.ID,
			ListingID:    f.ListingID,
			Guests:       f.Guests,
			CheckInTime:  f.CheckInTime,
			CheckOutTime: f.CheckOutTime,
			Requirements: domaininventory.Requirements{MinNights: f.MinNights, MaxNights: f.MaxNights},
			Prices:       f.Prices,
			Rules:        f.Rules,
			Cancellation: domaininventory.CancellationTerms{Days: f.CancelDays, Percent: f.CancelPercent},
			Rooms:        rooms,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := unit.Inventory().SavePool(ctx, agg); err != nil {
			logger.Error("cannot store fixture pool", "pool_id", f.ID, "error", err)
		}
	}
	for _, f := range fx.Listings {
		listing, err := domainlistings.New(domainlistings.CreateParams{
			ID:      f.ID,
			HostID:  f.HostID,
			Title:   f.Title,
			Country: f.Country,
			City:    f.City,
			Kind:    domaininventory.Kind(f.Kind),
			UnitID:  f.UnitID,
			PoolIDs: f.PoolIDs,
			Now:     now,
		})
		if err != nil {
			logger.Error("fixture listing invalid", "listing_id", f.ID, "error", err)
			continue
		}
		listing.Activate(now)
		listing.ClearEvents()
		if err := unit.Listings().Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", f.ID, "error", err)
			continue
		}
		logger.Info("fixture listing imported", "listing_id", listing.ID)
	}
	for _, f := range fx.Promos {
		promo := &domainpromo.Promo{
			Code:       f.Code,
			Discount:   f.Discount,
			UsageLimit: f.UsageLimit,
		}
		if f.ExpiresAt != "" {
			if t, err := time.Parse(time.RFC3339, f.ExpiresAt); err == nil {
				promo.ExpiresAt = t
			}
		}
		if err := unit.Promos().Save(ctx, promo); err != nil {
			logger.Error("cannot store fixture promo", "code", f.Code, "error", err)
		}
	}

	return unit.Commit(ctx)
}

type fixtureFile struct {
	Listings []listingFixture `json:"listings"`
	Units    []unitFixture    `json:"units"`
	Pools    []poolFixture    `json:"pools"`
	Promos   []promoFixture   `json:"promos"`
}

type listingFixture struct {
	ID      string   `json:"id"`
	HostID  string   `json:"host_id"`
	Title   string   `json:"title"`
	Country string   `json:"country"`
	City    string   `json:"city"`
	Kind    string   `json:"kind"`
	UnitID  string   `json:"unit_id"`
	PoolIDs []string `json:"pool_ids"`
}

type unitFixture struct {
	ID            string         `json:"id"`
	ListingID     string         `json:"listing_id"`
	Guests        int            `json:"guests"`
	CheckInTime   string         `json:"check_in_time"`
	CheckOutTime  string         `json:"check_out_time"`
	MinNights     int            `json:"min_nights"`
	MaxNights     int            `json:"max_nights"`
	CancelDays    int            `json:"cancel_days"`
	CancelPercent float64        `json:"cancel_percent"`
	Prices        pricing.Prices `json:"prices"`
	Rules         pricing.Rules  `json:"rules"`
}

type poolFixture struct {
	ID            string         `json:"id"`
	ListingID     string         `json:"listing_id"`
	Guests        int            `json:"guests"`
	Rooms         int            `json:"rooms"`
	CheckInTime   string         `json:"check_in_time"`
	CheckOutTime  string         `json:"check_out_time"`
	MinNights     int            `json:"min_nights"`
	MaxNights     int            `json:"max_nights"`
	CancelDays    int            `json:"cancel_days"`
	CancelPercent float64        `json:"cancel_percent"`
	Prices        pricing.Prices `json:"prices"`
	Rules         pricing.Rules  `json:"rules"`
}

type promoFixture struct {
	Code       string  `json:"code"`
	Discount   float64 `json:"discount"`
	ExpiresAt  string  `json:"expires_at"`
	UsageLimit int     `json:"usage_limit"`
}

func defaultFixturesPath() string {
	return filepath.Join("data", "fixtures.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
