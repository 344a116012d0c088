package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"restaurant/internal/cart"
	"restaurant/internal/config"
	"restaurant/internal/domain/model"
	"restaurant/internal/handler"
	"restaurant/internal/infra/cartstore"
	"restaurant/internal/infra/db"
	"restaurant/internal/infra/event"
	"restaurant/internal/infra/logger"
	infraRepo "restaurant/internal/infra/repository"
	"restaurant/internal/server"
	"restaurant/internal/usecase"
	"restaurant/internal/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.PostgresDSN(), cfg.LogLevel == "debug")
	if err != nil {
		return err
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.MenuItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Reservation{},
		&model.ContactMessage{},
		&model.AuditLog{},
	); err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	checks := map[string]handler.HealthCheck{"postgres": sqlDB.PingContext}

	//カートの保存先（REDIS_URL が無ければメモリ）
	var snapshots cart.SnapshotStore = cart.NewMemorySnapshotStore().WithTTL(cfg.CartTTL)
	if cfg.RedisURL != "" {
		rdb, err := db.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		snapshots = cartstore.NewRedisSnapshotStore(rdb, cfg.CartTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn("REDIS_URL is not set; carts are kept in memory only")
	}
	// CART_TTL 触られていないカートはメモリから外す（保存先から復元できる）
	carts := cart.NewRegistry(snapshots, cfg.CartPersistTimeout, log).WithIdleTimeout(cfg.CartTTL)
	go carts.Run(ctx, 0)

	//注文イベント（KAFKA_BROKERS が無ければログに出すだけ）
	var publisher event.Publisher = event.NewLogPublisher(log, cfg.KafkaTopicOrders)
	if len(cfg.KafkaBrokers) > 0 {
		publisher = event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicOrders)
	}
	defer publisher.Close()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	menuRepo := infraRepo.NewMenuItemGormRepository(gormDB)
	reservationRepo := infraRepo.NewReservationGormRepository(gormDB)
	contactRepo := infraRepo.NewContactMessageGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg.JWTSecret, cfg.AccessTTL, userRepo, auditRepo, validator.NewAuthValidator())
	menuUC := usecase.NewMenuUsecase(menuRepo, categoryRepo, auditRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)

	//管理者の初期作成
	if cfg.AdminEmail != "" {
		created, err := authUC.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			log.Info("admin user created", "email", cfg.AdminEmail)
		}
	}

	//Handler生成
	srv := server.New(cfg, log, server.Handlers{
		Guards:      handler.Guards{JWTSecret: cfg.JWTSecret, Users: userRepo},
		Health:      handler.NewHealthHandler(log, checks),
		Auth:        handler.NewAuthHandler(authUC),
		Menu:        handler.NewMenuHandler(menuUC, categoryUC),
		Cart:        handler.NewCartHandler(usecase.NewCartUsecase(carts, menuRepo), cfg.CartTTL, cfg.IsProduction()),
		Order:       handler.NewOrderHandler(usecase.NewOrderUsecase(txm, carts, publisher, log)),
		Reservation: handler.NewReservationHandler(usecase.NewReservationUsecase(reservationRepo, auditRepo)),
		Contact:     handler.NewContactHandler(usecase.NewContactUsecase(contactRepo)),
		AdminMenu:   handler.NewAdminMenuHandler(menuUC, categoryUC),
		AdminOrder:  handler.NewAdminOrderHandler(usecase.NewAdminOrderUsecase(txm, publisher, log)),
		AdminUser:   handler.NewAdminUserHandler(authUC, usecase.NewAuditLogUsecase(auditRepo)),
	})

	//Server起動
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	// 書きかけのカートを待つ
	carts.Wait()
	if err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
