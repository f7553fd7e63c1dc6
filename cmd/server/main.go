package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livecart/internal/catalog"
	"livecart/internal/client/facebook"
	"livecart/internal/client/shopify"
	"livecart/internal/client/smartcart"
	"livecart/internal/config"
	cronrunner "livecart/internal/cron"
	"livecart/internal/db"
	"livecart/internal/events"
	"livecart/internal/feed"
	"livecart/internal/handler"
	"livecart/internal/logger"
	"livecart/internal/messenger"
	"livecart/internal/models"
	gormrepository "livecart/internal/repository/gorm"
	"livecart/internal/trigger"
)

func main() {
	cfgPath := os.Getenv("LC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("LC_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	facebookClient := &facebook.Client{
		BaseURL:   cfg.Facebook.BaseURL,
		PageID:    cfg.Facebook.PageID,
		PageToken: cfg.Facebook.PageToken,
		HTTP:      &http.Client{Timeout: cfg.Facebook.Timeout},
	}
	shopifyClient := &shopify.Client{
		StoreName:   cfg.Shopify.StoreName,
		AccessToken: cfg.Shopify.AccessToken,
		HTTP:        &http.Client{Timeout: cfg.Shopify.Timeout},
	}
	cartClient := &smartcart.Client{
		BaseURL:      cfg.SmartCart.BaseURL,
		AuthorizeURL: cfg.SmartCart.AuthorizeURL,
		HTTP:         &http.Client{Timeout: cfg.SmartCart.Timeout},
	}

	store := gormrepository.New(dbConn.Gorm)

	assigner := &trigger.Assigner{
		Repo:      store,
		Catalog:   shopifyClient,
		Logger:    logger,
		Sequences: cfg.Trigger.SkuLetters,
	}
	releaser := &trigger.Releaser{
		Repo:      store,
		Catalog:   shopifyClient,
		Logger:    logger,
		ChunkSize: cfg.Trigger.ReleaseChunkSize,
	}
	syncer := &catalog.Syncer{
		Repo:       store,
		Shopify:    shopifyClient,
		Assigner:   assigner,
		AutoAssign: cfg.Trigger.AutoAssign,
		Logger:     logger,
	}

	builder := &messenger.Builder{
		StoreName: cfg.Shopify.StoreName,
		Auth:      cartClient,
	}
	sender := &messenger.Sender{
		Repo:     store,
		Facebook: facebookClient,
		Logger:   logger,
	}
	reserver := &messenger.Reserver{
		Repo:    store,
		Cart:    cartClient,
		Builder: builder,
		Sender:  sender,
		Logger:  logger,
	}
	coordinator := &messenger.Coordinator{
		Repo:     store,
		Cart:     cartClient,
		Posts:    facebookClient,
		Builder:  builder,
		Sender:   sender,
		Reserver: reserver,
		Logger:   logger,
	}

	dispatcher := events.NewDispatcher(cfg.Dispatcher.QueueSize, logger)

	feedService := &feed.Service{
		Repo:     store,
		Facebook: facebookClient,
		Logger:   logger,
	}
	commentIngestor := &feed.CommentIngestor{
		Repo:   store,
		Logger: logger,
		OnComment: func(comment *models.Comment) {
			commentID := comment.ID
			dispatcher.Dispatch("coordinate-message", func(ctx context.Context) error {
				return coordinator.Coordinate(ctx, commentID)
			})
		},
	}
	retention := &feed.Retention{
		Repo:      store,
		Logger:    logger,
		Days:      cfg.Retention.Days,
		BatchSize: cfg.Retention.BatchSize,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	facebookWebhook := &handler.FacebookWebhookHandler{
		Comments:    commentIngestor,
		Posts:       feedService,
		Coordinator: coordinator,
		Dispatcher:  dispatcher,
		VerifyToken: cfg.Facebook.VerifyToken,
		Logger:      logger,
	}
	facebookWebhook.Register(engine)
	shopifyWebhook := &handler.ShopifyWebhookHandler{
		Syncer:    syncer,
		APISecret: cfg.Shopify.APISecret,
		Logger:    logger,
	}
	shopifyWebhook.Register(engine)
	productHandler := &handler.ProductHandler{
		Repo:       store,
		Syncer:     syncer,
		Assigner:   assigner,
		Releaser:   releaser,
		Dispatcher: dispatcher,
		AutoAssign: cfg.Trigger.AutoAssign,
		Logger:     logger,
	}
	productHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher.Start(ctx)

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.LiveStatus != "" {
		_, err = cronRunner.Add(cfg.Cron.LiveStatus, func(ctx context.Context) {
			if err := feedService.UpdateLiveStatuses(ctx); err != nil {
				logger.Warn("live status sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register live status failed", zap.Error(err))
		}
	}
	if cfg.Cron.CommentRetention != "" {
		_, err = cronRunner.Add(cfg.Cron.CommentRetention, func(ctx context.Context) {
			if err := retention.DeleteOldComments(ctx); err != nil {
				logger.Warn("comment retention sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register comment retention failed", zap.Error(err))
		}
	}
	if cfg.Cron.CatalogSync != "" {
		_, err = cronRunner.Add(cfg.Cron.CatalogSync, func(ctx context.Context) {
			if err := syncer.SyncAll(ctx); err != nil {
				logger.Warn("cron catalog sync failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register catalog sync failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	dispatcher.Wait()
}
