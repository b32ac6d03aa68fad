// Package server boots the application: connections, middleware stack,
// routes and graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajatverma/kirana/app/controllers"
	"github.com/rajatverma/kirana/app/repositories"
	"github.com/rajatverma/kirana/app/routes"
	"github.com/rajatverma/kirana/app/services"
	"github.com/rajatverma/kirana/config"
	"github.com/rajatverma/kirana/database"
	"github.com/rajatverma/kirana/pkg/cache"
	db "github.com/rajatverma/kirana/pkg/database"
	"github.com/rajatverma/kirana/pkg/i18n"
	"github.com/rajatverma/kirana/pkg/logger"
	"github.com/rajatverma/kirana/pkg/metrics"
	"github.com/rajatverma/kirana/pkg/middleware"
	"github.com/rajatverma/kirana/pkg/reqid"
	"github.com/rajatverma/kirana/pkg/router"
	"github.com/rajatverma/kirana/pkg/storage"
)

// BuildRouter assembles the full middleware stack and route table over
// the connected infrastructure. Split from Run so commands like
// route:list can inspect the table without starting a listener.
func BuildRouter() *router.Router {
	r := router.New()

	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		i18n.Middleware(),
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(300, time.Minute),
	)

	userRepo := repositories.NewUserRepository()
	categoryRepo := repositories.NewCategoryRepository()
	productRepo := repositories.NewProductRepository()
	orderRepo := repositories.NewOrderRepository()

	authSvc := services.NewAuthService(userRepo)
	catalogSvc := services.NewCatalogService(categoryRepo, productRepo)
	orderSvc := services.NewOrderService(orderRepo, productRepo, userRepo)

	routes.Register(r, routes.Controllers{
		Auth:     controllers.NewAuthController(authSvc),
		Category: controllers.NewCategoryController(catalogSvc),
		Product:  controllers.NewProductController(catalogSvc),
		Order:    controllers.NewOrderController(orderSvc),
	})

	r.HandleFunc("/metrics", metrics.Handler())
	return r
}

// Connect brings up every backing dependency. MongoDB is required;
// Redis is optional and its absence only disables the product cache.
func Connect(ctx context.Context) error {
	if err := db.Connect(ctx); err != nil {
		return err
	}

	if err := cache.Connect(ctx); err != nil {
		logger.Warn("redis unavailable, product cache disabled", "error", err)
	}

	storage.Connect()

	if err := database.RunMigrations(ctx); err != nil {
		return err
	}

	if col := config.MongoLogCollection(); col != "" {
		logger.AttachMongoHandler(logger.NewMongoHandler(db.Collection(col)))
	}
	return nil
}

// Run connects, serves and blocks until SIGINT/SIGTERM, then drains
// in-flight requests before returning.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Connect(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cache.Close()
		if err := db.Disconnect(shutdownCtx); err != nil {
			logger.Error("mongo disconnect failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           BuildRouter().Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return err
	}

	logger.Info("stopped")
	return nil
}
