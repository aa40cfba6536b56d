package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/httpserver"
	orderrepo "marketplace/internal/repository/order"
	productrepo "marketplace/internal/repository/product"
	stockrepo "marketplace/internal/repository/stock"
	storerepo "marketplace/internal/repository/store"
	checkoutsvc "marketplace/internal/service/checkout"
	ordersvc "marketplace/internal/service/order"
	"marketplace/internal/service/plangate"
	productsvc "marketplace/internal/service/product"
	"marketplace/pkg/rabbitmq"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var publisher *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		publisher, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			logger.Fatalf("connect to rabbitmq: %v", err)
		}
		defer publisher.Close()
	} else {
		logger.Println("RABBITMQ_URL not set, order events disabled")
	}

	var gate plangate.Gate = plangate.AllowAll{}
	if cfg.PlanGateURL != "" {
		gate = plangate.NewHTTPGate(cfg.PlanGateURL, cfg.PlanGateCacheTTL, logger)
	}

	storeRepo := storerepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	stockRepo := stockrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	productService := productsvc.New(productRepo, gate)
	orderService := ordersvc.New(orderRepo, logger)

	var checkoutService *checkoutsvc.Service
	if publisher != nil {
		checkoutService = checkoutsvc.New(dbpool, productRepo, stockRepo, orderRepo, publisher, logger)
	} else {
		checkoutService = checkoutsvc.New(dbpool, productRepo, stockRepo, orderRepo, nil, logger)
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Stores:   storeRepo,
		Products: productService,
		Checkout: checkoutService,
		Orders:   orderService,
		Stock:    stockRepo,
	}, cfg.CORSOrigins)

	rootCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	group.Go(func() error {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Println("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Fatalf("server error: %v", err)
	}
	logger.Println("server stopped")
}
