package httpserver

import (
	"context"
	"log"
	"regexp"
	"sync"

	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	checkoutsvc "marketplace/internal/service/checkout"
	productsvc "marketplace/internal/service/product"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps carries the services the routes are built on.
type Deps struct {
	Stores   storeRepo
	Products productService
	Checkout checkoutService
	Orders   orderService
	Stock    stockService
}

type storeRepo interface {
	GetByKey(ctx context.Context, key string) (*domain.Store, error)
}

type productService interface {
	List(ctx context.Context, storeID string) ([]domain.Product, error)
	Get(ctx context.Context, storeID, id string) (*domain.Product, error)
	Create(ctx context.Context, store *domain.Store, in productsvc.CreateInput) (*domain.Product, error)
}

type checkoutService interface {
	Checkout(ctx context.Context, in checkoutsvc.Input) (*domain.Order, error)
}

type orderService interface {
	Get(ctx context.Context, storeID, id string) (*domain.Order, error)
	List(ctx context.Context, storeID string) ([]domain.Order, error)
	Transition(ctx context.Context, storeID, id string, target domain.OrderStatus) (*domain.Order, error)
}

type stockService interface {
	GetMany(ctx context.Context, variationIDs []string) (map[string]domain.StockRecord, error)
}

var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 -]{8,18}[0-9]$`)

var registerValidatorsOnce sync.Once

func registerValidators() {
	registerValidatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
				return phoneRe.MatchString(fl.Field().String())
			})
		}
	})
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	registerValidators()

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(corsOrigins) > 0 {
		corsCfg.AllowOrigins = corsOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Idempotency-Key")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(metrics.Register(nil)))

	store := router.Group("/stores/:storeKey")
	store.Use(storeMiddleware(deps.Stores))
	{
		store.GET("/products", listProductsHandler(deps.Products))
		store.POST("/products", createProductHandler(deps.Products))
		store.GET("/products/:id", getProductHandler(deps.Products))

		store.GET("/stock", stockHandler(deps.Stock))

		store.POST("/checkout", checkoutHandler(deps.Checkout))

		store.GET("/orders", listOrdersHandler(deps.Orders))
		store.GET("/orders/:id", getOrderHandler(deps.Orders))
		store.POST("/orders/:id/status", transitionOrderHandler(deps.Orders))
	}

	return router
}
