package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/afrovod/afrovod/adapters/event"
	httpAdapter "github.com/afrovod/afrovod/adapters/http"
	"github.com/afrovod/afrovod/adapters/media_storage"
	"github.com/afrovod/afrovod/adapters/persistence"
	authUC "github.com/afrovod/afrovod/internal/application/usecase/auth"
	"github.com/afrovod/afrovod/internal/application/usecase/catalogbrowse"
	"github.com/afrovod/afrovod/internal/application/usecase/ledger"
	"github.com/afrovod/afrovod/internal/application/usecase/orderflow"
	"github.com/afrovod/afrovod/internal/application/usecase/recommend"
	"github.com/afrovod/afrovod/internal/application/usecase/selection"
	"github.com/afrovod/afrovod/internal/application/usecase/stream"
	"github.com/afrovod/afrovod/internal/config"
	"github.com/afrovod/afrovod/internal/domain/catalog"
	"github.com/afrovod/afrovod/pkg/auth"
	"github.com/afrovod/afrovod/pkg/logger"
	"github.com/afrovod/afrovod/pkg/securelink"
)

func main() {
	fmt.Println("Start AfroVOD API Server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)

	unit, err := catalog.ParseLoadUnit(cfg.Sales.Unit)
	if err != nil {
		log.Fatalf("FATAL: invalid sales unit: %v", err)
	}

	// Initialize dependencies
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot connect Postgres: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("FATAL: cannot connect Redis: %v", err)
	}
	defer redisClient.Close()

	kafkaClient, err := event.NewKafkaProducerClient(cfg)
	if err != nil {
		log.Fatalf("FATAL: cannot init Kafka: %v", err)
	}
	defer kafkaClient.Close()

	// Repositories
	memberRepo := persistence.NewPostgresMemberRepo(dbPool)
	categoryRepo := persistence.NewPostgresCategoryRepo(dbPool)
	movieRepo := persistence.NewPostgresMovieRepo(dbPool)
	seriesRepo := persistence.NewPostgresSeriesRepo(dbPool)
	episodeRepo := persistence.NewPostgresEpisodeRepo(dbPool)
	prepaymentRepo := persistence.NewPostgresPrepaymentRepo(dbPool)
	bundleRepo := persistence.NewPostgresBundleRepo(dbPool)
	walletRepo := persistence.NewPostgresWalletRepo(dbPool)
	updateRepo := persistence.NewPostgresUpdateRepo(dbPool)
	streamLogRepo := persistence.NewPostgresStreamLogRepo(dbPool)
	historyRepo := persistence.NewPostgresHistoryRepo(dbPool)
	recommendCache := persistence.NewRedisRecommendCache(redisClient)
	txManager := persistence.NewTxManager(dbPool)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	prober := media_storage.NewHeadProber(10 * time.Second)
	signer := securelink.NewSigner(cfg.Media.LinkSecret, cfg.Media.BaseFolder, cfg.Media.LinkBaseURL)

	// Use Cases
	checkoutUseCase := ledger.NewCheckoutUseCase(prepaymentRepo, bundleRepo, cfg.Sales, appLogger)
	confirmPaymentUseCase := ledger.NewConfirmPaymentUseCase(prepaymentRepo, walletRepo, cfg.Sales, appLogger)
	debitRetailUseCase := ledger.NewDebitRetailUseCase(prepaymentRepo, unit)
	debitStreamUseCase := ledger.NewDebitStreamUseCase(prepaymentRepo, streamLogRepo, appLogger)

	loginUseCase := authUC.NewLoginUseCase(memberRepo, jwtSvc)
	registerUseCase := authUC.NewRegisterUseCase(memberRepo, checkoutUseCase, jwtSvc, appLogger)

	browseUseCase := catalogbrowse.NewBrowseUseCase(categoryRepo, movieRepo, seriesRepo, episodeRepo)
	watchedUseCase := recommend.NewWatchedUseCase(streamLogRepo, movieRepo, seriesRepo, episodeRepo, categoryRepo)
	shareUseCase := recommend.NewShareUseCase(movieRepo, seriesRepo)
	recommendUseCase := recommend.NewRecommendUseCase(watchedUseCase, shareUseCase, movieRepo, seriesRepo, recommendCache, appLogger)

	resolveUseCase := stream.NewResolveUseCase(cfg.Media, prober, signer)
	interestLogger := stream.NewInterestLogger(streamLogRepo)
	accessUseCase := stream.NewCheckAccessUseCase(
		memberRepo, prepaymentRepo, bundleRepo,
		movieRepo, seriesRepo, episodeRepo,
		resolveUseCase, interestLogger, appLogger,
	)

	progressUseCase := stream.NewWatchProgressUseCase(historyRepo, movieRepo, seriesRepo, episodeRepo)

	startSelectUseCase := selection.NewStartAutoSelectUseCase(updateRepo, kafkaClient, appLogger)
	statusUseCase := orderflow.NewStatusUseCase(updateRepo)
	confirmOrderUseCase := orderflow.NewConfirmOrderUseCase(updateRepo, movieRepo, seriesRepo, episodeRepo, debitRetailUseCase, unit, appLogger)
	startDeliveryUseCase := orderflow.NewStartDeliveryUseCase(updateRepo, kafkaClient, appLogger)
	authorizeUseCase := orderflow.NewAuthorizeUseCase(memberRepo, updateRepo, debitRetailUseCase, txManager, unit, appLogger)

	// HTTP Handlers
	authHandler := httpAdapter.NewAuthHandler(loginUseCase, registerUseCase)
	catalogHandler := httpAdapter.NewCatalogHandler(browseUseCase, recommendUseCase, memberRepo)
	streamHandler := httpAdapter.NewStreamHandler(accessUseCase, debitStreamUseCase, progressUseCase, recommendUseCase, memberRepo, appLogger)
	salesHandler := httpAdapter.NewSalesHandler(checkoutUseCase, confirmPaymentUseCase, bundleRepo)
	orderHandler := httpAdapter.NewOrderHandler(startSelectUseCase, statusUseCase, confirmOrderUseCase, startDeliveryUseCase, unit)
	providerHandler := httpAdapter.NewProviderHandler(authorizeUseCase)

	// Middleware
	authMiddleware := httpAdapter.AuthMiddleware(jwtSvc)
	optionalAuth := httpAdapter.OptionalAuthMiddleware(jwtSvc)

	// Setup Gin router
	router := gin.Default()

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		apiAuth := api.Group("/auth")
		{
			apiAuth.POST("/login", authHandler.Login)
			apiAuth.POST("/register", authHandler.Register)
		}

		media := api.Group("/media")
		{
			media.GET("/categories", catalogHandler.ListCategories)
			media.GET("/categories/:slug", catalogHandler.CategoryShelf)
			media.GET("/recent", catalogHandler.RecentReleases)
			media.GET("/search", catalogHandler.Search)
			media.GET("/movies/:slug", catalogHandler.GetMovie)
			media.GET("/series/:slug", catalogHandler.GetSeries)

			recommended := media.Group("/recommended")
			recommended.Use(authMiddleware)
			{
				recommended.GET("", catalogHandler.Recommended)
				recommended.GET("/:slug", catalogHandler.RecommendedByCategory)
			}
		}

		streamGroup := api.Group("/stream")
		{
			streamGroup.POST("/access", optionalAuth, streamHandler.Access)
			streamGroup.POST("/download", optionalAuth, streamHandler.Download)
			streamGroup.POST("/debit", authMiddleware, httpAdapter.RefererGuard(), streamHandler.Debit)
			streamGroup.POST("/progress", authMiddleware, streamHandler.Progress)
			streamGroup.GET("/history", authMiddleware, streamHandler.History)
		}

		sales := api.Group("/sales")
		{
			sales.GET("/bundles", salesHandler.ListBundles)
			sales.POST("/checkout", authMiddleware, salesHandler.Checkout)
			// Gateway callback; authenticated by gateway signature upstream.
			sales.POST("/confirm", salesHandler.ConfirmPayment)
		}

		orders := api.Group("/orders")
		orders.Use(authMiddleware)
		{
			orders.POST("/auto-select", orderHandler.StartAutoSelect)
			orders.GET("/:id", orderHandler.Status)
			orders.POST("/commit", orderHandler.Commit)
			orders.POST("/items", orderHandler.AddManualItems)
			orders.DELETE("/:id", orderHandler.Cancel)
			orders.POST("/:id/deliver", orderHandler.StartDelivery)
		}

		provider := api.Group("/provider")
		{
			provider.POST("/authorize", providerHandler.Authorize)
		}
	}

	log.Printf("Server running on port %s", cfg.App.Port)
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Cannot run server: %v", err)
	}
}
