package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"expensetracker/internal/config"
	"expensetracker/internal/handlers"
	"expensetracker/internal/middleware"
	"expensetracker/internal/services"
	"expensetracker/internal/validator"
)

// Services bundles what the router needs from the service layer.
type Services struct {
	Auth    services.AuthServicer
	Tracker services.TrackerServicer
}

// NewServices wires the database-backed services. The tracker follows the
// auth service's session events.
func NewServices(db *gorm.DB, cfg *config.Config) Services {
	auth := services.NewAuthService(db)
	tracker := services.NewTrackerService(
		services.NewTransactionStore(db),
		services.NewPreferenceStore(db),
		services.TrackerConfig{
			Timeout:         cfg.CollaboratorTimeout,
			DefaultCurrency: cfg.DefaultCurrency,
			SummaryLimit:    cfg.SummaryLimit,
		},
	)
	auth.Subscribe(tracker.HandleAuthEvent)
	return Services{Auth: auth, Tracker: tracker}
}

// NewRouter builds the HTTP API.
func NewRouter(svc Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	transactionHandler := handlers.NewTransactionHandler(svc.Tracker)
	preferenceHandler := handlers.NewPreferenceHandler(svc.Tracker)

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Anonymous callers see empty views; mutations answer NOT_AUTHENTICATED.
	views := v1.Group("/")
	views.Use(middleware.OptionalAuth(svc.Auth))
	views.GET("/dashboard", transactionHandler.Dashboard)
	views.GET("/currencies", preferenceHandler.ListCurrencies)
	views.GET("/preferences", preferenceHandler.GetPreferences)

	transactions := views.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(svc.Auth))
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.PUT("/preferences", preferenceHandler.UpdatePreferences)
	protected.POST("/preferences/theme/toggle", preferenceHandler.ToggleTheme)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
