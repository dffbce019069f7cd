package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"starter-server/confs"
	"starter-server/db"
	"starter-server/handlers"
	httpHandler "starter-server/handlers/http"
	"starter-server/logger"
	"starter-server/metrics"
	"starter-server/middleware"
	"starter-server/repositories"
	"starter-server/services"
	"starter-server/usecases"
	"starter-server/ws"

	"github.com/gin-gonic/gin"
)

const (
	shutdownTimeout  = 10 * time.Second
	janitorInterval  = time.Hour
	limiterIdleAfter = 10 * time.Minute
)

type Server struct {
	app *gin.Engine
	db  db.Database
	cfg *confs.Config
	log logger.Logger

	manager   *ws.Manager
	processor *services.UsageProcessor
	limiter   *middleware.RateLimiter
	auth      *usecases.AuthUseCase
}

func NewServer(cfg *confs.Config, database db.Database, log logger.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		app:     gin.New(),
		db:      database,
		cfg:     cfg,
		log:     log,
		manager: ws.NewManager(),
		limiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log),
	}
	s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.app }

// Processor returns the usage processor so callers can flush on demand.
func (s *Server) Processor() *services.UsageProcessor { return s.processor }

func (s *Server) routes() {
	s.app.Use(
		middleware.Recovery(s.log),
		middleware.RequestLogger(s.log),
		middleware.CORS(s.cfg.CORSOrigins),
		metrics.Middleware(),
	)

	// Setup healthcheck route
	s.app.GET("/health", s.health)
	s.app.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Initialize repositories
	userRepo := repositories.NewUserRepository(s.db)
	sessionRepo := repositories.NewSessionRepository(s.db)
	settingsRepo := repositories.NewSettingsRepository(s.db)
	customerRepo := repositories.NewCustomerRepository(s.db)
	invoiceRepo := repositories.NewInvoiceRepository(s.db)
	notificationRepo := repositories.NewNotificationRepository(s.db)
	usageRepo := repositories.NewUsageRepository(s.db)
	uploadRepo := repositories.NewUploadRepository(s.db)

	// Usage buffer, flushed in the background by Run
	s.processor = services.NewUsageProcessor(usageRepo, s.log, s.cfg.UsageFlushInterval)

	// Initialize use cases
	s.auth = usecases.NewAuthUseCase(userRepo, sessionRepo, settingsRepo, s.cfg.Auth)
	userUseCase := usecases.NewUserUseCase(userRepo, sessionRepo)
	customerUseCase := usecases.NewCustomerUseCase(customerRepo)
	settingsUseCase := usecases.NewSettingsUseCase(settingsRepo)
	notificationUseCase := usecases.NewNotificationUseCase(notificationRepo, userRepo, s.manager, s.log)
	billingUseCase := usecases.NewBillingUseCase(invoiceRepo, customerRepo)
	usageUseCase := usecases.NewUsageUseCase(usageRepo, s.processor)
	statsUseCase := usecases.NewStatsUseCase(userRepo, customerRepo, invoiceRepo, usageRepo, notificationRepo)
	reportUseCase := usecases.NewReportUseCase(userRepo, customerRepo, invoiceRepo, usageRepo, s.processor)
	uploadUseCase := usecases.NewUploadUseCase(uploadRepo, userRepo, s.cfg.Upload, s.processor)

	// Writes that change dashboard figures drop the cached stats
	s.auth.Stats = statsUseCase
	userUseCase.Stats = statsUseCase
	customerUseCase.Stats = statsUseCase
	notificationUseCase.Stats = statsUseCase
	billingUseCase.Stats = statsUseCase

	// Initialize handlers
	authHandler := httpHandler.NewAuthHandler(s.auth, uploadUseCase, s.cfg.IsProduction(), s.log)
	userHandler := httpHandler.NewUserHandler(userUseCase, s.log)
	customerHandler := httpHandler.NewCustomerHandler(customerUseCase, billingUseCase, s.log)
	settingsHandler := httpHandler.NewSettingsHandler(settingsUseCase, s.log)
	notificationHandler := httpHandler.NewNotificationHandler(notificationUseCase, s.log)
	billingHandler := httpHandler.NewBillingHandler(billingUseCase, s.log)
	usageHandler := httpHandler.NewUsageHandler(usageUseCase, statsUseCase, s.log)
	reportHandler := httpHandler.NewReportHandler(reportUseCase, s.log)
	uploadHandler := httpHandler.NewUploadHandler(uploadUseCase, s.log)

	// WebSocket handler and admin views of in-memory state
	wsHandler := handlers.NewWSHandler(s.manager, notificationUseCase, s.cfg.CORSOrigins, s.log)
	bufferHandler := handlers.NewUsageBufferHandler(s.processor, s.log)

	if err := metrics.RegisterGauge("ws", "connections", "Open websocket connections.", func() float64 {
		return float64(s.manager.Count())
	}); err != nil {
		s.log.Debug("websocket gauge not registered: ", err)
	}

	requireAuth := middleware.Auth(s.auth, s.log)
	requireAdmin := middleware.RequireAdmin()

	// Setup API routes
	api := s.app.Group("/api/v1")
	{
		// Public auth routes are rate limited per client IP
		public := api.Group("/auth", s.limiter.Handler())
		{
			public.POST("/register", authHandler.Register)
			public.POST("/login", authHandler.Login)
		}

		protected := api.Group("", requireAuth, middleware.UsageRecorder(s.processor))

		auth := protected.Group("/auth")
		{
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/logout-all", authHandler.LogoutAll)
			auth.GET("/me", authHandler.Me)
			auth.PUT("/me/password", authHandler.ChangePassword)
			auth.POST("/me/avatar", authHandler.UploadAvatar)
		}

		users := protected.Group("/users", requireAdmin)
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", userHandler.CreateUser)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		customers := protected.Group("/customers")
		{
			customers.GET("", customerHandler.ListCustomers)
			customers.POST("", customerHandler.CreateCustomer)
			customers.GET("/:id", customerHandler.GetCustomer)
			customers.PUT("/:id", customerHandler.UpdateCustomer)
			customers.DELETE("/:id", customerHandler.DeleteCustomer)
			customers.GET("/:id/invoices", customerHandler.ListCustomerInvoices)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("", settingsHandler.UpdateSettings)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("", requireAdmin, notificationHandler.CreateNotification)
		}
		// Upgrades are long-lived and not metered as api_requests
		api.GET("/notifications/ws", requireAuth, wsHandler.HandleNotificationsWS)

		billing := protected.Group("/billing")
		{
			billing.GET("/invoices", billingHandler.ListInvoices)
			billing.POST("/invoices", requireAdmin, billingHandler.CreateInvoice)
			billing.POST("/invoices/:id/pay", requireAdmin, billingHandler.PayInvoice)
			billing.POST("/invoices/:id/void", requireAdmin, billingHandler.VoidInvoice)
			billing.GET("/summary", billingHandler.Summary)
		}

		usage := protected.Group("/usage")
		{
			usage.GET("/summary", usageHandler.Summary)
			usage.GET("/daily", usageHandler.Daily)
		}
		protected.GET("/stats/dashboard", usageHandler.Dashboard)

		protected.GET("/reports/:kind", requireAdmin, reportHandler.Export)

		uploads := protected.Group("/uploads")
		{
			uploads.POST("", uploadHandler.Create)
			uploads.GET("", uploadHandler.List)
			uploads.GET("/:id", uploadHandler.Get)
			uploads.GET("/:id/download", uploadHandler.Download)
			uploads.DELETE("/:id", uploadHandler.Delete)
		}

		admin := protected.Group("/admin", requireAdmin)
		{
			admin.POST("/usage/flush", bufferHandler.Flush)
			admin.GET("/usage/buffer", bufferHandler.GetBuffer)
			admin.GET("/connections", wsHandler.GetConnections)
		}
	}
}

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.GetDB().DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err = sqlDB.PingContext(ctx)
		cancel()
	}
	if err != nil {
		s.log.Error("health check failed: ", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK", "database": "up"})
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves HTTP and the background jobs until ctx is done, then drains
// requests, closes websockets, flushes usage and closes the database.
func (s *Server) Run(ctx context.Context) error {
	jobs, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	flushed := s.processor.Start(jobs)
	s.limiter.StartCleanup(jobs, time.Minute, limiterIdleAfter)
	go s.sessionJanitor(jobs)

	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening on ", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info("shutting down")
	case runErr = <-serveErr:
		s.log.Error("HTTP server failed: ", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.manager.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("HTTP shutdown: ", err)
	}

	cancelJobs()
	<-flushed

	if err := s.db.Close(); err != nil {
		s.log.Error("closing database: ", err)
	}
	s.log.Info("server stopped")
	return runErr
}

func (s *Server) sessionJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.auth.PurgeExpiredSessions(ctx)
			if err != nil {
				s.log.Error("session purge failed: ", err)
				continue
			}
			if n > 0 {
				s.log.Info("purged ", n, " expired sessions")
			}
		}
	}
}
