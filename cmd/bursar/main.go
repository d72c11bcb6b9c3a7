package main

import (
	"context"

	"bursar/internal/handlers"
	"bursar/pkg/auth"
	"bursar/pkg/config"
	"bursar/pkg/database"
	"bursar/pkg/logging"
	"bursar/pkg/monitoring"
	"bursar/pkg/server"
	"bursar/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("bursar")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Bursar (Lesson Billing API)")

	dbURL := config.RequireEnv("DATABASE_URL")
	jwtSecret := config.RequireEnv("JWT_SECRET")
	serviceToken := config.RequireEnv("SERVICE_TOKEN")

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	if config.GetEnvBool("RUN_MIGRATIONS", true) {
		if err := database.Migrate(context.Background(), db, logger); err != nil {
			logger.WithError(err).Fatal("Schema migration failed")
		}
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("bursar", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("bursar", version.Version, version.GitCommit)

	// Add health checks
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbURL,
		"JWT_SECRET":   jwtSecret,
	}))

	// Create custom billing metrics
	metrics := &handlers.BursarMetrics{
		InvoiceOperations: metricsCollector.NewCounter("invoice_operations_total", "Invoice operations", []string{"operation", "status"}),
		PaymentsProcessed: metricsCollector.NewCounter("payments_processed_total", "Payments processed", []string{"status"}),
		BalanceRecomputes: metricsCollector.NewCounter("balance_recomputes_total", "Balance recomputations", []string{"status"}),
	}

	// Create database metrics
	metrics.DBQueries, metrics.DBDuration, metrics.DBConnections = metricsCollector.CreateDatabaseMetrics()

	// Initialize handlers
	handlers.Init(db, logger, metrics)

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "bursar", healthChecker, metricsCollector)

	// API routes (root level - nginx adds /api/billing/ prefix)
	{
		// Student-facing endpoints, JWT authenticated
		protected := router.Group("")
		protected.Use(auth.JWTAuthMiddleware([]byte(jwtSecret)))
		{
			protected.GET("/billing/balance", handlers.GetBalance)
			protected.GET("/billing/invoices", handlers.GetMyInvoices)
			protected.GET("/billing/transactions", handlers.GetMyTransactions)
			protected.POST("/billing/pay", handlers.PayInvoice)
		}

		// Lesson events and admin tooling (service-to-service)
		serviceAPI := router.Group("")
		serviceAPI.Use(auth.ServiceAuthMiddleware(serviceToken))
		{
			serviceAPI.POST("/lessons/booked", handlers.LessonBooked)
			serviceAPI.PUT("/lessons/:lesson_id", handlers.LessonUpdated)
			serviceAPI.DELETE("/lessons/:lesson_id", handlers.LessonDeleted)

			serviceAPI.GET("/admin/invoices", handlers.GetAllInvoices)
			serviceAPI.GET("/admin/transactions", handlers.GetAllTransactions)
			serviceAPI.GET("/admin/students/:student_id/history", handlers.GetStudentHistory)
			serviceAPI.POST("/admin/accounts/:account_id/recompute", handlers.RecomputeAccountBalance)
		}
	}

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("bursar", "18010")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
