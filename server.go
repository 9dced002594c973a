package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/middlewares"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/mmdatafocus/gate_entry/workflow"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// Set once the database is connected; handlers read them per request.
var (
	jobQueue     models.JobQueue
	jobProcessor *workflow.JobProcessor
)

func gatePassEngine() *models.GatePassEngine {
	return models.NewGatePassEngine(models.NewGormStore(config.GetDB()), models.RolePermissionChecker{}, jobQueue)
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func newRouter(logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(middlewares.ReadinessMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// production requires an explicit allowlist; an empty one denies every origin
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "x-correlation-id")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if config.RateLimitEnabled() {
		limit := envInt64("RATE_LIMIT_MAX_REQUESTS", 600)
		windowSec := envInt64("RATE_LIMIT_WINDOW_SECONDS", 60)
		r.Use(middlewares.RateLimitMiddleware(limit, time.Duration(windowSec)*time.Second))
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	r.Use(middlewares.ErrorLoggerMiddleware(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)
	return r
}

func registerRoutes(r *gin.Engine) {
	r.POST("/api/login", loginHandler())

	api := r.Group("/api", middlewares.RequireSession())
	api.POST("/logout", logoutHandler())
	api.POST("/change-password", changePasswordHandler())

	refs := api.Group("/references/:doctype/:name")
	refs.GET("/items", referenceItemsHandler())
	refs.GET("/address", referenceAddressHandler())
	refs.GET("/details", referenceDetailsHandler())
	refs.GET("/compliance-status", referenceComplianceHandler())
	refs.GET("/received-qty", referenceReceivedQtyHandler())

	gp := api.Group("/gate-passes", invalidateReportsOnWrite())
	gp.GET("", listGatePassesHandler())
	gp.POST("", createGatePassHandler())
	gp.GET("/:name", getGatePassHandler())
	gp.PUT("/:name", updateGatePassHandler())
	gp.DELETE("/:name", deleteGatePassHandler())
	gp.POST("/:name/submit", submitGatePassHandler())
	gp.POST("/:name/cancel", cancelGatePassHandler())
	gp.POST("/:name/purchase-receipt", purchaseReceiptHandler())
	gp.POST("/:name/subcontracting-receipt", subcontractingReceiptHandler())
	gp.POST("/:name/return-stock-entry", returnStockEntryHandler())
	gp.POST("/:name/vehicle-photo", vehiclePhotoHandler())

	api.GET("/stock-entries/:name/gate-pass-status", gatePassStatusHandler())
	api.GET("/stock-entries/:name/outbound-transfer", outboundTransferHandler())

	rep := api.Group("/reports")
	rep.GET("/gate-register", gateRegisterReportHandler())
	rep.GET("/pending-gate-passes", pendingGatePassReportHandler())
	rep.GET("/material-reconciliation", materialReconciliationReportHandler())

	roles := api.Group("/roles", middlewares.RequireAdmin())
	roles.GET("", listRolesHandler())
	roles.POST("", createRoleHandler())
	roles.GET("/:id", getRoleHandler())
	roles.PUT("/:id", updateRoleHandler())
	roles.DELETE("/:id", deleteRoleHandler())

	hooks := r.Group("/internal/hooks", middlewares.HookAuthMiddleware(), invalidateReportsOnWrite())
	hooks.POST("/stock-entry/:name/submit", stockEntrySubmitHook())
	hooks.POST("/stock-entry/:name/cancel", stockEntryCancelHook())
	hooks.POST("/stock-entry/:name/trash", stockEntryTrashHook())
	hooks.POST("/purchase-receipt/:name/cancel", receiptClearedHook(models.ReceiptTypePurchaseReceipt))
	hooks.POST("/purchase-receipt/:name/trash", receiptClearedHook(models.ReceiptTypePurchaseReceipt))
	hooks.POST("/subcontracting-receipt/:name/cancel", receiptClearedHook(models.ReceiptTypeSubcontractingReceipt))
	hooks.POST("/subcontracting-receipt/:name/trash", receiptClearedHook(models.ReceiptTypeSubcontractingReceipt))

	r.POST("/pubsub/gate-pass-jobs", gatePassJobsPubSubHandler())

	ops := r.Group("/internal/ops", middlewares.RequireSession(), middlewares.RequireAdmin())
	ops.GET("/gate-pass-jobs", listGatePassJobsHandler())
	ops.POST("/gate-pass-jobs/replay", replayGatePassJobsHandler())
}

func main() {
	port := os.Getenv("API_PORT_2")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Listen before dependencies are up; the readiness middleware answers 503 until then.
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: newRouter(logger),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate DDL can block tables; large deployments run cmd/migrate instead.
	if !config.SkipMigrations() {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	jobProcessor = workflow.NewJobProcessor(db, logger)
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	if config.GateJobsInline() {
		jobQueue = &workflow.InlineJobQueue{Processor: jobProcessor}
		logger.WithFields(logrus.Fields{"field": "jobs"}).Warn("GATE_PASS_JOBS_INLINE=true; gate pass jobs run in-process")
	} else {
		jobQueue = models.NewOutboxJobQueue(db)
		if endpoint := os.Getenv("GATE_PASS_JOBS_PUSH_ENDPOINT"); endpoint != "" {
			setupCtx, cancelSetup := context.WithTimeout(sigCtx, 30*time.Second)
			if err := config.EnsureGatePassJobsTopology(setupCtx, endpoint); err != nil {
				config.LogError(logger, "server.go", "main", "EnsureGatePassJobsTopology", endpoint, err)
			}
			cancelSetup()
		}
		go workflow.NewJobDispatcher(db, logger).Run(dispatcherCtx)
	}

	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("gate pass api listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop the dispatcher before draining so it takes no new batch.
	cancelDispatcher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	config.ClosePubSub()
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func envInt64(key string, def int64) int64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
