package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agents/auditagent"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agents/customerservice"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agents/inventory"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agents/pricing"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/api"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/audit"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/config"
	mongodb "github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/database/mongo"
	mysqldb "github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/database/mysql"
	redisdb "github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/database/redis"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/discovery/etcd"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/orchestrator"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/store"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/pkg/logger"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logLevel, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Invalid logger level: %v", err)
	}
	logger.Init(logLevel)

	serviceLogger := logger.New("AssistantService", "", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB: task records and the audit ledger live there.
	mongoClient, err := mongodb.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MongoDB")
	}
	db := mongoClient.Database(cfg.Databases.MongoDB.Database)
	serviceLogger.Info("Successfully connected to MongoDB")

	var taskStore store.TaskStore = store.NewMongoTaskStore(db, cfg.Databases.MongoDB.TaskCollection)

	var ledger audit.Ledger
	ledger, err = audit.NewMongoLedger(ctx, db, cfg.Databases.MongoDB.AuditCollection)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to initialize audit ledger")
	}

	// Redis caches task reads in front of Mongo when configured.
	if cfg.Databases.Redis.Address != "" {
		redisClient, err := redisdb.GetClient(&cfg.Databases.Redis)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Redis")
		}
		cacheTTL := time.Duration(cfg.Databases.Redis.CacheTTLSecs) * time.Second
		taskStore = store.NewCachedTaskStore(taskStore, redisClient, cacheTTL, serviceLogger)
		serviceLogger.Info("Task cache enabled")
	}

	// Every ledger append is mirrored to the audit topic when Kafka is
	// configured; the websocket feed reads from there.
	var auditPublisher *audit.Publisher
	var streamConsumer *audit.StreamConsumer
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		auditPublisher = audit.NewPublisher(cfg.Databases.Kafka.Brokers, cfg.Databases.Kafka.AuditTopic)
		ledger = audit.NewPublishingLedger(ledger, auditPublisher, serviceLogger)
		streamConsumer = audit.NewStreamConsumer(cfg.Databases.Kafka.Brokers, cfg.Databases.Kafka.AuditTopic, "assistant-audit-feed", serviceLogger)
	}

	// The product catalog sits in MySQL when configured, otherwise the
	// seeded in-memory catalog serves.
	var catalog inventory.Catalog = inventory.NewMemoryCatalog()
	if cfg.Databases.MySQL.Address != "" {
		gormDB, err := mysqldb.GetDB(&cfg.Databases.MySQL)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MySQL")
		}
		catalog, err = inventory.NewGormCatalog(gormDB)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to initialize product catalog")
		}
		serviceLogger.Info("Product catalog backed by MySQL")
	}

	// Register the four agents.
	evaluator := audit.NewEvaluator(cfg.Compliance)
	registry := agent.NewRegistry()
	registry.Register(customerservice.New())
	registry.Register(inventory.New(catalog))
	registry.Register(pricing.New())
	registry.Register(auditagent.New(ledger, evaluator))

	controller := orchestrator.New(taskStore, ledger, registry, evaluator, cfg.Orchestrator, cfg.Compliance.EscalateOnFlags, serviceLogger)

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	apiHandler := api.NewAPI(controller, registry, api.NewConnectionManager(), serviceLogger)
	router := api.SetupRouter(apiHandler, cfg.Auth.JwtSecret)

	if streamConsumer != nil {
		streamConsumer.Start(ctx, func(msg kafka.Message) error {
			apiHandler.Connections().Broadcast(msg.Value)
			return nil
		})
		serviceLogger.Info("Audit stream consumer started")
	}

	// Register with etcd when endpoints are configured.
	var stopRegistration chan<- struct{}
	var discovery *etcd.ServiceDiscovery
	if len(cfg.Databases.Etcd.Endpoints) > 0 {
		discovery, err = etcd.NewServiceDiscovery(cfg.Databases.Etcd.Endpoints)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to etcd")
		}
		stopRegistration, err = discovery.Register(cfg.Databases.Etcd.ServiceName, cfg.Databases.Etcd.ServiceAddr, cfg.Databases.Etcd.LeaseTTL)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to register service with etcd")
		}
		serviceLogger.Info("Service registered with etcd")
	}

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	// Start server
	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Server forced to shutdown")
	}

	cancel()
	if stopRegistration != nil {
		close(stopRegistration)
	}
	if discovery != nil {
		if err := discovery.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing etcd client")
		}
	}
	if streamConsumer != nil {
		if err := streamConsumer.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka consumer")
		}
	}
	if auditPublisher != nil {
		if err := auditPublisher.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka publisher")
		}
	}
	if err := mongodb.Close(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	serviceLogger.Info("Server gracefully stopped")
}
