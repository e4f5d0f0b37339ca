package main

import (
	"context"
	"flag"
	"strconv"
	"time"

	"nick8/config"
	"nick8/db"
	"nick8/internal/events"
	"nick8/internal/ratelimit"
	"nick8/services"
	"nick8/websocket"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "./config/config.prod.yml", "path to the YAML config file")
	flag.Parse()

	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	configureLogging(cfg)

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT secret is not set in config")
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Database.Backend, err)
	}

	hub := websocket.NewProgressHub()
	var publisher services.EventPublisher = hub

	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			log.Warnf("Redis unavailable, rate limiting and event relay disabled: %v", err)
		} else {
			limitConfig := ratelimit.DefaultConfig()
			limitConfig.Max = cfg.Redis.LimitPerMinute
			limiter = ratelimit.NewRedisLimiter(rdb, "writes", limitConfig)
			log.Printf("Rate limiting writes to %d per %s", limitConfig.Max, limitConfig.Window)

			relay := events.NewRedisRelay(rdb, hub)
			go relay.Run(context.Background())
			publisher = relay
		}
	}

	service := services.NewProgressService(store, publisher, nil)

	// Set up the Gin router and configure routes
	router := setupRouter(cfg, service, hub, limiter)
	port := strconv.Itoa(cfg.Server.Port)
	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.Log.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func openStore(cfg *config.Config) (services.Store, error) {
	switch cfg.Database.Backend {
	case "memory":
		log.Warn("Using in-memory store; data is lost on restart")
		return db.NewMemoryStore(), nil
	case "dynamodb":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
		defer cancel()
		client, err := db.ConnectDynamoDB(ctx, cfg.DynamoDB.Region, cfg.DynamoDB.Endpoint)
		if err != nil {
			return nil, err
		}
		log.Printf("Using DynamoDB in %s", cfg.DynamoDB.Region)
		return db.NewDynamoStore(client), nil
	default:
		client, err := db.ConnectMongoDB(cfg.Database.URI)
		if err != nil {
			return nil, err
		}
		log.Println("Connected to MongoDB")
		store := db.NewMongoStore(client.Database(db.ExtractDBName(cfg.Database.URI)))
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
		defer cancel()
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
}
