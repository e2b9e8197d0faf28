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

	"github.com/redis/go-redis/v9"

	cartcache "github.com/obinna-o/go_marketgate/internal/cart/cache"
	cartrepo "github.com/obinna-o/go_marketgate/internal/cart/repository"
	cartservice "github.com/obinna-o/go_marketgate/internal/cart/service"
	checkoutrepo "github.com/obinna-o/go_marketgate/internal/checkout/repository"
	checkoutservice "github.com/obinna-o/go_marketgate/internal/checkout/service"
	"github.com/obinna-o/go_marketgate/internal/checkout/verifier"
	"github.com/obinna-o/go_marketgate/internal/currency"
	h "github.com/obinna-o/go_marketgate/internal/http"
	"github.com/obinna-o/go_marketgate/internal/publisher"
	"github.com/obinna-o/go_marketgate/internal/session"
	"github.com/obinna-o/go_marketgate/internal/subscription"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDatabase   string
	RedisAddr       string
	PostgresHost    string
	PostgresPort    int
	PostgresUser    string
	PostgresPass    string
	PostgresDB      string
	MigrationsPath  string
	KafkaBrokers    []string
	BackendBaseURL  string
	RatesBaseURL    string
	BaseCurrency    string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "marketgate"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		PostgresHost:    getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:    getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:    getEnv("POSTGRES_USER", "postgres"),
		PostgresPass:    getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:      getEnv("POSTGRES_DB", "marketgate"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "internal/checkout/repository/migrations"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		BackendBaseURL:  getEnv("BACKEND_BASE_URL", "http://localhost:3000"),
		RatesBaseURL:    getEnv("RATES_BASE_URL", "https://api.exchangerate-api.com/v4"),
		BaseCurrency:    getEnv("BASE_CURRENCY", "USD"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// MongoDB holds carts and wishlists
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	cartRepo := cartrepo.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("failed to create MongoDB indexes: %v", err)
	}

	// Redis backs the cart cache, session store and subscription stash
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Postgres records verified orders plus their outbox events
	cred := &checkoutrepo.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPass,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	orderRepo, err := checkoutrepo.NewRepository(cred)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(cred); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	sessions := session.NewManager(session.NewRedisStore(redisClient))
	carts := cartservice.NewCartService(cartRepo, cartcache.NewRedisCache(redisClient))
	converter := currency.NewConverter(currency.NewHTTPProvider(cfg.RatesBaseURL), cfg.BaseCurrency)

	checkoutOrch := checkoutservice.NewOrchestrator(
		verifier.NewClient(cfg.BackendBaseURL),
		sessions,
		carts,
		orderRepo,
	)
	subscriptionOrch := subscription.NewOrchestrator(
		subscription.NewVerifyClient(cfg.BackendBaseURL),
		subscription.NewRedisStashStore(redisClient),
		subscription.NewRedisPlanCache(redisClient),
	)

	router := h.NewRouter(h.Handlers{
		Session:  h.NewSessionHandler(sessions, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(carts, cfg.RequestTimeout),
		Currency: h.NewCurrencyHandler(converter, cfg.RequestTimeout),
		Callback: h.NewCallbackHandler(checkoutOrch, subscriptionOrch, cfg.RequestTimeout),
	}, cfg.RequestTimeout)

	// outbox poller pushes checkout.completed events to Kafka
	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	go publisher.NewOutboxPoller(orderRepo, cfg.KafkaBrokers...).Run(pollerCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("gateway starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
