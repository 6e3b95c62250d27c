/**
 * @description
 * This is the main entry point for the banking service. It initializes all
 * components: configuration, database connection pool, optional Redis and
 * RabbitMQ clients, repositories, the ledger engine, the session authority,
 * and the HTTP server, then wires everything together and runs until a
 * shutdown signal arrives.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/joho/godotenv: Optional .env loading before config parsing.
 * - github.com/redis/go-redis/v9: Login rate limiting.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/metrics, pkg/rabbitmq: Observability and event publication.
 */

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/corebank/banking-service/internal/api"
	"github.com/corebank/banking-service/internal/app"
	"github.com/corebank/banking-service/internal/config"
	"github.com/corebank/banking-service/internal/store"
	"github.com/corebank/banking-service/pkg/metrics"
	"github.com/corebank/banking-service/pkg/rabbitmq"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"session signing secret must be configured\" env=JWT_SECRET")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url must be configured\" env=DATABASE_URL")
	}

	log.Printf("level=info component=bootstrap msg=\"starting banking-service\" port=%s", cfg.ServerPort)

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	repo := store.NewPostgresRepository(dbpool)

	// Event producer is optional; money movement never depends on the broker.
	var events rabbitmq.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; events disabled\" err=%v", err)
		} else {
			defer producer.Close()
			events = producer
			log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
		}
	}

	// Redis-backed login throttling is optional too.
	var limiter app.LoginLimiter
	if cfg.LoginRateLimitPerMinute > 0 && cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; login rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; login rate limiting disabled\" err=%v", pingErr)
			} else {
				limiter = app.NewRedisLoginRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
				log.Println("level=info component=bootstrap msg=\"redis connected; login rate limiting enabled\"")
			}
			cancelPing()
		}
	}

	collector := metrics.NewCollector()
	ledger := app.NewLedger(repo, events, collector, time.Duration(cfg.LedgerLockTimeoutMS)*time.Millisecond)
	authority := app.NewSessionAuthority(repo, []byte(cfg.JWTSecret), time.Duration(cfg.SessionTTLHours)*time.Hour)
	directory := app.NewDirectory(repo, ledger, authority, limiter, events, cfg.BcryptCost, cfg.LoginRateLimitPerMinute)

	handlers := api.NewHandlers(ledger, directory)
	router := api.Routes(handlers, authority, cfg.FrontendURL, collector.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("level=info component=bootstrap msg=\"http server listening\" addr=%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=bootstrap msg=\"http server failed\" err=%v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("level=info component=bootstrap msg=\"shutting down\"")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"graceful shutdown failed\" err=%v", err)
	}
}
