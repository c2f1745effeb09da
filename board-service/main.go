package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/chepyr/go-task-board/internal/cli"
	"github.com/chepyr/go-task-board/internal/config"
	"github.com/chepyr/go-task-board/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.ConfigureLogging()

	dbConn := initDB(cfg)
	defer dbConn.Close()

	rc := initRedis(cfg)
	if rc != nil {
		defer rc.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(dbConn, rc, cfg.CacheTTL, cfg.JWTSecret)
	if err := cli.NewRootCommand(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		dbConn.Close()
		os.Exit(cli.GetExitCode(err))
	}
}

func initDB(cfg *config.Config) *sqlx.DB {
	dbConn, err := db.Connect(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.WithField("driver", cfg.DBDriver).Debug("Connected to database")
	return dbConn
}

// initRedis returns nil when no REDIS_URL is configured or Redis is
// unreachable; boards are then read from the database every time.
func initRedis(cfg *config.Config) *redis.Client {
	if cfg.Redis == nil {
		return nil
	}
	rc := redis.NewClient(cfg.Redis)
	if err := rc.Ping(context.Background()).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, board cache disabled")
		rc.Close()
		return nil
	}
	return rc
}
