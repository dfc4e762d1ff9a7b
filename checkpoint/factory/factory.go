package factory

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	memorystore "github.com/contentflow/contentflow/checkpoint/memory"
	redisstore "github.com/contentflow/contentflow/checkpoint/redis"
	sqlitestore "github.com/contentflow/contentflow/checkpoint/sqlite"
	"github.com/contentflow/contentflow/workflow"
)

// FromEnv builds the checkpoint store selected by
// CONTENTFLOW_CHECKPOINT_BACKEND (memory, sqlite, or redis).
func FromEnv() (workflow.Store, error) {
	backend := strings.ToLower(strings.TrimSpace(getenv("CONTENTFLOW_CHECKPOINT_BACKEND", "memory")))
	switch backend {
	case "memory":
		return memorystore.New(), nil

	case "sqlite":
		path := getenv("CONTENTFLOW_SQLITE_PATH", "./.contentflow/checkpoints.db")
		return sqlitestore.New(path)

	case "redis":
		addr := getenv("CONTENTFLOW_REDIS_ADDR", "127.0.0.1:6379")
		password := strings.TrimSpace(os.Getenv("CONTENTFLOW_REDIS_PASSWORD"))
		db := getenvInt("CONTENTFLOW_REDIS_DB", 0)
		ttl := getenvDuration("CONTENTFLOW_REDIS_TTL", 72*time.Hour)

		return redisstore.New(addr,
			redisstore.WithPassword(password),
			redisstore.WithDB(db),
			redisstore.WithTTL(ttl),
		)

	default:
		return nil, fmt.Errorf("unsupported CONTENTFLOW_CHECKPOINT_BACKEND %q (use memory, sqlite, or redis)", backend)
	}
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

func getenvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
