package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// OpenDB opens the GORM/MySQL connection pool described by cfg.DBConnection.
func OpenDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DBConnection), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("setup: connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("setup: get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logrus.Info("MySQL connected")
	return db, nil
}

// OpenRedis opens the Redis client the rate limiter and, when
// PublisherBackend is "redis", the publisher use, with cfg's publisher_*
// credentials. The asynq client and worker open their own connections.
func OpenRedis(cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.PublisherKey,
		Password:     cfg.PublisherSecret,
		DB:           0,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("setup: connect to Redis at %s: %w", cfg.PublisherKey, err)
	}

	logrus.Info("Redis connected")
	return client, nil
}
