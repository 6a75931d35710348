// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"loadline/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CatalogCacheClient caches distributor catalog lookups.
	CatalogCacheClient *redis.Client
	// RulesCacheClient caches per-company dispatch rules.
	RulesCacheClient *redis.Client
)

// InitCatalogCache initializes the Redis client for catalog caching.
func InitCatalogCache() {
	CatalogCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCatalogDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CatalogCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Catalog Cache): %v", err)
	}
}

// GetCatalogCacheClient returns the catalog cache client.
func GetCatalogCacheClient() *redis.Client {
	if CatalogCacheClient == nil {
		InitCatalogCache()
	}
	return CatalogCacheClient
}

// InitRulesCache initializes the Redis client for dispatch-rules caching.
func InitRulesCache() {
	RulesCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisRulesDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := RulesCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Rules Cache): %v", err)
	}
}

// GetRulesCacheClient returns the rules cache client.
func GetRulesCacheClient() *redis.Client {
	if RulesCacheClient == nil {
		InitRulesCache()
	}
	return RulesCacheClient
}
