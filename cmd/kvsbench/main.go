// Command kvsbench exercises a configured kvs backend end to end: load a
// store from a JSON config file (or default to an in-memory store), wrap it
// with the statistics wrapper, run one operation against it, and optionally
// serve the accumulated counters at /metrics for Prometheus to scrape.
//
// Usage:
//
//	kvsbench -op put -key user:1 -value '{"name":"ada"}' -collection users
//	kvsbench -op get -key user:1 -collection users
//	kvsbench -config ./backend.json -metrics-addr :9100 -op get -key user:1
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maximhq/kvs/kvconfig"
	"github.com/maximhq/kvs/kvlog"
	"github.com/maximhq/kvs/stats"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/stores/diskstore"
	"github.com/maximhq/kvs/stores/dynamostore"
	"github.com/maximhq/kvs/stores/esstore"
	"github.com/maximhq/kvs/stores/memcachedstore"
	"github.com/maximhq/kvs/stores/memory"
	"github.com/maximhq/kvs/stores/mongostore"
	"github.com/maximhq/kvs/stores/redisstore"
	"github.com/maximhq/kvs/stores/sqlstore"
	"github.com/maximhq/kvs/wrappers/statistics"
)

var (
	configPath  string
	metricsAddr string
	op          string
	key         string
	value       string
	collection  string
	ttlSeconds  float64
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to a JSON kvconfig.StoreConfig file (default: in-memory store)")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics at this address (e.g. :9100)")
	flag.StringVar(&op, "op", "get", "operation to run: get, put, or delete")
	flag.StringVar(&key, "key", "", "key to operate on")
	flag.StringVar(&value, "value", "{}", "JSON object value, for -op put")
	flag.StringVar(&collection, "collection", "", "collection name")
	flag.Float64Var(&ttlSeconds, "ttl", 0, "entry TTL in seconds, for -op put (0 = no expiry)")
	flag.Parse()
}

func buildBackend(ctx context.Context) (store.Store, error) {
	if configPath == "" {
		return memory.New(memory.Config{}), nil
	}
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg kvconfig.StoreConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	switch c := cfg.Config.(type) {
	case kvconfig.MemoryConfig:
		return memory.New(memory.Config{
			DefaultCollection:       c.DefaultCollection,
			MaxKeyLength:            c.MaxKeyLength,
			MaxEntriesPerCollection: c.MaxEntries,
		}), nil
	case kvconfig.DiskConfig:
		return diskstore.New(diskstore.Config{
			Path:              c.Path,
			CreateDir:         true,
			DefaultCollection: c.DefaultCollection,
			MaxKeyLength:      c.MaxKeyLength,
		})
	case kvconfig.RedisConfig:
		return redisstore.New(redisstore.Config{
			Addr:              c.Addr,
			Password:          c.Password,
			DB:                c.DB,
			DefaultCollection: c.DefaultCollection,
			MaxKeyLength:      c.MaxKeyLength,
		})
	case kvconfig.SQLConfig:
		return sqlstore.New(sqlstore.Config{
			Driver:            sqlstore.Driver(c.Driver),
			DSN:               c.DSN,
			DefaultCollection: c.DefaultCollection,
			MaxKeyLength:      c.MaxKeyLength,
		})
	case kvconfig.MongoConfig:
		return mongostore.New(ctx, mongostore.Config{
			URI:               c.URI,
			Database:          c.Database,
			Collection:        c.Collection,
			DefaultCollection: c.DefaultCollection,
			MaxKeyLength:      c.MaxKeyLength,
		})
	case kvconfig.MemcachedConfig:
		return memcachedstore.New(memcachedstore.Config{
			Servers:           c.Servers,
			DefaultCollection: c.DefaultCollection,
			MaxKeyLength:      c.MaxKeyLength,
		}), nil
	case kvconfig.DynamoDBConfig:
		return dynamostore.New(ctx, dynamostore.Config{
			Region:            c.Region,
			TableName:         c.TableName,
			DefaultCollection: c.DefaultCollection,
			MaxKeyLength:      c.MaxKeyLength,
		})
	case kvconfig.ElasticsearchConfig:
		return esstore.New(esstore.Config{
			Addresses:         c.Addresses,
			IndexPrefix:       c.IndexPrefix,
			DefaultCollection: c.DefaultCollection,
			MaxKeyLength:      c.MaxKeyLength,
		})
	default:
		return nil, fmt.Errorf("unsupported backend config type %T", cfg.Config)
	}
}

func main() {
	if err := kvconfig.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "kvsbench: failed to load .env: %v\n", err)
		os.Exit(1)
	}

	logger := kvlog.NewZerologLogger(kvlog.LevelInfo)
	ctx := context.Background()

	backend, err := buildBackend(ctx)
	if err != nil {
		logger.Error("failed to build backend", err, nil)
		os.Exit(1)
	}
	tracked := statistics.New(backend)

	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(stats.NewRegisterer(tracked))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", err, nil)
			}
		}()
		logger.Info("serving metrics", map[string]any{"addr": metricsAddr})
	}

	if err := run(ctx, tracked, logger); err != nil {
		logger.Error("operation failed", err, map[string]any{"op": op, "key": key, "collection": collection})
		os.Exit(1)
	}

	if metricsAddr != "" {
		// keep serving /metrics until the process is stopped
		select {}
	}
}

func run(ctx context.Context, s store.Store, logger kvlog.Logger) error {
	switch op {
	case "get":
		got, err := s.Get(ctx, key, collection)
		if err != nil {
			return err
		}
		logger.Info("get", map[string]any{"key": key, "collection": collection, "value": got})
	case "put":
		var decoded map[string]any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			return fmt.Errorf("failed to parse -value as JSON object: %w", err)
		}
		var entryTTL *float64
		if ttlSeconds > 0 {
			entryTTL = &ttlSeconds
		}
		if err := s.Put(ctx, key, decoded, collection, entryTTL); err != nil {
			return err
		}
		logger.Info("put", map[string]any{"key": key, "collection": collection})
	case "delete":
		existed, err := s.Delete(ctx, key, collection)
		if err != nil {
			return err
		}
		logger.Info("delete", map[string]any{"key": key, "collection": collection, "existed": existed})
	default:
		return fmt.Errorf("unknown -op %q: expected get, put, or delete", op)
	}
	return nil
}
