// Package kvconfig loads backend configuration from JSON, mirroring
// bifrost's vectorstore.Config discriminated-union pattern: a BackendType
// tag selects which concrete config shape the raw "config" payload decodes
// into.
package kvconfig

import (
	"encoding/json"
	"fmt"
)

// BackendType names a stores/ package.
type BackendType string

const (
	BackendMemory        BackendType = "memory"
	BackendDisk          BackendType = "disk"
	BackendRedis         BackendType = "redis"
	BackendSQL           BackendType = "sql"
	BackendMongo         BackendType = "mongo"
	BackendMemcached     BackendType = "memcached"
	BackendDynamoDB      BackendType = "dynamodb"
	BackendElasticsearch BackendType = "elasticsearch"
)

// StoreConfig is the top-level JSON shape for one configured backend: a
// Type tag plus a type-specific payload in Config.
type StoreConfig struct {
	Type   BackendType `json:"type"`
	Config any         `json:"config"`
}

// UnmarshalJSON decodes Config into the concrete struct matching Type,
// leaving it to callers (cmd/kvsbench) to type-assert and build the
// backend.
func (c *StoreConfig) UnmarshalJSON(data []byte) error {
	var temp struct {
		Type   BackendType     `json:"type"`
		Config json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return fmt.Errorf("kvconfig: failed to unmarshal store config: %w", err)
	}
	c.Type = temp.Type

	switch c.Type {
	case BackendMemory:
		var cfg MemoryConfig
		if len(temp.Config) > 0 {
			if err := json.Unmarshal(temp.Config, &cfg); err != nil {
				return fmt.Errorf("kvconfig: failed to unmarshal memory config: %w", err)
			}
		}
		c.Config = cfg
	case BackendDisk:
		var cfg DiskConfig
		if err := json.Unmarshal(temp.Config, &cfg); err != nil {
			return fmt.Errorf("kvconfig: failed to unmarshal disk config: %w", err)
		}
		c.Config = cfg
	case BackendRedis:
		var cfg RedisConfig
		if err := json.Unmarshal(temp.Config, &cfg); err != nil {
			return fmt.Errorf("kvconfig: failed to unmarshal redis config: %w", err)
		}
		c.Config = cfg
	case BackendSQL:
		var cfg SQLConfig
		if err := json.Unmarshal(temp.Config, &cfg); err != nil {
			return fmt.Errorf("kvconfig: failed to unmarshal sql config: %w", err)
		}
		c.Config = cfg
	case BackendMongo:
		var cfg MongoConfig
		if err := json.Unmarshal(temp.Config, &cfg); err != nil {
			return fmt.Errorf("kvconfig: failed to unmarshal mongo config: %w", err)
		}
		c.Config = cfg
	case BackendMemcached:
		var cfg MemcachedConfig
		if err := json.Unmarshal(temp.Config, &cfg); err != nil {
			return fmt.Errorf("kvconfig: failed to unmarshal memcached config: %w", err)
		}
		c.Config = cfg
	case BackendDynamoDB:
		var cfg DynamoDBConfig
		if err := json.Unmarshal(temp.Config, &cfg); err != nil {
			return fmt.Errorf("kvconfig: failed to unmarshal dynamodb config: %w", err)
		}
		c.Config = cfg
	case BackendElasticsearch:
		var cfg ElasticsearchConfig
		if err := json.Unmarshal(temp.Config, &cfg); err != nil {
			return fmt.Errorf("kvconfig: failed to unmarshal elasticsearch config: %w", err)
		}
		c.Config = cfg
	default:
		return fmt.Errorf("kvconfig: unknown backend type: %s", c.Type)
	}
	return nil
}

// MemoryConfig configures stores/memory.
type MemoryConfig struct {
	MaxEntries        int    `json:"max_entries"`
	DefaultCollection string `json:"default_collection"`
	MaxKeyLength      int    `json:"max_key_length"`
}

// DiskConfig configures stores/diskstore.
type DiskConfig struct {
	Path              string `json:"path"`
	DefaultCollection string `json:"default_collection"`
	MaxKeyLength      int    `json:"max_key_length"`
}

// RedisConfig configures stores/redisstore.
type RedisConfig struct {
	Addr              string `json:"addr"`
	Password          string `json:"password"`
	DB                int    `json:"db"`
	DefaultCollection string `json:"default_collection"`
	MaxKeyLength      int    `json:"max_key_length"`
}

// SQLConfig configures stores/sqlstore. Driver is "postgres" or "sqlite".
type SQLConfig struct {
	Driver            string `json:"driver"`
	DSN               string `json:"dsn"`
	DefaultCollection string `json:"default_collection"`
	MaxKeyLength      int    `json:"max_key_length"`
}

// MongoConfig configures stores/mongostore.
type MongoConfig struct {
	URI               string `json:"uri"`
	Database          string `json:"database"`
	Collection        string `json:"collection"`
	DefaultCollection string `json:"default_collection"`
	MaxKeyLength      int    `json:"max_key_length"`
}

// MemcachedConfig configures stores/memcachedstore.
type MemcachedConfig struct {
	Servers           []string `json:"servers"`
	DefaultCollection string   `json:"default_collection"`
	MaxKeyLength      int      `json:"max_key_length"`
}

// DynamoDBConfig configures stores/dynamostore.
type DynamoDBConfig struct {
	Region            string `json:"region"`
	TableName         string `json:"table_name"`
	DefaultCollection string `json:"default_collection"`
	MaxKeyLength      int    `json:"max_key_length"`
}

// ElasticsearchConfig configures stores/esstore.
type ElasticsearchConfig struct {
	Addresses         []string `json:"addresses"`
	IndexPrefix       string   `json:"index_prefix"`
	DefaultCollection string   `json:"default_collection"`
	MaxKeyLength      int      `json:"max_key_length"`
}
