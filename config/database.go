package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"campusauth"`
	Password string `env:"PASSWORD"                envDefault:"campusauth"`
	Name     string `env:"NAME"                    envDefault:"campusauth"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// DB selects the logical database for direct and sentinel clients; a redis:// URL path wins.
	DB int `env:"DB" envDefault:"0"`
	// KeyPrefix is prepended to every key; STORAGE_SESSION_KEY is already namespaced.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:""`
}

// SQLiteConfig contains local SQLite configuration.
type SQLiteConfig struct {
	// Path defaults to <user config dir>/campus-auth/session.db.
	Path string `env:"PATH"`
}

// Sanitize resolves the default database path.
func (c *SQLiteConfig) Sanitize() {
	c.Path = strings.TrimSpace(c.Path)
	if c.Path != "" {
		return
	}
	if dir, err := os.UserConfigDir(); err == nil {
		c.Path = filepath.Join(dir, "campus-auth", "session.db")
	}
}
