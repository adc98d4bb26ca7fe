package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config carries everything main needs; values come from the
// environment with workable defaults so the binary runs unconfigured.
type Config struct {
	Port       string
	GinMode    string
	DBDriver   string // sqlite (default) or mysql
	SQLitePath string
	MySQLDSN   string
}

func Load() Config {
	cfg := Config{
		Port:       getEnv("PORT", "5000"),
		GinMode:    getEnv("GIN_MODE", ""),
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		SQLitePath: getEnv("SQLITE_PATH", "adisyo.db"),
		MySQLDSN:   os.Getenv("MYSQL_DSN"),
	}
	return cfg
}

// InitDB opens the configured database. SQLite matches the original
// single-till deployment; MySQL is the opt-in for shared setups.
func InitDB(cfg Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite", "":
		return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, fmt.Errorf("DB_DRIVER=mysql requires MYSQL_DSN")
		}
		return gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
