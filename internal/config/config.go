package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env              string
	Port             string
	DBDriver         string
	DBDSN            string
	LogFile          string
	Timezone         string
	Currency         string
	RedisAddr        string
	CheckoutAttempts int
	MirrorRefresh    time.Duration
	RateLimit        int
	OperatorEmail    string
	OperatorName     string
	OperatorPassword string
}

var defaults = map[string]any{
	"env":               "development",
	"port":              "8080",
	"db_driver":         "sqlite",
	"db_dsn":            "shelfpos.db", // sqlite file in project root
	"log_file":          "./shelfpos.log",
	"timezone":          "Local",
	"currency":          "USD",
	"redis_addr":        "",
	"checkout_attempts": 5,
	"mirror_refresh":    "15s",
	"rate_limit":        120,
	"operator_email":    "",
	"operator_name":     "",
	"operator_password": "",
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the environment.
// Later sources win.
func Load() Config {
	if err := gotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[warn] could not read .env: %v", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("[warn] could not read config file %s: %v", path, err)
		}
	}

	cfg := Config{
		Env:              v.GetString("env"),
		Port:             v.GetString("port"),
		DBDriver:         strings.ToLower(v.GetString("db_driver")),
		DBDSN:            v.GetString("db_dsn"),
		LogFile:          v.GetString("log_file"),
		Timezone:         v.GetString("timezone"),
		Currency:         strings.ToUpper(v.GetString("currency")),
		RedisAddr:        v.GetString("redis_addr"),
		CheckoutAttempts: v.GetInt("checkout_attempts"),
		MirrorRefresh:    v.GetDuration("mirror_refresh"),
		RateLimit:        v.GetInt("rate_limit"),
		OperatorEmail:    v.GetString("operator_email"),
		OperatorName:     v.GetString("operator_name"),
		OperatorPassword: v.GetString("operator_password"),
	}
	if money.GetCurrency(cfg.Currency) == nil {
		log.Printf("[warn] unknown CURRENCY %q, using USD", cfg.Currency)
		cfg.Currency = "USD"
	}
	if cfg.CheckoutAttempts <= 0 {
		cfg.CheckoutAttempts = 5
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 120
	}
	log.Printf("[config] ENV=%s PORT=%s DB_DRIVER=%s LOG_FILE=%s TIMEZONE=%s CURRENCY=%s REDIS=%t CHECKOUT_ATTEMPTS=%d MIRROR_REFRESH=%s",
		cfg.Env, cfg.Port, cfg.DBDriver, cfg.LogFile, cfg.Timezone, cfg.Currency, cfg.RedisAddr != "", cfg.CheckoutAttempts, cfg.MirrorRefresh)
	return cfg
}

// Location resolves Timezone, falling back to the local zone.
func (c Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("[warn] unknown TIMEZONE %q, using local time", c.Timezone)
		return time.Local
	}
	return loc
}
