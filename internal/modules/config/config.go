package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	databaseDSN       = "DATABASE_DSN"
	marketWSURL       = "MARKET_WS_URL"
)

type MarketConfig struct {
	Exchange  string `yaml:"exchange"`
	Asset     string `yaml:"asset"`
	Currency  string `yaml:"currency"`
	Timeframe int    `yaml:"timeframe"` // minutes
}

// Config ...
type Config struct {
	DB      string `yaml:"db_dsn"`
	Service struct {
		Name string `yaml:"name"`
	} `yaml:"service"`
	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`
	Market struct {
		WSURL string `yaml:"ws_url"`
	} `yaml:"market"`

	// Watched market tuples for the alert check loop.
	Markets []MarketConfig `yaml:"markets"`

	// Reconciler cadences and thresholds
	IdleScanInterval    time.Duration `yaml:"idle_scan_interval"`    // .env: IDLE_SCAN_INTERVAL (15s)
	BalanceScanInterval time.Duration `yaml:"balance_scan_interval"` // .env: BALANCE_SCAN_INTERVAL (60s)
	BalanceStaleAfter   time.Duration `yaml:"balance_stale_after"`   // .env: BALANCE_STALE_AFTER (50m)

	// Alert evaluation
	AlertCheckInterval time.Duration `yaml:"alert_check_interval"` // .env: ALERT_CHECK_INTERVAL (1s)
	CandleGapTolerance time.Duration `yaml:"candle_gap_tolerance"` // .env: CANDLE_GAP_TOLERANCE (20s)

	// Doomed queue entries kept around after failure for diagnostics.
	RemoveOnFailCount int `yaml:"remove_on_fail_count"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	env := viper.New()
	env.AutomaticEnv()

	configFileName := env.GetString(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		IdleScanInterval:    durationFromEnv(env, "IDLE_SCAN_INTERVAL", "15s"),
		BalanceScanInterval: durationFromEnv(env, "BALANCE_SCAN_INTERVAL", "60s"),
		BalanceStaleAfter:   durationFromEnv(env, "BALANCE_STALE_AFTER", "50m"),
		AlertCheckInterval:  durationFromEnv(env, "ALERT_CHECK_INTERVAL", "1s"),
		CandleGapTolerance:  durationFromEnv(env, "CANDLE_GAP_TOLERANCE", "20s"),
		RemoveOnFailCount:   intFromEnv(env, "REMOVE_ON_FAIL_COUNT", 100),
	}
	err = decoder.Decode(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	dsn := env.GetString(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	wsURL := env.GetString(marketWSURL)
	if wsURL != "" {
		config.Market.WSURL = wsURL
	}

	if config.Service.Name == "" {
		config.Service.Name = "connector-runner"
	}

	return &config, nil
}

func intFromEnv(env *viper.Viper, key string, def int) int {
	if env.IsSet(key) {
		return env.GetInt(key)
	}
	return def
}

func durationFromEnv(env *viper.Viper, key string, def string) time.Duration {
	val := env.GetString(key)
	if val == "" {
		val = def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
