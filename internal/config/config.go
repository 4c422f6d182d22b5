package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath string
	LogLevel     string
	Port         int
	DevMode      bool

	// Risk engine
	RiskFreeRateAnnual    float64
	MonteCarloSimulations int

	// Stress testing
	StressVolatilityWeight float64
	StressLiquidityWeight  float64
	StressStrictScenarios  bool

	// Alerting
	AlertCooldown      time.Duration
	AlertRetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("GO_PORT", 8001),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		DatabasePath: getEnv("DATABASE_PATH", "./data/riskwatch.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		RiskFreeRateAnnual:    getEnvAsFloat("RISK_FREE_RATE_ANNUAL", 0.02),
		MonteCarloSimulations: getEnvAsInt("MONTE_CARLO_SIMULATIONS", 10000),

		StressVolatilityWeight: getEnvAsFloat("STRESS_VOLATILITY_WEIGHT", 0.5),
		StressLiquidityWeight:  getEnvAsFloat("STRESS_LIQUIDITY_WEIGHT", 0.3),
		StressStrictScenarios:  getEnvAsBool("STRESS_STRICT_SCENARIOS", false),

		AlertCooldown:      time.Duration(getEnvAsInt("ALERT_COOLDOWN_MINUTES", 30)) * time.Minute,
		AlertRetentionDays: getEnvAsInt("ALERT_RETENTION_DAYS", 7),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.MonteCarloSimulations <= 0 {
		return fmt.Errorf("MONTE_CARLO_SIMULATIONS must be positive")
	}
	if c.AlertRetentionDays <= 0 {
		return fmt.Errorf("ALERT_RETENTION_DAYS must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
