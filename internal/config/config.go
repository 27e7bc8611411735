package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	JWTSecret            string
	Database             DatabaseConfig
	JWTExpirationMinutes int

	// Scheduling and queue tuning
	SlotMinutes        int // width of a bookable slot
	MinAdvanceHours    int // minimum notice before a slot may be booked
	ConsultMinutes     int // per-patient service estimate for wait times
	MissedGraceMinutes int // grace period before a scheduled visit counts as missed
	SweepEnabled       bool
	SweepIntervalMin   int
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "clinic"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	jwtExpMinutes, err := getEnvInt("JWT_EXPIRATION_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	slotMinutes, err := getEnvInt("SLOT_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	minAdvanceHours, err := getEnvInt("MIN_ADVANCE_HOURS", 2)
	if err != nil {
		return nil, err
	}
	consultMinutes, err := getEnvInt("CONSULT_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	missedGrace, err := getEnvInt("MISSED_GRACE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	sweepInterval, err := getEnvInt("SWEEP_INTERVAL_MINUTES", 15)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                 getEnv("PORT", "3001"),
		Origin:               getEnv("ORIGIN", "http://localhost:3000"),
		Environment:          getEnv("APP_ENV", "development"),
		JWTSecret:            getEnv("JWT_SECRET", "default_jwt_secret"),
		Database:             dbConfig,
		JWTExpirationMinutes: jwtExpMinutes,
		SlotMinutes:          slotMinutes,
		MinAdvanceHours:      minAdvanceHours,
		ConsultMinutes:       consultMinutes,
		MissedGraceMinutes:   missedGrace,
		SweepEnabled:         getEnv("SWEEP_ENABLED", "true") == "true",
		SweepIntervalMin:     sweepInterval,
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
