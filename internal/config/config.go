package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PostgresAddress  string
	PostgresPort     string
	PostgresDB       string
	PostgresUsername string
	PostgresPassword string

	HTTPPort string
	LogLevel string

	OperatorWorkers int

	QueueBuffer       int
	QueueWorkers      int
	QueueMaxRetries   int
	QueueRetryBackoff time.Duration

	// ScanSchedule is a 5-field cron spec evaluated in ScanTimezone.
	ScanSchedule string
	ScanTimezone string

	ThrottleLimit  int
	ThrottlePeriod time.Duration
	ProcessTimeout time.Duration
}

// ProcessEnvironmentVariables builds the config from the environment. A .env
// file in the working directory is loaded first when present; variables already
// set in the environment win over the file.
func ProcessEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	// In all cases the default behavior should be for the docker compose setup
	env := Config{
		PostgresAddress:  "localhost",
		PostgresPort:     "5433",
		PostgresDB:       "postgres",
		PostgresUsername: "postgres",
		PostgresPassword: "testpassword",

		HTTPPort: "9446",
		LogLevel: "info",

		OperatorWorkers: 4,

		QueueBuffer:       1000,
		QueueWorkers:      4,
		QueueMaxRetries:   3,
		QueueRetryBackoff: time.Second,

		ScanSchedule: "0 0 * * *",

		ThrottleLimit:  10,
		ThrottlePeriod: time.Minute,
		ProcessTimeout: 30 * time.Second,
	}

	setString(&env.PostgresAddress, "POSTGRES_ADDRESS")
	setString(&env.PostgresPort, "POSTGRES_PORT")
	setString(&env.PostgresDB, "POSTGRES_DB")
	setString(&env.PostgresUsername, "POSTGRES_USERNAME")
	setString(&env.PostgresPassword, "POSTGRES_PASSWORD")
	setString(&env.HTTPPort, "HTTP_PORT")
	setString(&env.LogLevel, "LOG_LEVEL")
	setString(&env.ScanSchedule, "SCAN_SCHEDULE")
	setString(&env.ScanTimezone, "SCAN_TIMEZONE")

	ints := []struct {
		key string
		dst *int
	}{
		{"OPERATOR_WORKERS", &env.OperatorWorkers},
		{"QUEUE_BUFFER", &env.QueueBuffer},
		{"QUEUE_WORKERS", &env.QueueWorkers},
		{"QUEUE_MAX_RETRIES", &env.QueueMaxRetries},
		{"THROTTLE_LIMIT", &env.ThrottleLimit},
	}
	for _, i := range ints {
		if err := setInt(i.dst, i.key); err != nil {
			return nil, err
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"QUEUE_RETRY_BACKOFF", &env.QueueRetryBackoff},
		{"THROTTLE_PERIOD", &env.ThrottlePeriod},
		{"PROCESS_TIMEOUT", &env.ProcessTimeout},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key); err != nil {
			return nil, err
		}
	}

	if env.ThrottleLimit < 1 {
		return nil, fmt.Errorf("config: THROTTLE_LIMIT must be positive, got %d", env.ThrottleLimit)
	}
	if env.ThrottlePeriod <= 0 {
		return nil, fmt.Errorf("config: THROTTLE_PERIOD must be positive, got %s", env.ThrottlePeriod)
	}

	return &env, nil
}

// PostgresURL is the lib/pq connection string for the configured database.
func (c *Config) PostgresURL() string {
	return "postgres://" + c.PostgresUsername + ":" +
		c.PostgresPassword + "@" + c.PostgresAddress + ":" +
		c.PostgresPort + "/" + c.PostgresDB + "?sslmode=disable"
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); len(v) != 0 {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if len(v) == 0 {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if len(v) == 0 {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}
