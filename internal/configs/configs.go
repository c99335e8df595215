package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"

	"fulfillment-engine/internal/models"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"test"`

	KafkaBrokers     string        `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaTopic       string        `env:"KAFKA_TOPIC" envDefault:"paid-orders"`
	KafkaDLQ         string        `env:"KAFKA_DLQ" envDefault:"paid-orders.dlq"`
	KafkaGroupID     string        `env:"KAFKA_GROUP_ID" envDefault:"fulfillment-engine"`
	KafkaMaxRetries  int           `env:"KAFKA_MAX_RETRIES" envDefault:"5"`
	KafkaBaseBackoff time.Duration `env:"KAFKA_BASE_BACKOFF" envDefault:"200ms"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8081"`

	DistributorBaseURL string        `env:"DISTRIBUTOR_BASE_URL" envDefault:"http://localhost:9440"`
	DistributorTimeout time.Duration `env:"DISTRIBUTOR_TIMEOUT" envDefault:"10s"`
	SubmitMaxAttempts  int           `env:"SUBMIT_MAX_ATTEMPTS" envDefault:"3"`
	SubmitBaseBackoff  time.Duration `env:"SUBMIT_BASE_BACKOFF" envDefault:"500ms"`

	CrmBaseURL string        `env:"CRM_BASE_URL" envDefault:"http://localhost:9450"`
	CrmTimeout time.Duration `env:"CRM_TIMEOUT" envDefault:"10s"`

	PriceLadderPath string `env:"PRICE_LADDER_PATH" envDefault:"web/prices.json"`
	SampleEventPath string `env:"SAMPLE_EVENT_PATH" envDefault:"web/event.json"`

	DatabaseURL     string `env:"DATABASE_URL" envDefault:""`
	PostgresHost    string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort    string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPass    string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB      string `env:"POSTGRES_DB" envDefault:"fulfillment"`
	PostgresSSLMode string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

func LoadConfig(_ string) (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("config parse: %w", err)
	}
	if c.Environment != string(models.EnvTest) && c.Environment != string(models.EnvProduction) {
		return Config{}, fmt.Errorf("config parse: unknown environment %q", c.Environment)
	}
	return c, nil
}

func (c Config) Env() models.Environment {
	return models.Environment(c.Environment)
}

func (c Config) KafkaBrokersSlice() []string {
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) PgDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPass,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}
