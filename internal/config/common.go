// services/storefront-service/internal/config/common.go
package config

import (
	"fmt"
	"os"
	"strings"
)

// CommonConfig holds the infrastructure the storefront shares with other services.
type CommonConfig struct {
	// Database
	DB_DRIVER   string // "postgres" (default) or "sqlite"
	DB_DSN      string // overrides the DB_* parts when set
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	DB_HOST     string
	DB_PORT     string
	// Kafka, optional. Empty broker disables order events.
	KAFKA_TOPIC  string
	KAFKA_BROKER string
	KAFKA_GROUP  string
	// RabbitMQ, only needed with NOTIFIER=queue
	RABBITMQ_USER     string
	RABBITMQ_PASSWORD string
	RABBITMQ_HOST     string
	RABBITMQ_PORT     string
}

// LoadCommonConfig returns the shared infrastructure config
func LoadCommonConfig() *CommonConfig {
	return &CommonConfig{
		DB_DRIVER:   getenv("DB_DRIVER", "postgres"),
		DB_DSN:      os.Getenv("DB_DSN"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     getenv("DB_HOST", "localhost"),
		DB_PORT:     getenv("DB_PORT", "5432"),
		DB_NAME:     os.Getenv("DB_NAME"),

		KAFKA_TOPIC:  getenv("KAFKA_TOPIC", "storefront.orders"),
		KAFKA_BROKER: os.Getenv("KAFKA_BROKER"),
		KAFKA_GROUP:  getenv("KAFKA_GROUP", "storefront-watch"),

		RABBITMQ_USER:     getenv("RABBITMQ_USER", "guest"),
		RABBITMQ_PASSWORD: getenv("RABBITMQ_PASSWORD", "guest"),
		RABBITMQ_HOST:     os.Getenv("RABBITMQ_HOST"),
		RABBITMQ_PORT:     os.Getenv("RABBITMQ_PORT"),
	}
}

// GetDBURL returns the DSN handed to the sql driver.
func (c *CommonConfig) GetDBURL() string {
	if c.DB_DSN != "" {
		return c.DB_DSN
	}
	if c.DB_DRIVER == "sqlite" {
		name := c.DB_NAME
		if name == "" {
			name = "storefront.db"
		}
		return "file:" + name + "?_pragma=busy_timeout(5000)"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME)
}

// GetRabbitMQURL formats the config into a RabbitMQ connection string
func (c *CommonConfig) GetRabbitMQURL() string {
	// standard ports if missing
	host := c.RABBITMQ_HOST
	if host == "" {
		host = "localhost"
	}
	port := c.RABBITMQ_PORT
	if port == "" {
		port = "5672"
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.RABBITMQ_USER, c.RABBITMQ_PASSWORD, host, port)
}

// KafkaBrokers splits KAFKA_BROKER on commas. Nil means Kafka is off.
func (c *CommonConfig) KafkaBrokers() []string {
	if strings.TrimSpace(c.KAFKA_BROKER) == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(c.KAFKA_BROKER, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
