package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	App          AppConfig
	SEMP         SEMPConfig
	Log          LogConfig
	Redis        RedisConfig
	MQTT         MQTTConfig
	Database     DatabaseConfig
	Scheduler    SchedulerConfig
	MDNS         MDNSConfig
	RemoteAccess RemoteAccessConfig
}

type AppConfig struct {
	APIPort int
	AgentID string
}

type SEMPConfig struct {
	Port          int
	UUID          string
	FriendlyName  string
	Manufacturer  string
	AdvertisedURL string
}

type LogConfig struct {
	Level  string
	Format string
}

// RedisConfig enables the hook delivery queue and the status cache when Addr is set.
type RedisConfig struct {
	Addr string
}

// MQTTConfig enables recommendation publishing when Broker is set.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// DatabaseConfig enables the recommendation history when URL is set.
type DatabaseConfig struct {
	URL string
}

type SchedulerConfig struct {
	StatusCron string
}

type MDNSConfig struct {
	LocalName string
}

type RemoteAccessConfig struct {
	Enabled        bool
	PublicWS       string
	RetryDelaySecs int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SEMP_PORT", 8080)
	v.SetDefault("API_PORT", 9090)
	v.SetDefault("SEMP_FRIENDLY_NAME", "SEMP Gateway")
	v.SetDefault("SEMP_MANUFACTURER", "sempgateway")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MQTT_CLIENT_ID", "sempgateway")
	v.SetDefault("MQTT_TOPIC_PREFIX", "semp")
	v.SetDefault("STATUS_CRON", "@every 1m")
	v.SetDefault("MDNS_LOCAL_NAME", "sempgateway.local")
	v.SetDefault("REMOTE_ACCESS_RETRY_SECS", 2)
}

// LoadConfig reads configuration from config.yaml, .env, or env vars
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config.yaml: %w", err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			APIPort: v.GetInt("API_PORT"),
			AgentID: v.GetString("AGENT_ID"),
		},
		SEMP: SEMPConfig{
			Port:          v.GetInt("SEMP_PORT"),
			UUID:          v.GetString("SEMP_UUID"),
			FriendlyName:  v.GetString("SEMP_FRIENDLY_NAME"),
			Manufacturer:  v.GetString("SEMP_MANUFACTURER"),
			AdvertisedURL: v.GetString("SEMP_ADVERTISED_URL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Redis: RedisConfig{Addr: v.GetString("REDIS_ADDR")},
		MQTT: MQTTConfig{
			Broker:      v.GetString("MQTT_BROKER"),
			ClientID:    v.GetString("MQTT_CLIENT_ID"),
			TopicPrefix: v.GetString("MQTT_TOPIC_PREFIX"),
		},
		Database:  DatabaseConfig{URL: v.GetString("DB_URL")},
		Scheduler: SchedulerConfig{StatusCron: v.GetString("STATUS_CRON")},
		MDNS:      MDNSConfig{LocalName: v.GetString("MDNS_LOCAL_NAME")},
		RemoteAccess: RemoteAccessConfig{
			Enabled:        v.GetBool("REMOTE_ACCESS_ENABLED"),
			PublicWS:       v.GetString("REMOTE_ACCESS_PUBLIC_WS"),
			RetryDelaySecs: v.GetInt("REMOTE_ACCESS_RETRY_SECS"),
		},
	}

	if cfg.SEMP.UUID == "" {
		cfg.SEMP.UUID = uuid.NewString()
	}
	if cfg.SEMP.AdvertisedURL == "" {
		cfg.SEMP.AdvertisedURL = fmt.Sprintf("http://%s:%d", cfg.MDNS.LocalName, cfg.SEMP.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the gateway cannot start with.
func (c *Config) Validate() error {
	if c.SEMP.Port <= 0 || c.SEMP.Port > 65535 {
		return fmt.Errorf("invalid SEMP_PORT %d", c.SEMP.Port)
	}
	if c.App.APIPort <= 0 || c.App.APIPort > 65535 {
		return fmt.Errorf("invalid API_PORT %d", c.App.APIPort)
	}
	if c.SEMP.Port == c.App.APIPort {
		return fmt.Errorf("SEMP_PORT and API_PORT must differ (both %d)", c.SEMP.Port)
	}
	if c.RemoteAccess.Enabled && c.RemoteAccess.PublicWS == "" {
		return errors.New("REMOTE_ACCESS_PUBLIC_WS is required when remote access is enabled")
	}
	return nil
}
