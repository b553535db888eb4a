package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DB struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

type Storage struct {
	Driver     string `mapstructure:"driver"` // postgres | sqlite | memory
	SQLitePath string `mapstructure:"sqlite_path"`
}

type MQ struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	VHost    string `mapstructure:"vhost"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

type Redis struct {
	Addr      string        `mapstructure:"addr"`
	ReplayTTL time.Duration `mapstructure:"replay_ttl"`
}

type HTTP struct {
	Port int `mapstructure:"port"`
}

type WhatsApp struct {
	APIVersion    string `mapstructure:"api_version"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
	AccessToken   string `mapstructure:"access_token"`
	VerifyToken   string `mapstructure:"verify_token"`
}

type Razorpay struct {
	KeyID         string `mapstructure:"key_id"`
	KeySecret     string `mapstructure:"key_secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type Gemini struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type Session struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type Orders struct {
	OrphanGrace         time.Duration `mapstructure:"orphan_grace"`
	OrphanSweepInterval time.Duration `mapstructure:"orphan_sweep_interval"`
}

type Restaurant struct {
	Name    string `mapstructure:"name"`
	Contact string `mapstructure:"contact"`
}

type MenuSeed struct {
	Name        string  `mapstructure:"name"`
	Description string  `mapstructure:"description"`
	Price       float64 `mapstructure:"price"`
	Available   bool    `mapstructure:"available"`
}

type App struct {
	HTTP       HTTP       `mapstructure:"http"`
	Storage    Storage    `mapstructure:"storage"`
	Database   DB         `mapstructure:"database"`
	Rabbit     MQ         `mapstructure:"rabbitmq"`
	Redis      Redis      `mapstructure:"redis"`
	WhatsApp   WhatsApp   `mapstructure:"whatsapp"`
	Razorpay   Razorpay   `mapstructure:"razorpay"`
	Gemini     Gemini     `mapstructure:"gemini"`
	Session    Session    `mapstructure:"session"`
	Orders     Orders     `mapstructure:"orders"`
	Restaurant Restaurant `mapstructure:"restaurant"`
	LogLevel   string     `mapstructure:"log_level"`
	Menu       []MenuSeed `mapstructure:"menu"`
}

// setDefaults registers every key, secrets included. AutomaticEnv only
// reaches keys viper already knows when unmarshalling.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)

	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.sqlite_path", "chatbot.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "")

	v.SetDefault("rabbitmq.enabled", true)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.vhost", "/")
	v.SetDefault("rabbitmq.user", "")
	v.SetDefault("rabbitmq.password", "")
	v.SetDefault("rabbitmq.exchange", "orders_broadcast")
	v.SetDefault("rabbitmq.queue", "orders_feed")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.replay_ttl", 24*time.Hour)

	v.SetDefault("whatsapp.api_version", "v17.0")
	v.SetDefault("whatsapp.phone_number_id", "")
	v.SetDefault("whatsapp.access_token", "")
	v.SetDefault("whatsapp.verify_token", "")

	v.SetDefault("razorpay.key_id", "")
	v.SetDefault("razorpay.key_secret", "")
	v.SetDefault("razorpay.webhook_secret", "")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")

	v.SetDefault("session.ttl", 10*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)

	v.SetDefault("orders.orphan_grace", 30*time.Minute)
	v.SetDefault("orders.orphan_sweep_interval", 5*time.Minute)

	v.SetDefault("restaurant.name", "The Craving")
	v.SetDefault("restaurant.contact", "+91-9999900000")

	v.SetDefault("log_level", "info")
}

// Load reads the YAML file at path (optional when empty) and overlays
// CHATBOT_* environment variables, e.g. CHATBOT_DATABASE_PASSWORD.
// A .env file in the working directory is loaded first when present.
func Load(path string) (App, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return App{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var a App
	if err := v.Unmarshal(&a); err != nil {
		return App{}, fmt.Errorf("decode config: %w", err)
	}
	if err := a.Validate(); err != nil {
		return App{}, err
	}
	return a, nil
}

func (a App) Validate() error {
	switch a.Storage.Driver {
	case "postgres":
		if a.Database.Host == "" || a.Database.User == "" || a.Database.Name == "" {
			return errors.New("invalid config: database host/user/database are required for the postgres driver")
		}
	case "sqlite":
		if a.Storage.SQLitePath == "" {
			return errors.New("invalid config: storage.sqlite_path is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid config: unknown storage driver %q", a.Storage.Driver)
	}
	if a.Rabbit.Enabled && a.Rabbit.Host == "" {
		return errors.New("invalid config: rabbitmq.host is required when rabbitmq is enabled")
	}
	if a.Session.TTL <= 0 || a.Session.SweepInterval <= 0 {
		return errors.New("invalid config: session ttl and sweep_interval must be positive")
	}
	return nil
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
