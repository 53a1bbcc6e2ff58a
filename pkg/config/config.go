package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Chat     ChatConfig
	Store    StoreConfig
	Search   SearchConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port         string
	AllowOrigins []string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	Enabled       bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type ChatConfig struct {
	PreviewLength    int
	MaxMessageLength int
	SendBufferSize   int
}

type StoreConfig struct {
	MaxLocationAccuracyMeters float64
}

type SearchConfig struct {
	DefaultLimit int
	MaxLimit     int
	RankWindow   int
}

var defaults = map[string]any{
	"APP_NAME":    "MyJara API",
	"APP_VERSION": "1.0.0",
	"APP_ENV":     "development",

	"PORT":          "8080",
	"ALLOW_ORIGINS": "http://localhost:3000,http://localhost:8080",

	"DB_HOST":         "localhost",
	"DB_PORT":         "5432",
	"DB_USER":         "postgres",
	"DB_PASSWORD":     "",
	"DB_NAME":         "myjara",
	"DB_SSL_MODE":     "disable",
	"DB_AUTO_MIGRATE": false,

	"JWT_SECRET": "",

	"REDIS_ENABLED":  true,
	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     "6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"CHAT_PREVIEW_LENGTH":     80,
	"CHAT_MAX_MESSAGE_LENGTH": 2000,
	"CHAT_SEND_BUFFER_SIZE":   64,

	"STORE_MAX_LOCATION_ACCURACY_METERS": 100.0,

	"SEARCH_DEFAULT_LIMIT": 50,
	"SEARCH_MAX_LIMIT":     200,
	"SEARCH_RANK_WINDOW":   1000,
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Version:     v.GetString("APP_VERSION"),
			Environment: v.GetString("APP_ENV"),
		},
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			AllowOrigins: splitList(v.GetString("ALLOW_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSL_MODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			SecretKey: v.GetString("JWT_SECRET"),
		},
		Redis: RedisConfig{
			Enabled:       v.GetBool("REDIS_ENABLED"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
		},
		Chat: ChatConfig{
			PreviewLength:    v.GetInt("CHAT_PREVIEW_LENGTH"),
			MaxMessageLength: v.GetInt("CHAT_MAX_MESSAGE_LENGTH"),
			SendBufferSize:   v.GetInt("CHAT_SEND_BUFFER_SIZE"),
		},
		Store: StoreConfig{
			MaxLocationAccuracyMeters: v.GetFloat64("STORE_MAX_LOCATION_ACCURACY_METERS"),
		},
		Search: SearchConfig{
			DefaultLimit: v.GetInt("SEARCH_DEFAULT_LIMIT"),
			MaxLimit:     v.GetInt("SEARCH_MAX_LIMIT"),
			RankWindow:   v.GetInt("SEARCH_RANK_WINDOW"),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Chat.PreviewLength <= 0 {
		return nil, errors.New("chat preview length must be positive")
	}

	if cfg.Search.MaxLimit < cfg.Search.DefaultLimit {
		return nil, errors.New("search max limit is lower than the default limit")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
