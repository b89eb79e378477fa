package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StoreConfig struct {
	// Driver selects the record back end: "mongo" or "memory". The memory
	// driver runs the portal self-contained, which is how the training
	// scenario usually ships.
	Driver string
	Seed   bool
}

type RateLimitConfig struct {
	Enabled bool
	// Max attempts per client within Window before logins are throttled.
	Max    int
	Window time.Duration
}

type SecurityConfig struct {
	JWTSecret string
	TokenTTL  time.Duration

	// StrictCredentials selects the patched credential policy: login fields
	// must be plain strings before they reach the store query. Leaving it
	// off keeps the structural-match path reachable, which is the point of
	// the exercise.
	StrictCredentials bool

	LoginRateLimit RateLimitConfig
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Mongo            MongoConfig
	Redis            RedisConfig
	Store            StoreConfig
	Security         SecurityConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("USERPORTAL")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017/userportal_ctf")
	v.SetDefault("mongo.database", "userportal_ctf")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.seed", true)

	v.SetDefault("security.jwtsecret", "super_secret_jwt_key_for_ctf_challenge_2024")
	v.SetDefault("security.tokenttl", "24h")
	v.SetDefault("security.strictcredentials", false)

	v.SetDefault("security.loginratelimit.enabled", true)
	v.SetDefault("security.loginratelimit.max", 30)
	v.SetDefault("security.loginratelimit.window", "1m")
}
