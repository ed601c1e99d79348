package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config captures the server runtime parameters.
type Config struct {
	ListenAddress  string `mapstructure:"listen_address"`
	DatabaseURL    string `mapstructure:"database_url"`
	JWTSecret      string `mapstructure:"jwt_secret"`
	LogLevel       string `mapstructure:"log_level"`
	MetricsAddress string `mapstructure:"metrics_address"`
	UploadDir      string `mapstructure:"upload_dir"`
	AllowOrigins   string `mapstructure:"allow_origins"`
}

const (
	defaultListenAddress = ":8080"
	defaultLogLevel      = "info"
	defaultUploadDir     = "./uploads"
	defaultAllowOrigins  = "http://localhost:3000"
)

// Load reads configuration from the provided file path (if any) and the
// environment. Environment variables are prefixed with CHAT_ and override
// file values.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHAT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("listen_address", defaultListenAddress)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("upload_dir", defaultUploadDir)
	v.SetDefault("allow_origins", defaultAllowOrigins)
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("metrics_address", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database_url is required (CHAT_DATABASE_URL)")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt_secret is required (CHAT_JWT_SECRET)")
	}

	return cfg, nil
}
