package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string        `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	NonceSecret    string        `mapstructure:"NONCE_SECRET"`
	NonceTTL       time.Duration `mapstructure:"NONCE_TTL"`
	DebugMode      bool          `mapstructure:"DEBUG_MODE"`
	AccessCacheTTL time.Duration `mapstructure:"ACCESS_CACHE_TTL"`
	UploadDir      string        `mapstructure:"UPLOAD_DIR"`
	MaxUploadBytes int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	SMTPHost       string        `mapstructure:"SMTP_HOST"`
	SMTPPort       int           `mapstructure:"SMTP_PORT"`
	SMTPUser       string        `mapstructure:"SMTP_USER"`
	SMTPPassword   string        `mapstructure:"SMTP_PASSWORD"`
	MailFrom       string        `mapstructure:"MAIL_FROM"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	ClinicName     string        `mapstructure:"CLINIC_NAME"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("NONCE_TTL", "12h")
	v.SetDefault("ACCESS_CACHE_TTL", "1h")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("CLINIC_NAME", "Clinic")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("NONCE_SECRET")
	v.BindEnv("NONCE_TTL")
	v.BindEnv("DEBUG_MODE")
	v.BindEnv("ACCESS_CACHE_TTL")
	v.BindEnv("UPLOAD_DIR")
	v.BindEnv("MAX_UPLOAD_BYTES")
	v.BindEnv("SMTP_HOST")
	v.BindEnv("SMTP_PORT")
	v.BindEnv("SMTP_USER")
	v.BindEnv("SMTP_PASSWORD")
	v.BindEnv("MAIL_FROM")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("CLINIC_NAME")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: All requests are treated as an admin user with every")
		log.Println("WARNING: capability. Do NOT use this configuration in production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// mode a token verification source (signing key or issuer) and the nonce
// secret are required so that authentication and action nonces are enforced.
// DEBUG_MODE echoes request input back to callers and is refused in
// production.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.AuthSigningKey == "" && c.AuthIssuer == "" && c.AuthJWKSURL == "" {
			return fmt.Errorf(
				"one of AUTH_SIGNING_KEY, AUTH_ISSUER or AUTH_JWKS_URL must be set when ENV=%q. "+
					"Refusing to start without authentication configuration", c.Env)
		}
		if c.NonceSecret == "" {
			return fmt.Errorf("NONCE_SECRET is required when ENV=%q", c.Env)
		}
	}

	if c.IsProduction() && c.DebugMode {
		return fmt.Errorf("DEBUG_MODE must be disabled in production")
	}

	if c.AccessCacheTTL <= 0 {
		return fmt.Errorf("ACCESS_CACHE_TTL must be positive, got %s", c.AccessCacheTTL)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}

	return nil
}
