package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV" env-default:"development"`
	Port     string `env:"PORT" env-default:"8080"`
	DBDriver string `env:"DB_DRIVER" env-default:"sqlite"` // sqlite | pgx
	DBDSN    string `env:"DB_DSN" env-default:"cafe.db"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	LogFile  string `env:"LOG_FILE"`
	TZName   string `env:"TZ_NAME" env-default:"Local"`
	SeedDemo bool   `env:"SEED_DEMO" env-default:"false"`
	CORS     string `env:"CORS_ORIGINS" env-default:"*"`
	CSRF     bool   `env:"CSRF_ENABLED" env-default:"true"`

	// Requests per minute per IP, globally and on each login endpoint.
	RateLimit  int `env:"RATE_LIMIT" env-default:"120"`
	LoginLimit int `env:"LOGIN_RATE_LIMIT" env-default:"10"`

	Session time.Duration `env:"SESSION_TTL" env-default:"168h"`
	OTPTTL  time.Duration `env:"OTP_TTL" env-default:"5m"`

	Redis RedisConfig
	Admin AdminSeed
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	TTL      time.Duration `env:"CACHE_TTL" env-default:"30s"`
}

const defaultAdminPassword = "admin123"

// AdminSeed is the default admin created by the demo seed.
type AdminSeed struct {
	Mobile   string `env:"ADMIN_MOBILE" env-default:"9999999999"`
	Name     string `env:"ADMIN_NAME" env-default:"Admin"`
	Password string `env:"ADMIN_PASSWORD" env-default:"admin123"`
}

func (c Config) Production() bool { return strings.EqualFold(c.Env, "production") }

// Location resolves TZName; analytics windows are computed in it.
func (c Config) Location() *time.Location {
	if c.TZName == "" || strings.EqualFold(c.TZName, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TZName)
	if err != nil {
		log.Printf("[config] unknown TZ_NAME %q, using local: %v", c.TZName, err)
		return time.Local
	}
	return loc
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "pgx" {
		return Config{}, fmt.Errorf("DB_DRIVER must be sqlite or pgx, got %q", cfg.DBDriver)
	}
	if cfg.Production() && cfg.SeedDemo && cfg.Admin.Password == defaultAdminPassword {
		return Config{}, errors.New("SEED_DEMO in production needs ADMIN_PASSWORD set to a non-default value")
	}
	log.Printf("[config] APP_ENV=%s PORT=%s DB_DRIVER=%s LOG_LEVEL=%s TZ_NAME=%s REDIS=%t SEED_DEMO=%t",
		cfg.Env, cfg.Port, cfg.DBDriver, cfg.LogLevel, cfg.TZName, cfg.Redis.Addr != "", cfg.SeedDemo)
	return cfg, nil
}
