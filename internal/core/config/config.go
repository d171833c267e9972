package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxConcurrent     int64
	CORSOrigins       []string `mapstructure:"cors_origins"`
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

func (a App) IsProd() bool { return a.Env == "production" }

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	ExtendedTTLHours  int
	CookieName        string
	CookieSecure      bool
}

func (j JWT) AccessTTL() time.Duration   { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) ExtendedTTL() time.Duration { return time.Duration(j.ExtendedTTLHours) * time.Hour }

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	QueryTimeoutSec    int
	AutoMigrate        bool
	LogLevel           string
}

func (d DB) QueryTimeout() time.Duration { return time.Duration(d.QueryTimeoutSec) * time.Second }

type Upload struct {
	Root            string
	MaxBytes        int64
	StagingTTLMin   int
	ReapIntervalMin int
}

func (u Upload) StagingTTL() time.Duration   { return time.Duration(u.StagingTTLMin) * time.Minute }
func (u Upload) ReapInterval() time.Duration { return time.Duration(u.ReapIntervalMin) * time.Minute }

// RateLimit holds the per-IP budget for the account endpoints and the
// process-wide budget in front of every route.
type RateLimit struct {
	RPS         float64
	Burst       int
	GlobalRPS   float64 `mapstructure:"global_rps"`
	GlobalBurst int     `mapstructure:"global_burst"`
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	DB        DB
	Redis     Redis `mapstructure:"redis"`
	Upload    Upload
	RateLimit RateLimit
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "souqbridge-identity")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 3011)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 60)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.requesttimeoutsec", 30)
	v.SetDefault("app.http.maxconcurrent", 300)
	v.SetDefault("app.http.cors_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.filename", "logs/identity.log")
	v.SetDefault("log.rotate.maxsizemb", 100)
	v.SetDefault("log.rotate.maxbackups", 7)
	v.SetDefault("log.rotate.maxagedays", 14)
	v.SetDefault("log.rotate.compress", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.cookiesecure", false)
	v.SetDefault("jwt.issuer", "souqbridge")
	v.SetDefault("jwt.accesstokenttlmin", 60)
	v.SetDefault("jwt.extendedttlhours", 168)
	v.SetDefault("jwt.cookiename", "token")
	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("db.maxopenconns", 10)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.querytimeoutsec", 5)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("upload.root", "./uploads")
	v.SetDefault("upload.maxbytes", 50<<20)
	v.SetDefault("upload.stagingttlmin", 60)
	v.SetDefault("upload.reapintervalmin", 15)
	v.SetDefault("ratelimit.rps", 5)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("ratelimit.global_rps", 200)
	v.SetDefault("ratelimit.global_burst", 400)
}

// Read loads config from a YAML file (optional) with APP_ env overrides.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load is Read for process start: any error is fatal.
func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

// SampleJWTSecret is the signing key committed in configs/config.local.yaml.
const SampleJWTSecret = "local-development-signing-key-change-me"

func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return errors.New("jwt.secret must be at least 32 bytes")
	}
	if c.App.IsProd() && c.JWT.Secret == SampleJWTSecret {
		return errors.New("jwt.secret is the local sample key; set APP_JWT_SECRET")
	}
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.maxbytes must be positive")
	}
	if c.RateLimit.GlobalRPS <= 0 || c.RateLimit.GlobalBurst <= 0 {
		return errors.New("ratelimit.global_rps and ratelimit.global_burst must be positive")
	}
	return nil
}
