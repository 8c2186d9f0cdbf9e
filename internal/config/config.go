// Package config carga la configuración YAML del servicio, con defaults
// razonables y overrides por variables de entorno (los secrets viajan SIEMPRE
// por env, nunca en el YAML commiteado).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

		// TrustProxyHeaders: honrar X-Forwarded-For. Sólo true cuando el
		// servicio corre detrás de un proxy que sobreescribe el header.
		TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	JWT struct {
		// Secrets por clase de credencial. Deben diferir; sólo por env en prod.
		AccessSecret  string `yaml:"access_secret"`
		RefreshSecret string `yaml:"refresh_secret"`
		AccessTTL     string `yaml:"access_ttl"`
		RefreshTTL    string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// memory | redis
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`

		Login struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`

		Refresh struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"refresh"`
	} `yaml:"rate"`

	Sweep struct {
		Enabled bool `yaml:"enabled"`
		// Hora local (0-23) del boundary diario.
		BoundaryHour int    `yaml:"boundary_hour"`
		Timezone     string `yaml:"timezone"`
	} `yaml:"sweep"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML en path (opcional: path vacío arranca de defaults puros),
// aplica defaults, pisa con env y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "336h" // 14d
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Refresh.Limit == 0 {
		c.Rate.Refresh.Limit = 30
	}
	if c.Rate.Refresh.Window == "" {
		c.Rate.Refresh.Window = "1m"
	}
	if c.Sweep.Timezone == "" {
		c.Sweep.Timezone = "Local"
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate chequea lo que no puede esperar al primer uso.
func (c *Config) Validate() error {
	for _, d := range []struct{ name, val string }{
		{"jwt.access_ttl", c.JWT.AccessTTL},
		{"jwt.refresh_ttl", c.JWT.RefreshTTL},
		{"rate.login.window", c.Rate.Login.Window},
		{"rate.refresh.window", c.Rate.Refresh.Window},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return fmt.Errorf("config: storage.postgres.conn_max_lifetime: %w", err)
		}
	}
	if c.Sweep.BoundaryHour < 0 || c.Sweep.BoundaryHour > 23 {
		return errors.New("config: sweep.boundary_hour must be 0-23")
	}
	if c.Sweep.Timezone != "Local" {
		if _, err := time.LoadLocation(c.Sweep.Timezone); err != nil {
			return fmt.Errorf("config: sweep.timezone: %w", err)
		}
	}
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Rate.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown rate.backend %q", c.Rate.Backend)
	}
	// Los secrets pueden faltar acá (modo sólo-sweep no los usa); el codec
	// valida largo y distinción al construirse.
	return nil
}

// AccessTTL retorna la duración ya parseada. Panic-free: Validate corrió.
func (c *Config) AccessTTL() time.Duration  { d, _ := time.ParseDuration(c.JWT.AccessTTL); return d }
func (c *Config) RefreshTTL() time.Duration { d, _ := time.ParseDuration(c.JWT.RefreshTTL); return d }

// SweepLocation resuelve la timezone del sweep.
func (c *Config) SweepLocation() *time.Location {
	if c.Sweep.Timezone == "Local" || c.Sweep.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Sweep.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsProd reporta si corre en prod.
func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvBool("SERVER_TRUST_PROXY_HEADERS"); ok {
		c.Server.TrustProxyHeaders = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ACCESS_SECRET"); ok {
		c.JWT.AccessSecret = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_SECRET"); ok {
		c.JWT.RefreshSecret = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Rate.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Rate.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Rate.Redis.Prefix = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvStr("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_REFRESH_LIMIT"); ok {
		c.Rate.Refresh.Limit = v
	}
	if v, ok := getEnvStr("RATE_REFRESH_WINDOW"); ok {
		c.Rate.Refresh.Window = v
	}

	// SWEEP
	if v, ok := getEnvBool("SWEEP_ENABLED"); ok {
		c.Sweep.Enabled = v
	}
	if v, ok := getEnvInt("SWEEP_BOUNDARY_HOUR"); ok {
		c.Sweep.BoundaryHour = v
	}
	if v, ok := getEnvStr("SWEEP_TIMEZONE"); ok {
		c.Sweep.Timezone = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v) // auto|starttls|ssl|none
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
}
