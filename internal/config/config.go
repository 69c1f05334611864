package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix antepone todas las variables de entorno que pisan el YAML.
const EnvPrefix = "ACTIONLINK_"

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		PublicURL       string        `yaml:"public_url"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		// Orígenes del frontend que consume la API con cookies.
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Provider struct {
		// local | identitytoolkit
		Driver  string        `yaml:"driver"`
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"provider"`

	Local struct {
		LinkBase      string        `yaml:"link_base"`
		VerifyTTL     time.Duration `yaml:"verify_ttl"`
		ResetTTL      time.Duration `yaml:"reset_ttl"`
		SignInTTL     time.Duration `yaml:"signin_ttl"`
		HashProfile   string        `yaml:"hash_profile"` // default | light
		BlacklistPath string        `yaml:"blacklist_path"`
		Accounts      []Account     `yaml:"accounts"`
	} `yaml:"local"`

	Pending struct {
		// memory | redis | postgres
		Driver string `yaml:"driver"`
	} `yaml:"pending"`

	Cache struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"cache"`

	Postgres struct {
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
	} `yaml:"postgres"`

	Flows struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"flows"`

	Continue struct {
		AllowedHosts []string `yaml:"allowed_hosts"`
		Default      string   `yaml:"default"`
	} `yaml:"continue"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
	} `yaml:"rate"`

	Context struct {
		CookieName string `yaml:"cookie_name"`
	} `yaml:"context"`

	Session struct {
		CookieName string        `yaml:"cookie_name"`
		Issuer     string        `yaml:"issuer"`
		TTL        time.Duration `yaml:"ttl"`
		// Seed ed25519 en hex (64 chars). Vacío = clave efímera.
		Seed string `yaml:"seed"`
	} `yaml:"session"`

	Cookies struct {
		Domain string `yaml:"domain"`
		Secure bool   `yaml:"secure"`
	} `yaml:"cookies"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		From               string `yaml:"from"`
		User               string `yaml:"user"`
		Pass               string `yaml:"pass"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`
}

// Account es una cuenta sembrada en el provider local.
type Account struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Verified bool   `yaml:"verified"`
}

// Load lee el YAML (si path != ""), aplica defaults, pisa con env y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default devuelve una config lista para dev (sin archivo ni env).
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = "http://localhost" + c.Server.Addr
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Provider.Driver == "" {
		c.Provider.Driver = "local"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://identitytoolkit.googleapis.com"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 10 * time.Second
	}

	if c.Local.LinkBase == "" {
		c.Local.LinkBase = strings.TrimRight(c.Server.PublicURL, "/") + "/v2/auth/action"
	}
	if c.Local.VerifyTTL == 0 {
		c.Local.VerifyTTL = 48 * time.Hour
	}
	if c.Local.ResetTTL == 0 {
		c.Local.ResetTTL = time.Hour
	}
	if c.Local.SignInTTL == 0 {
		c.Local.SignInTTL = 15 * time.Minute
	}
	if c.Local.HashProfile == "" {
		c.Local.HashProfile = "default"
	}

	if c.Pending.Driver == "" {
		c.Pending.Driver = "memory"
	}
	if c.Cache.Host == "" {
		c.Cache.Host = "localhost"
	}
	if c.Cache.Port == 0 {
		c.Cache.Port = 6379
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "actionlink:"
	}
	if c.Postgres.MaxConns == 0 {
		c.Postgres.MaxConns = 5
	}

	if c.Flows.TTL == 0 {
		c.Flows.TTL = 15 * time.Minute
	}
	if c.Continue.Default == "" {
		c.Continue.Default = "/"
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 5
	}

	if c.Context.CookieName == "" {
		c.Context.CookieName = "al_ctx"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "al_session"
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = "actionlink"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = time.Hour
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
}

// ====================== ENV ======================

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(EnvPrefix + key)
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
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
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

// applyEnvOverrides: pisa config.yaml con ACTIONLINK_*.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_PUBLIC_URL"); ok {
		c.Server.PublicURL = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// PROVIDER
	if v, ok := getEnvStr("PROVIDER_DRIVER"); ok {
		c.Provider.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("PROVIDER_API_KEY"); ok {
		c.Provider.APIKey = v
	}
	if v, ok := getEnvStr("PROVIDER_BASE_URL"); ok {
		c.Provider.BaseURL = v
	}
	if v, ok := getEnvDur("PROVIDER_TIMEOUT"); ok {
		c.Provider.Timeout = v
	}

	// LOCAL
	if v, ok := getEnvStr("LOCAL_LINK_BASE"); ok {
		c.Local.LinkBase = v
	}
	if v, ok := getEnvStr("LOCAL_HASH_PROFILE"); ok {
		c.Local.HashProfile = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOCAL_BLACKLIST_PATH"); ok {
		c.Local.BlacklistPath = v
	}

	// PENDING / CACHE / POSTGRES
	if v, ok := getEnvStr("PENDING_DRIVER"); ok {
		c.Pending.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_HOST"); ok {
		c.Cache.Host = v
	}
	if v, ok := getEnvInt("REDIS_PORT"); ok {
		c.Cache.Port = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Prefix = v
	}
	if v, ok := getEnvStr("POSTGRES_DSN"); ok {
		c.Postgres.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Postgres.MaxConns = int32(v)
	}

	// FLOWS / CONTINUE / RATE
	if v, ok := getEnvDur("FLOWS_TTL"); ok {
		c.Flows.TTL = v
	}
	if v, ok := getEnvCSV("CONTINUE_ALLOWED_HOSTS"); ok {
		c.Continue.AllowedHosts = v
	}
	if v, ok := getEnvStr("CONTINUE_DEFAULT"); ok {
		c.Continue.Default = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// SESSION / COOKIES
	if v, ok := getEnvStr("SESSION_SEED"); ok {
		c.Session.Seed = v
	}
	if v, ok := getEnvDur("SESSION_TTL"); ok {
		c.Session.TTL = v
	}
	if v, ok := getEnvBool("COOKIES_SECURE"); ok {
		c.Cookies.Secure = v
	}
	if v, ok := getEnvStr("COOKIES_DOMAIN"); ok {
		c.Cookies.Domain = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.User = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Pass = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v)
	}
}

// IsProd indica si corremos en producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// Validate chequea combinaciones que no tienen sentido antes de arrancar.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider.Driver {
	case "local":
		if c.IsProd() {
			errs = append(errs, errors.New("provider.driver=local no está permitido en prod"))
		}
	case "identitytoolkit":
		if c.Provider.APIKey == "" {
			errs = append(errs, errors.New("provider.api_key es requerido para identitytoolkit"))
		}
	default:
		errs = append(errs, fmt.Errorf("provider.driver desconocido: %q", c.Provider.Driver))
	}

	switch c.Pending.Driver {
	case "memory", "redis":
	case "postgres":
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn es requerido con pending.driver=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("pending.driver desconocido: %q", c.Pending.Driver))
	}

	switch c.Local.HashProfile {
	case "default", "light":
	default:
		errs = append(errs, fmt.Errorf("local.hash_profile desconocido: %q", c.Local.HashProfile))
	}

	if c.Session.Seed != "" && len(c.Session.Seed) != 64 {
		errs = append(errs, errors.New("session.seed debe ser hex de 32 bytes"))
	}
	if c.Rate.Enabled && c.Rate.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate.max_requests debe ser > 0"))
	}
	if !strings.HasPrefix(c.Continue.Default, "/") {
		if u, err := url.Parse(c.Continue.Default); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("continue.default inválido: %q", c.Continue.Default))
		}
	}
	for _, a := range c.Local.Accounts {
		if a.Email == "" {
			errs = append(errs, errors.New("local.accounts: email vacío"))
		}
	}
	return errors.Join(errs...)
}
