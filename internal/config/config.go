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

// Config agrupa toda la configuración del gateway.
// Se carga desde YAML (opcional) y se pisa con variables de entorno.
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Cognito struct {
		Region       string `yaml:"region"`
		UserPoolID   string `yaml:"user_pool_id"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		// Domain es el dominio del hosted UI, con esquema.
		// Ej: https://myapp.auth.eu-west-1.amazoncognito.com
		Domain string `yaml:"domain"`
		// RedirectURL para el callback del flujo federado.
		// Si está vacío se construye desde PublicBaseURL.
		RedirectURL   string `yaml:"redirect_url"`
		PublicBaseURL string `yaml:"public_base_url"`
		// Timeout para todas las llamadas de red al provider (default 10s).
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"cognito"`

	Cache struct {
		// Kind: "memory" | "redis"
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Rate struct {
		Enabled bool `yaml:"enabled"`

		Login struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`

		Forgot struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"forgot"`
	} `yaml:"rate"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Issuer construye la URL del issuer del user pool.
// Todas las validaciones de iss y el fetch de JWKS derivan de aquí.
func (c *Config) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Cognito.Region, c.Cognito.UserPoolID)
}

// JWKSURL retorna el endpoint publicado de claves del pool.
func (c *Config) JWKSURL() string {
	return c.Issuer() + "/.well-known/jwks.json"
}

// Endpoint retorna el endpoint regional del API de Cognito IDP.
func (c *Config) Endpoint() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/", c.Cognito.Region)
}

// Load lee la configuración desde el YAML en path (si existe) y aplica
// overrides de entorno. path vacío ⇒ solo entorno.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
			// Sin archivo: seguimos solo con entorno.
		} else if err := yaml.Unmarshal(b, &c); err != nil {
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

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cognito.Timeout <= 0 {
		c.Cognito.Timeout = 10 * time.Second
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Forgot.Limit == 0 {
		c.Rate.Forgot.Limit = 5
	}
	if c.Rate.Forgot.Window == "" {
		c.Rate.Forgot.Window = "5m"
	}
	if c.Cognito.RedirectURL == "" && c.Cognito.PublicBaseURL != "" {
		c.Cognito.RedirectURL = strings.TrimRight(c.Cognito.PublicBaseURL, "/") + "/auth/google/callback"
	}
}

// Validate falla el arranque si falta configuración crítica del provider.
// Preferimos morir temprano a fallar request por request.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Cognito.Region) == "" {
		missing = append(missing, "COGNITO_REGION")
	}
	if strings.TrimSpace(c.Cognito.UserPoolID) == "" {
		missing = append(missing, "COGNITO_USER_POOL_ID")
	}
	if strings.TrimSpace(c.Cognito.ClientID) == "" {
		missing = append(missing, "COGNITO_CLIENT_ID")
	}
	if strings.TrimSpace(c.Cognito.ClientSecret) == "" {
		missing = append(missing, "COGNITO_CLIENT_SECRET")
	}
	if strings.TrimSpace(c.Cognito.Domain) == "" {
		missing = append(missing, "COGNITO_DOMAIN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}

	if c.Rate.Login.Window != "" {
		if _, err := time.ParseDuration(c.Rate.Login.Window); err != nil {
			return fmt.Errorf("config: rate.login.window: %w", err)
		}
	}
	if c.Rate.Forgot.Window != "" {
		if _, err := time.ParseDuration(c.Rate.Forgot.Window); err != nil {
			return fmt.Errorf("config: rate.forgot.window: %w", err)
		}
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: cache.kind %q not supported", c.Cache.Kind)
	}
	if c.Cache.Kind == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return errors.New("config: cache.kind=redis requires redis addr")
	}
	return nil
}

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

// applyEnvOverrides: pisa el YAML con variables de entorno.
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

	// COGNITO
	if v, ok := getEnvStr("COGNITO_REGION"); ok {
		c.Cognito.Region = v
	}
	if v, ok := getEnvStr("COGNITO_USER_POOL_ID"); ok {
		c.Cognito.UserPoolID = v
	}
	if v, ok := getEnvStr("COGNITO_CLIENT_ID"); ok {
		c.Cognito.ClientID = v
	}
	if v, ok := getEnvStr("COGNITO_CLIENT_SECRET"); ok {
		c.Cognito.ClientSecret = v
	}
	if v, ok := getEnvStr("COGNITO_DOMAIN"); ok {
		c.Cognito.Domain = strings.TrimRight(v, "/")
	}
	if v, ok := getEnvStr("COGNITO_REDIRECT_URL"); ok {
		c.Cognito.RedirectURL = v
	}
	if v, ok := getEnvStr("PUBLIC_BASE_URL"); ok {
		c.Cognito.PublicBaseURL = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvStr("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_FORGOT_LIMIT"); ok {
		c.Rate.Forgot.Limit = v
	}
	if v, ok := getEnvStr("RATE_FORGOT_WINDOW"); ok {
		c.Rate.Forgot.Window = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}
