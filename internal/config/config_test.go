package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("COGNITO_REGION", "eu-west-1")
	t.Setenv("COGNITO_USER_POOL_ID", "eu-west-1_TESTPOOL")
	t.Setenv("COGNITO_CLIENT_ID", "client123")
	t.Setenv("COGNITO_CLIENT_SECRET", "secret456")
	t.Setenv("COGNITO_DOMAIN", "https://myapp.auth.eu-west-1.amazoncognito.com")
}

func TestLoadFromEnvOnly(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Kind != "memory" {
		t.Errorf("default cache kind = %q", cfg.Cache.Kind)
	}
	if cfg.Rate.Login.Limit != 10 || cfg.Rate.Login.Window != "1m" {
		t.Errorf("default login rate = %d/%s", cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
	}
}

func TestDerivedURLs(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	wantIssuer := "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_TESTPOOL"
	if cfg.Issuer() != wantIssuer {
		t.Errorf("Issuer() = %q", cfg.Issuer())
	}
	if cfg.JWKSURL() != wantIssuer+"/.well-known/jwks.json" {
		t.Errorf("JWKSURL() = %q", cfg.JWKSURL())
	}
	if cfg.Endpoint() != "https://cognito-idp.eu-west-1.amazonaws.com/" {
		t.Errorf("Endpoint() = %q", cfg.Endpoint())
	}
}

func TestValidateMissingSettings(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COGNITO_CLIENT_SECRET", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "COGNITO_CLIENT_SECRET") {
		t.Fatalf("error does not name the missing setting: %v", err)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  env: prod
server:
  addr: ":9000"
rate:
  enabled: true
  login:
    limit: 3
    window: 30s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVER_ADDR", ":9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":9999" {
		t.Errorf("env should win over yaml, addr = %q", cfg.Server.Addr)
	}
	if cfg.App.Env != "prod" {
		t.Errorf("yaml value lost, env = %q", cfg.App.Env)
	}
	if !cfg.Rate.Enabled || cfg.Rate.Login.Limit != 3 || cfg.Rate.Login.Window != "30s" {
		t.Errorf("rate config = %+v", cfg.Rate)
	}
}

func TestLoadMissingFileIsNotFatal(t *testing.T) {
	setRequiredEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing config file must not be fatal: %v", err)
	}
}

func TestValidateBadWindow(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RATE_LOGIN_WINDOW", "sixty seconds")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unparseable window")
	}
}

func TestRedirectURLFromPublicBase(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PUBLIC_BASE_URL", "https://auth.example.com/")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cognito.RedirectURL != "https://auth.example.com/auth/google/callback" {
		t.Errorf("RedirectURL = %q", cfg.Cognito.RedirectURL)
	}
}
