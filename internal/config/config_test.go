package config

import (
	"testing"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "hello")
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BAD_INT", "abc")
	t.Setenv("CFG_TEST_FLOAT", "6.25")
	t.Setenv("CFG_TEST_BOOL", "false")

	if got := getEnv("CFG_TEST_STR", "default"); got != "hello" {
		t.Errorf("getEnv = %q, want hello", got)
	}
	if got := getEnv("CFG_TEST_MISSING", "default"); got != "default" {
		t.Errorf("getEnv missing = %q, want default", got)
	}
	if got := getEnvAsInt("CFG_TEST_INT", 1); got != 42 {
		t.Errorf("getEnvAsInt = %d, want 42", got)
	}
	if got := getEnvAsInt("CFG_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt invalid = %d, want 7", got)
	}
	if got := getEnvAsFloat("CFG_TEST_FLOAT", 1); got != 6.25 {
		t.Errorf("getEnvAsFloat = %f, want 6.25", got)
	}
	if got := getEnvAsBool("CFG_TEST_BOOL", true); got {
		t.Error("getEnvAsBool = true, want false")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chat.TypedDelay.MinMs != 1000 || cfg.Chat.TypedDelay.SpanMs != 2000 {
		t.Errorf("typed delay = %+v, want 1000/2000", cfg.Chat.TypedDelay)
	}
	if cfg.Chat.QuickDelay.MinMs != 800 || cfg.Chat.QuickDelay.SpanMs != 1200 {
		t.Errorf("quick delay = %+v, want 800/1200", cfg.Chat.QuickDelay)
	}
	if cfg.Mortgage.InsuranceRate != 0.0035 {
		t.Errorf("insurance rate = %f, want 0.0035", cfg.Mortgage.InsuranceRate)
	}
	if cfg.Profile.StorageKey != "leadProfile" {
		t.Errorf("storage key = %q, want leadProfile", cfg.Profile.StorageKey)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown catalog backend")
	}
}

func TestLoadRequiresIntakeURL(t *testing.T) {
	t.Setenv("LEADS_BACKEND", "http")
	t.Setenv("LEADS_INTAKE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when http intake has no URL")
	}
}

func TestGetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=disable"
	if got := cfg.GetPostgreSQLDSN(); got != want {
		t.Errorf("GetPostgreSQLDSN() = %q, want %q", got, want)
	}

	cfg.PostgreSQL.DSN = "postgres://x"
	if got := cfg.GetPostgreSQLDSN(); got != "postgres://x" {
		t.Errorf("GetPostgreSQLDSN() = %q, want full DSN", got)
	}
}
