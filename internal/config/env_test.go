package config

import "testing"

func mapLookup(values map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestApplyEnvNestedAndTyped(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	err := applyEnv(cfg, mapLookup(map[string]string{
		"SMTP_PORT":              " 2525 ",
		"DB_PORT":                "6543",
		"SMTP_USE_TLS":           "true",
		"SERVER_ALLOWED_ORIGINS": "https://a.test, ,https://b.test",
	}))
	if err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}
	if cfg.SMTP.Port != 2525 {
		t.Errorf("SMTP.Port = %d, want 2525", cfg.SMTP.Port)
	}
	if cfg.Database.Port != "6543" {
		t.Errorf("Database.Port = %q, want 6543", cfg.Database.Port)
	}
	if !cfg.SMTP.UseTLS {
		t.Error("SMTP.UseTLS not applied")
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	cfg := &Config{}
	if err := applyEnv(cfg, mapLookup(map[string]string{"SMTP_PORT": "five"})); err == nil {
		t.Error("expected error for non-numeric port")
	}
	if err := applyEnv(42, mapLookup(nil)); err == nil {
		t.Error("expected error for non-struct target")
	}
}
