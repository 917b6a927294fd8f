package cli

import (
	"os"
	"path/filepath"
	"testing"

	"spendwise/internal/core"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SPENDWISE_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPENDWISE_TEST_VALUE", "")
	os.Unsetenv("SPENDWISE_TEST_VALUE")

	LoadEnvFile(path)
	if got := os.Getenv("SPENDWISE_TEST_VALUE"); got != "from-file" {
		t.Errorf("got %q", got)
	}

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "8090")
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8090" {
		t.Errorf("port = %s", cfg.Port)
	}

	t.Setenv("PORT", "not-a-port")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Error("invalid port should fail validation")
	}
}

func TestNewClassifier(t *testing.T) {
	c, err := NewClassifier("")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Classify("dinner", core.Money{}, ""); got != core.Food {
		t.Errorf("default rules: %s", got)
	}

	path := filepath.Join(t.TempDir(), "rules.yaml")
	rules := "rules:\n  - category: Entertainment\n    keywords: [dinner]\n"
	if err := os.WriteFile(path, []byte(rules), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err = NewClassifier(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Classify("dinner", core.Money{}, ""); got != core.Entertainment {
		t.Errorf("file rules: %s", got)
	}

	if _, err := NewClassifier(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing rules file should fail")
	}
}

func TestSetupLogger(t *testing.T) {
	if l := SetupLogger("bogus", "json"); l == nil {
		t.Fatal("nil logger")
	}
}
