package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"weft/config"
)

func TestLoadConfiguration_Defaults(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("loading defaults failed: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("unexpected version %d", cfg.Version)
	}
	if cfg.Engine.ViewportWidth != 1280 || cfg.Engine.ViewportHeight != 720 {
		t.Errorf("unexpected default viewport %gx%g", cfg.Engine.ViewportWidth, cfg.Engine.ViewportHeight)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("unexpected default console level %q", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yaml")
	content := "version: 1\nengine:\n  viewport_width: 640\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadConfiguration(path)
	if err != nil {
		t.Fatalf("loading failed: %v", err)
	}
	if cfg.Engine.ViewportWidth != 640 {
		t.Errorf("override lost, viewport width %g", cfg.Engine.ViewportWidth)
	}
	// Values absent from the file keep their defaults.
	if cfg.Engine.ViewportHeight != 720 {
		t.Errorf("default lost, viewport height %g", cfg.Engine.ViewportHeight)
	}
}

func TestLoadConfiguration_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nbogus: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.LoadConfiguration(path); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestLoadConfiguration_Validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad version", "version: 2\n"},
		{"bad viewport", "version: 1\nengine:\n  viewport_width: -5\n"},
		{"bad level", "version: 1\nlogging:\n  console:\n    level: chatty\n"},
		{"bad mode", "version: 1\nlogging:\n  file:\n    level: normal\n    mode: sideways\n"},
	}
	for _, c := range cases {
		path := filepath.Join(t.TempDir(), "weft.yaml")
		if err := os.WriteFile(path, []byte(c.content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := config.LoadConfiguration(path); err == nil {
			t.Errorf("%s: expected validation failure", c.name)
		}
	}
}

func TestPrepareAndDump(t *testing.T) {
	if !strings.Contains(string(config.Prepare()), "viewport_width") {
		t.Error("prepared config should carry engine settings")
	}
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	data, err := config.Dump(cfg)
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if !strings.Contains(string(data), "viewport_width: 1280") {
		t.Errorf("dump missing defaults:\n%s", data)
	}
}
