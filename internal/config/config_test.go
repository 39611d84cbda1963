package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[world]
entity_id_seed = 41
tick_rate = "50ms"

[logging]
level = "debug"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.World.EntityIDSeed != 41 {
		t.Errorf("expected seed 41, got %d", cfg.World.EntityIDSeed)
	}
	if cfg.World.TickRate != 50*time.Millisecond {
		t.Errorf("expected 50ms tick, got %v", cfg.World.TickRate)
	}
	if cfg.World.MaxEventDepth != 64 {
		t.Errorf("expected default event depth 64, got %d", cfg.World.MaxEventDepth)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative seed":  "[world]\nentity_id_seed = -1\n",
		"zero tick":      "[world]\ntick_rate = \"0s\"\n",
		"db without dsn": "[database]\nenabled = true\ndsn = \"\"\n",
		"malformed toml": "[world\n",
	}
	for name, src := range cases {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.toml")
	if err := os.WriteFile(path, []byte("[scene]\npath = \"x.yaml\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scene.Path != "x.yaml" {
		t.Errorf("expected scene path x.yaml, got %q", cfg.Scene.Path)
	}
}
