package config

import (
	"testing"
)

func TestDefaultConfigNeedsInput(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without input file")
	}

	cfg.InputFile = "monaco.osm"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"area policy", func(c *Config) { c.ClosedWays = "area" }, false},
		{"unknown policy", func(c *Config) { c.ClosedWays = "polygon" }, true},
		{"size limit", func(c *Config) { c.MaxInputSize = "512MB" }, false},
		{"bad size limit", func(c *Config) { c.MaxInputSize = "lots" }, true},
		{"negative interval", func(c *Config) { c.MetricsInterval = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.InputFile = "input.osm"
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaxInputBytes(t *testing.T) {
	cfg := DefaultConfig()
	if n, err := cfg.MaxInputBytes(); err != nil || n != 0 {
		t.Errorf("expected unlimited, got %d, %v", n, err)
	}

	cfg.MaxInputSize = "2 MiB"
	n, err := cfg.MaxInputBytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2*1024*1024 {
		t.Errorf("expected %d, got %d", 2*1024*1024, n)
	}
}

func TestToStdout(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.ToStdout() {
		t.Error("empty output should go to stdout")
	}
	cfg.OutputFile = "-"
	if !cfg.ToStdout() {
		t.Error("- should go to stdout")
	}
	cfg.OutputFile = "out.geojson"
	if cfg.ToStdout() {
		t.Error("named output should not go to stdout")
	}
}
