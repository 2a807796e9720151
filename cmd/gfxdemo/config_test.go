package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gfxdemo.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("loadConfig(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
		check   func(t *testing.T, c Config)
	}{
		{
			name: "overrides",
			body: "width = 320\nframes = 5\n[camera]\nspin = 10.0\n",
			check: func(t *testing.T, c Config) {
				if c.Width != 320 || c.Height != 600 || c.Frames != 5 {
					t.Errorf("size/frames = %dx%d/%d, want 320x600/5", c.Width, c.Height, c.Frames)
				}
				if c.Camera.Spin != 10 || c.Camera.FOV != 45 {
					t.Errorf("Camera = %+v, want spin 10 and default fov", c.Camera)
				}
			},
		},
		{name: "unknown key", body: "colour = 1\n", wantErr: "colour"},
		{name: "zero size", body: "width = 0\n", wantErr: "invalid size"},
		{name: "bad level", body: "log_level = \"loud\"\n", wantErr: "log level"},
		{name: "debug level", body: "log_level = \"debug\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(writeConfig(t, tt.body))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("loadConfig() error = %v, want it to mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestRunHeadless(t *testing.T) {
	for _, threaded := range []bool{false, true} {
		cfg := defaultConfig()
		cfg.Frames = 8
		cfg.BlendEvery = 2
		cfg.Threaded = threaded
		if err := run(&cfg); err != nil {
			t.Fatalf("run(threaded=%v) error = %v", threaded, err)
		}
	}
}
