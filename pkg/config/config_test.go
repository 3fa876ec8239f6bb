package config

import (
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		toml    string
		wantErr bool
		check   func(t *testing.T, c Config)
	}{
		{
			name: "Empty",
			toml: "",
			check: func(t *testing.T, c Config) {
				if c.Canvas.Margin != 40 {
					t.Errorf("margin = %g, want default 40", c.Canvas.Margin)
				}
			},
		},
		{
			name: "Overrides",
			toml: "theme = \"dark\"\n\n[canvas]\nmargin = 20\nflip_y = true\n\n[batch]\ntimeout = \"45s\"\n",
			check: func(t *testing.T, c Config) {
				if c.Theme != "dark" {
					t.Errorf("theme = %q", c.Theme)
				}
				if c.Canvas.Margin != 20 || !c.Canvas.FlipY {
					t.Errorf("canvas overrides not applied: %+v", c.Canvas)
				}
				if c.Batch.Timeout.Duration != 45*time.Second {
					t.Errorf("timeout = %v", c.Batch.Timeout.Duration)
				}
				// Untouched sections keep defaults
				if c.Layout.RankSep != 80 {
					t.Errorf("rank_sep = %g, want default 80", c.Layout.RankSep)
				}
			},
		},
		{
			name:    "UnknownKey",
			toml:    "margni = 20\n",
			wantErr: true,
		},
		{
			name:    "BadZoomClamp",
			toml:    "[canvas]\nmin_zoom = 2.0\nmax_zoom = 0.5\n",
			wantErr: true,
		},
		{
			name:    "ZeroConcurrency",
			toml:    "[batch]\nmax_concurrency = -1\n",
			wantErr: true,
		},
		{
			name:    "BadDuration",
			toml:    "[batch]\ntimeout = \"soon\"\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.toml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && err == nil {
				tt.check(t, cfg)
			}
		})
	}
}
