package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDevConfigPrecedence(t *testing.T) {
	tests := map[string]struct {
		global       string
		local        string
		flags        Flags
		wantStrategy string
		wantStore    string
		wantServices string
	}{
		"defaults only": {
			wantStrategy: "plain",
		},
		"global config": {
			global:       "strategy = \"skip\"\nstore = \"/var/cache/zonbuild\"\n",
			wantStrategy: "skip",
			wantStore:    "/var/cache/zonbuild",
		},
		"local overrides global": {
			global:       "strategy = \"skip\"\nstore = \"/var/cache/zonbuild\"\n",
			local:        "strategy = \"verify\"\n",
			wantStrategy: "verify",
			wantStore:    "/var/cache/zonbuild",
		},
		"flags override everything": {
			global:       "strategy = \"skip\"\n",
			local:        "strategy = \"verify\"\nservices = \"local.yaml\"\n",
			flags:        Flags{Strategy: "plain", Services: "flag.yaml"},
			wantStrategy: "plain",
			wantServices: "flag.yaml",
		},
		"flag store only": {
			flags:        Flags{Store: "/tmp/store"},
			wantStrategy: "plain",
			wantStore:    "/tmp/store",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			globalPath := filepath.Join(dir, "global.toml")
			localPath := filepath.Join(dir, LocalConfigFile)

			if tt.global != "" {
				if err := os.WriteFile(globalPath, []byte(tt.global), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			if tt.local != "" {
				if err := os.WriteFile(localPath, []byte(tt.local), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := loadDevConfig(tt.flags, globalPath, localPath)
			if err != nil {
				t.Fatalf("loadDevConfig() error = %v", err)
			}
			if cfg.Strategy != tt.wantStrategy {
				t.Errorf("Strategy = %q, want %q", cfg.Strategy, tt.wantStrategy)
			}
			if cfg.Store != tt.wantStore {
				t.Errorf("Store = %q, want %q", cfg.Store, tt.wantStore)
			}
			if cfg.Services != tt.wantServices {
				t.Errorf("Services = %q, want %q", cfg.Services, tt.wantServices)
			}
		})
	}
}

func TestLoadDevConfigInvalidLocal(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.toml")
	localPath := filepath.Join(dir, LocalConfigFile)

	if err := os.WriteFile(localPath, []byte("not [valid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadDevConfig(Flags{}, globalPath, localPath); err == nil {
		t.Fatal("loadDevConfig() expected error for invalid local config")
	}
}
