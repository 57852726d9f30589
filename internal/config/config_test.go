package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := Default()
	warnings := cfg.Validate()
	if len(warnings) != 0 {
		t.Errorf("default config should have no warnings, got %v", warnings)
	}
}

func TestValidate_SecurityWithoutCert(t *testing.T) {
	cfg := Default()
	cfg.Security.Enabled = true
	cfg.Security.Certificate = ""
	cfg.Security.PrivateKey = ""

	warnings := cfg.Validate()
	certWarn, keyWarn := false, false
	for _, w := range warnings {
		if strings.Contains(w, "certificate") {
			certWarn = true
		}
		if strings.Contains(w, "private key") {
			keyWarn = true
		}
	}
	if !certWarn || !keyWarn {
		t.Errorf("expected certificate and private key warnings, got %v", warnings)
	}
}

func TestValidate_SampleRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want bool // true = should warn
	}{
		{"zero", 0, false},
		{"half", 0.5, false},
		{"full", 1.0, false},
		{"negative", -0.1, true},
		{"too_high", 2.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Tracing.SampleRate = tt.rate
			warnings := cfg.Validate()
			hasWarn := false
			for _, w := range warnings {
				if strings.Contains(w, "sample rate") {
					hasWarn = true
				}
			}
			if hasWarn != tt.want {
				t.Errorf("rate=%.1f: hasWarn=%v, want=%v", tt.rate, hasWarn, tt.want)
			}
		})
	}
}

func TestValidate_NamespaceRange(t *testing.T) {
	cfg := Default()
	cfg.Export.Namespaces = []int{0, 2, 70000}
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "70000") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected warning about ordinal 70000, got %v", warnings)
	}
}

func TestValidate_NegativeTimeout(t *testing.T) {
	cfg := Default()
	cfg.Server.Timeout = -time.Second
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "timeout") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected timeout warning, got %v", warnings)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Timeout != 10*time.Second {
		t.Errorf("default timeout = %s, want 10s", cfg.Server.Timeout)
	}
	if cfg.Security.Policy != "Basic256Sha256" {
		t.Errorf("default policy = %s", cfg.Security.Policy)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
