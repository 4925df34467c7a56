package internal

import (
	"testing"

	"github.com/holotome/htconv/internal/modality"
)

func TestNewDefaultConfig_IsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfig_WorkersMinimum(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Convert.Workers = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero workers")
	}
}

func TestConfig_OffsetBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Convert.DefaultUTCOffsetMin = 15 * 60

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for offset beyond +14h")
	}
}

func TestConfig_BadRuleRejected(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Convert.Rules = []modality.RuleConfig{{Pattern: "([", Kind: "ht-3d"}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for uncompilable rule")
	}
}

func TestConfig_PortBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}
