package config

import (
	"os"
	"path/filepath"
	"testing"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

func TestDefaultAccessors(t *testing.T) {
	cfg := Default()

	if got := cfg.GetTickSeconds(); got != 0.1 {
		t.Errorf("GetTickSeconds() = %v, want 0.1", got)
	}
	if got := cfg.GetBaseTickMs(); got != 100 {
		t.Errorf("GetBaseTickMs() = %v, want 100", got)
	}
	if got := cfg.GetMinGreenSeconds(); got != 10 {
		t.Errorf("GetMinGreenSeconds() = %v, want 10", got)
	}
	if got := cfg.GetMaxGreenSeconds(); got != 60 {
		t.Errorf("GetMaxGreenSeconds() = %v, want 60", got)
	}
	if got := cfg.GetYellowSeconds(); got != 3 {
		t.Errorf("GetYellowSeconds() = %v, want 3", got)
	}
	if got := cfg.GetThroughputDecay(); got != 0.95 {
		t.Errorf("GetThroughputDecay() = %v, want 0.95", got)
	}
	if got := cfg.GetEventLogSize(); got != 200 {
		t.Errorf("GetEventLogSize() = %v, want 200", got)
	}
}

func TestAccessorsReturnSetValues(t *testing.T) {
	cfg := &TuningConfig{
		MinGreenSeconds: ptrFloat64(5),
		MaxGreenSeconds: ptrFloat64(45),
		EventLogSize:    ptrInt(32),
	}
	if got := cfg.GetMinGreenSeconds(); got != 5 {
		t.Errorf("GetMinGreenSeconds() = %v, want 5", got)
	}
	if got := cfg.GetMaxGreenSeconds(); got != 45 {
		t.Errorf("GetMaxGreenSeconds() = %v, want 45", got)
	}
	if got := cfg.GetEventLogSize(); got != 32 {
		t.Errorf("GetEventLogSize() = %v, want 32", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{"empty config is valid", Default(), false},
		{"negative tick", &TuningConfig{TickSeconds: ptrFloat64(-1)}, true},
		{"zero base tick", &TuningConfig{BaseTickMs: ptrInt(0)}, true},
		{"max green below min green", &TuningConfig{
			MinGreenSeconds: ptrFloat64(20),
			MaxGreenSeconds: ptrFloat64(10),
		}, true},
		{"learning rate out of range", &TuningConfig{LearningRate: ptrFloat64(1.5)}, true},
		{"decay of one", &TuningConfig{ThroughputDecay: ptrFloat64(1)}, true},
		{"valid overrides", &TuningConfig{
			MinGreenSeconds: ptrFloat64(5),
			MaxGreenSeconds: ptrFloat64(30),
			LearningRate:    ptrFloat64(0.2),
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "tuning.json")
	body := `{"min_green_seconds": 7, "exploration_noise": 0.25}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.GetMinGreenSeconds(); got != 7 {
		t.Errorf("GetMinGreenSeconds() = %v, want 7", got)
	}
	if got := cfg.GetExplorationNoise(); got != 0.25 {
		t.Errorf("GetExplorationNoise() = %v, want 0.25", got)
	}
	// Omitted fields keep defaults
	if got := cfg.GetMaxGreenSeconds(); got != 60 {
		t.Errorf("GetMaxGreenSeconds() = %v, want default 60", got)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "tuning.yaml")); err == nil {
		t.Error("Load() accepted non-json extension")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Load() accepted missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"tick_seconds": -1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load() accepted invalid config")
	}
}
