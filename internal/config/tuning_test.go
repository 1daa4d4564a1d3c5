package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.LowPassOrder == nil || *cfg.LowPassOrder != 2 {
		t.Errorf("Expected LowPassOrder 2, got %v", cfg.LowPassOrder)
	}
	if cfg.KalmanModel == nil || *cfg.KalmanModel != KalmanModelConstantPosition {
		t.Errorf("Expected KalmanModel %q, got %v", KalmanModelConstantPosition, cfg.KalmanModel)
	}
	if cfg.GetFloorThreshold() != -180 {
		t.Errorf("GetFloorThreshold() = %f, want -180", cfg.GetFloorThreshold())
	}
	if cfg.GetExtrapolationFactor() != 2 {
		t.Errorf("GetExtrapolationFactor() = %f, want 2", cfg.GetExtrapolationFactor())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDefaultsFileMatchesCompiledDefaults(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	if diff := cmp.Diff(DefaultTuningConfig(), fromFile); diff != "" {
		t.Errorf("%s drifted from compiled defaults (-compiled +file):\n%s", DefaultConfigPath, diff)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "lowpass_order": 4,
  "kalman_model": "constant_velocity",
  "lock_legs": true,
  "root_sensitivity": [0.02, 0.01, 0.005]
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0o644))

	cfg, err := LoadTuningConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.GetLowPassOrder())
	assert.Equal(t, KalmanModelConstantVelocity, cfg.GetKalmanModel())
	assert.True(t, cfg.GetLockLegs())
	assert.Equal(t, [3]float64{0.02, 0.01, 0.005}, cfg.GetRootSensitivity())

	// Omitted fields fall back to defaults.
	assert.Equal(t, 0.3, cfg.GetLowPassSmooth())
	assert.Equal(t, 0.2, cfg.GetLockBlendRate())
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "cfg.yaml", `{}`, ".json extension"},
		{"bad json", "bad.json", `{"lowpass_order":`, "failed to parse"},
		{"unknown key", "unknown.json", `{"lowpass_ordr": 3}`, "failed to parse"},
		{"order out of range", "order.json", `{"lowpass_order": 11}`, "lowpass_order"},
		{"smooth out of range", "smooth.json", `{"lowpass_smooth": 1.5}`, "lowpass_smooth"},
		{"blend rate snaps", "blend.json", `{"lock_blend_rate": 1}`, "lock_blend_rate"},
		{"bad model", "model.json", `{"kalman_model": "jerk"}`, "kalman_model"},
		{"inverted arm blend", "arm.json", `{"arm_blend_start_deg": 95}`, "arm_blend_full_deg"},
		{"negative extrapolation", "ext.json", `{"extrapolation_factor": -1}`, "extrapolation_factor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadTuningConfig(path)
			require.Error(t, err)
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTuningConfig(filepath.Join(tmpDir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(tmpDir, "big.json")
		big := make([]byte, 1024*1024+1)
		require.NoError(t, os.WriteFile(path, big, 0o644))
		_, err := LoadTuningConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestMerge(t *testing.T) {
	base := DefaultTuningConfig()
	overlay, err := ParseTuningConfig([]byte(`{"lock_hand": true, "lowpass_smooth": 0.5}`))
	require.NoError(t, err)

	require.NoError(t, base.Merge(overlay))
	assert.True(t, base.GetLockHand())
	assert.Equal(t, 0.5, base.GetLowPassSmooth())
	assert.Equal(t, 2, base.GetLowPassOrder())

	bad := &TuningConfig{LowPassOrder: ptrInt(0)}
	assert.Error(t, base.Merge(bad))
	assert.Equal(t, 2, base.GetLowPassOrder(), "failed merge must leave config untouched")

	assert.NoError(t, base.Merge(nil))
}
