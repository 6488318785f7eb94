// Package config loads and validates the simulation tuning parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TuningConfig represents the root configuration for tuning parameters.
// All fields are optional pointers so partial configs are safe: fields
// omitted from the JSON file retain their defaults via the Get* accessors.
type TuningConfig struct {
	// Clock params
	TickSeconds  *float64 `json:"tick_seconds,omitempty"`  // simulated seconds per tick
	BaseTickMs   *int     `json:"base_tick_ms,omitempty"`  // wall-clock cadence at 1x speed
	SpawnPerSec  *float64 `json:"spawn_per_sec,omitempty"` // automatic spawn rate (vehicles/s)
	EventLogSize *int     `json:"event_log_size,omitempty"`

	// Signal params
	MinGreenSeconds    *float64 `json:"min_green_seconds,omitempty"`
	MaxGreenSeconds    *float64 `json:"max_green_seconds,omitempty"`
	YellowSeconds      *float64 `json:"yellow_seconds,omitempty"`
	SaturationFlowRate *float64 `json:"saturation_flow_rate,omitempty"` // vehicles/s a green can discharge
	GreenBufferSeconds *float64 `json:"green_buffer_seconds,omitempty"`
	GreenLeadSeconds   *float64 `json:"green_lead_seconds,omitempty"`

	// Predictor params
	LearningRate     *float64 `json:"learning_rate,omitempty"`
	ExplorationNoise *float64 `json:"exploration_noise,omitempty"`
	PressureBonus    *float64 `json:"pressure_bonus,omitempty"`

	// Coordination params
	CoordinationSpeedKmh      *float64 `json:"coordination_speed_kmh,omitempty"`
	GreenWaveToleranceSeconds *float64 `json:"green_wave_tolerance_seconds,omitempty"`
	GreenWaveExtensionSeconds *float64 `json:"green_wave_extension_seconds,omitempty"`
	CorridorPressureThreshold *float64 `json:"corridor_pressure_threshold,omitempty"`
	CorridorMinGreenSeconds   *float64 `json:"corridor_min_green_seconds,omitempty"`

	// Routing params
	CongestionPenaltySeconds *float64 `json:"congestion_penalty_seconds,omitempty"` // weight added at flow == capacity
	RerouteIntervalTicks     *int     `json:"reroute_interval_ticks,omitempty"`
	MaxRouteAttempts         *int     `json:"max_route_attempts,omitempty"`

	// Metrics params
	MaxQueueAssumed     *float64 `json:"max_queue_assumed,omitempty"`
	MaxWaitAssumed      *float64 `json:"max_wait_assumed,omitempty"`
	ThroughputDecay     *float64 `json:"throughput_decay,omitempty"`
	MediumWaitSeconds   *float64 `json:"medium_wait_seconds,omitempty"`
	HighWaitSeconds     *float64 `json:"high_wait_seconds,omitempty"`
	CriticalWaitSeconds *float64 `json:"critical_wait_seconds,omitempty"`
}

// Default returns a TuningConfig with all fields unset so every accessor
// reports its documented default.
func Default() *TuningConfig {
	return &TuningConfig{}
}

// Load reads a TuningConfig from a JSON file. The file is validated to
// ensure it has a .json extension and is under the max file size.
func Load(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.TickSeconds != nil && *c.TickSeconds <= 0 {
		return fmt.Errorf("tick_seconds must be positive, got %f", *c.TickSeconds)
	}
	if c.BaseTickMs != nil && *c.BaseTickMs <= 0 {
		return fmt.Errorf("base_tick_ms must be positive, got %d", *c.BaseTickMs)
	}
	if c.MinGreenSeconds != nil && *c.MinGreenSeconds < 0 {
		return fmt.Errorf("min_green_seconds must be non-negative, got %f", *c.MinGreenSeconds)
	}
	if c.MinGreenSeconds != nil && c.MaxGreenSeconds != nil && *c.MaxGreenSeconds < *c.MinGreenSeconds {
		return fmt.Errorf("max_green_seconds %f must be >= min_green_seconds %f",
			*c.MaxGreenSeconds, *c.MinGreenSeconds)
	}
	if c.SaturationFlowRate != nil && *c.SaturationFlowRate <= 0 {
		return fmt.Errorf("saturation_flow_rate must be positive, got %f", *c.SaturationFlowRate)
	}
	if c.LearningRate != nil && (*c.LearningRate < 0 || *c.LearningRate > 1) {
		return fmt.Errorf("learning_rate must be between 0 and 1, got %f", *c.LearningRate)
	}
	if c.ThroughputDecay != nil && (*c.ThroughputDecay <= 0 || *c.ThroughputDecay >= 1) {
		return fmt.Errorf("throughput_decay must be in (0,1), got %f", *c.ThroughputDecay)
	}
	if c.EventLogSize != nil && *c.EventLogSize < 0 {
		return fmt.Errorf("event_log_size must be non-negative, got %d", *c.EventLogSize)
	}
	return nil
}

// GetTickSeconds returns the simulated seconds per tick or the default.
func (c *TuningConfig) GetTickSeconds() float64 {
	if c.TickSeconds == nil {
		return 0.1
	}
	return *c.TickSeconds
}

// GetBaseTickMs returns the wall-clock tick cadence in milliseconds at 1x speed.
func (c *TuningConfig) GetBaseTickMs() int {
	if c.BaseTickMs == nil {
		return 100
	}
	return *c.BaseTickMs
}

// GetSpawnPerSec returns the automatic spawn rate (vehicles/second) or the default.
func (c *TuningConfig) GetSpawnPerSec() float64 {
	if c.SpawnPerSec == nil {
		return 0.5
	}
	return *c.SpawnPerSec
}

// GetEventLogSize returns the event log capacity or the default.
func (c *TuningConfig) GetEventLogSize() int {
	if c.EventLogSize == nil {
		return 200
	}
	return *c.EventLogSize
}

// GetMinGreenSeconds returns the anti-flicker minimum green time or the default.
func (c *TuningConfig) GetMinGreenSeconds() float64 {
	if c.MinGreenSeconds == nil {
		return 10
	}
	return *c.MinGreenSeconds
}

// GetMaxGreenSeconds returns the anti-starvation maximum green time or the default.
func (c *TuningConfig) GetMaxGreenSeconds() float64 {
	if c.MaxGreenSeconds == nil {
		return 60
	}
	return *c.MaxGreenSeconds
}

// GetYellowSeconds returns the clearance interval length or the default.
func (c *TuningConfig) GetYellowSeconds() float64 {
	if c.YellowSeconds == nil {
		return 3
	}
	return *c.YellowSeconds
}

// GetSaturationFlowRate returns the assumed green discharge rate or the default.
func (c *TuningConfig) GetSaturationFlowRate() float64 {
	if c.SaturationFlowRate == nil {
		return 0.5
	}
	return *c.SaturationFlowRate
}

// GetGreenBufferSeconds returns the fixed green-time buffer or the default.
func (c *TuningConfig) GetGreenBufferSeconds() float64 {
	if c.GreenBufferSeconds == nil {
		return 2
	}
	return *c.GreenBufferSeconds
}

// GetGreenLeadSeconds returns the lead time subtracted from the earliest
// platoon ETA when scheduling a green, or the default.
func (c *TuningConfig) GetGreenLeadSeconds() float64 {
	if c.GreenLeadSeconds == nil {
		return 2
	}
	return *c.GreenLeadSeconds
}

// GetLearningRate returns the score blend rate or the default.
func (c *TuningConfig) GetLearningRate() float64 {
	if c.LearningRate == nil {
		return 0.1
	}
	return *c.LearningRate
}

// GetExplorationNoise returns the bounded exploration noise amplitude or the default.
func (c *TuningConfig) GetExplorationNoise() float64 {
	if c.ExplorationNoise == nil {
		return 0.1
	}
	return *c.ExplorationNoise
}

// GetPressureBonus returns the pressure-proportional score bonus factor or the default.
func (c *TuningConfig) GetPressureBonus() float64 {
	if c.PressureBonus == nil {
		return 0.5
	}
	return *c.PressureBonus
}

// GetCoordinationSpeedKmh returns the assumed progression speed for
// green-wave offset computation, or the default.
func (c *TuningConfig) GetCoordinationSpeedKmh() float64 {
	if c.CoordinationSpeedKmh == nil {
		return 50
	}
	return *c.CoordinationSpeedKmh
}

// GetGreenWaveToleranceSeconds returns the tolerance band for offset matching.
func (c *TuningConfig) GetGreenWaveToleranceSeconds() float64 {
	if c.GreenWaveToleranceSeconds == nil {
		return 2
	}
	return *c.GreenWaveToleranceSeconds
}

// GetGreenWaveExtensionSeconds returns the duration extension applied to an
// upstream intersection when a green wave lines up.
func (c *TuningConfig) GetGreenWaveExtensionSeconds() float64 {
	if c.GreenWaveExtensionSeconds == nil {
		return 2
	}
	return *c.GreenWaveExtensionSeconds
}

// GetCorridorPressureThreshold returns the axis pressure above which the
// coordinator forces that axis, or the default.
func (c *TuningConfig) GetCorridorPressureThreshold() float64 {
	if c.CorridorPressureThreshold == nil {
		return 5
	}
	return *c.CorridorPressureThreshold
}

// GetCorridorMinGreenSeconds returns the duration floor applied to a
// corridor-forced recommendation.
func (c *TuningConfig) GetCorridorMinGreenSeconds() float64 {
	if c.CorridorMinGreenSeconds == nil {
		return 15
	}
	return *c.CorridorMinGreenSeconds
}

// GetCongestionPenaltySeconds returns the route weight penalty added when a
// road is at capacity, or the default.
func (c *TuningConfig) GetCongestionPenaltySeconds() float64 {
	if c.CongestionPenaltySeconds == nil {
		return 30
	}
	return *c.CongestionPenaltySeconds
}

// GetRerouteIntervalTicks returns how often a stalled vehicle retries
// planning, or the default.
func (c *TuningConfig) GetRerouteIntervalTicks() int {
	if c.RerouteIntervalTicks == nil {
		return 50
	}
	return *c.RerouteIntervalTicks
}

// GetMaxRouteAttempts returns how many consecutive failed replans remove a
// stalled vehicle, or the default.
func (c *TuningConfig) GetMaxRouteAttempts() int {
	if c.MaxRouteAttempts == nil {
		return 5
	}
	return *c.MaxRouteAttempts
}

// GetMaxQueueAssumed returns the queue length treated as a full efficiency
// penalty, or the default.
func (c *TuningConfig) GetMaxQueueAssumed() float64 {
	if c.MaxQueueAssumed == nil {
		return 20
	}
	return *c.MaxQueueAssumed
}

// GetMaxWaitAssumed returns the average wait treated as a full efficiency
// penalty, or the default.
func (c *TuningConfig) GetMaxWaitAssumed() float64 {
	if c.MaxWaitAssumed == nil {
		return 120
	}
	return *c.MaxWaitAssumed
}

// GetThroughputDecay returns the per-tick geometric throughput decay factor.
func (c *TuningConfig) GetThroughputDecay() float64 {
	if c.ThroughputDecay == nil {
		return 0.95
	}
	return *c.ThroughputDecay
}

// GetMediumWaitSeconds returns the mean wait above which congestion is medium.
func (c *TuningConfig) GetMediumWaitSeconds() float64 {
	if c.MediumWaitSeconds == nil {
		return 30
	}
	return *c.MediumWaitSeconds
}

// GetHighWaitSeconds returns the mean wait above which congestion is high.
func (c *TuningConfig) GetHighWaitSeconds() float64 {
	if c.HighWaitSeconds == nil {
		return 60
	}
	return *c.HighWaitSeconds
}

// GetCriticalWaitSeconds returns the mean wait above which congestion is critical.
func (c *TuningConfig) GetCriticalWaitSeconds() float64 {
	if c.CriticalWaitSeconds == nil {
		return 120
	}
	return *c.CriticalWaitSeconds
}
