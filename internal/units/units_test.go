package units

import (
	"math"
	"testing"
)

func TestKmhToMpsRoundTrip(t *testing.T) {
	tests := []struct {
		kmh  float64
		want float64
	}{
		{0, 0},
		{36, 10},
		{50, 13.888888888888889},
		{108, 30},
	}
	for _, tt := range tests {
		got := KmhToMps(tt.kmh)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("KmhToMps(%v) = %v, want %v", tt.kmh, got, tt.want)
		}
		back := MpsToKmh(got)
		if math.Abs(back-tt.kmh) > 1e-9 {
			t.Errorf("MpsToKmh(KmhToMps(%v)) = %v, want %v", tt.kmh, back, tt.kmh)
		}
	}
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name  string
		mps   float64
		units string
		want  float64
	}{
		{"mps passthrough", 10, MPS, 10},
		{"kmph", 10, KMPH, 36},
		{"kph alias", 10, KPH, 36},
		{"mph", 10, MPH, 22.3694},
		{"unknown falls back to mps", 10, "furlongs", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertSpeed(tt.mps, tt.units)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("ConvertSpeed(%v, %q) = %v, want %v", tt.mps, tt.units, got, tt.want)
			}
		})
	}
}

func TestIsValidSpeedUnit(t *testing.T) {
	for _, u := range ValidSpeedUnits {
		if !IsValidSpeedUnit(u) {
			t.Errorf("IsValidSpeedUnit(%q) = false, want true", u)
		}
	}
	if IsValidSpeedUnit("knots") {
		t.Error("IsValidSpeedUnit(\"knots\") = true, want false")
	}
}
