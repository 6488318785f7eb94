// Package units provides shared constants and conversions for the units used
// across the simulation: road lengths in metres, speeds in km/h, time in
// seconds, positions in planar metres.
package units

// Unit constants
const (
	MPS  = "mps"
	KMPH = "kmph"
	KPH  = "kph"
	MPH  = "mph"
)

// ValidSpeedUnits contains all valid speed unit values
var ValidSpeedUnits = []string{MPS, KMPH, KPH, MPH}

// IsValidSpeedUnit checks if the given unit is in the list of valid units
func IsValidSpeedUnit(unit string) bool {
	for _, validUnit := range ValidSpeedUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// KmhToMps converts a speed in km/h to metres per second.
// Vehicle and speed-limit fields are stored in km/h; movement integration
// and travel-time maths happen in m/s.
func KmhToMps(kmh float64) float64 {
	return kmh / 3.6
}

// MpsToKmh converts a speed in metres per second to km/h.
func MpsToKmh(mps float64) float64 {
	return mps * 3.6
}

// ConvertSpeed converts a speed from metres per second to the target units.
// Unknown units fall back to m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.23694 // m/s to mph
	case KMPH, KPH:
		return MpsToKmh(speedMPS)
	case MPS:
		return speedMPS
	default:
		return speedMPS
	}
}
