package analyzer

import "fmt"

// Settings are the tunables shared by all detector variants
type Settings struct {
	MinArea float64 // Minimum contour area in detection-space px²
	Epsilon float64 // Polygon approximation tolerance as a fraction of the perimeter
}

// DefaultSettings returns the tuning the detectors were calibrated with
func DefaultSettings() Settings {
	return Settings{
		MinArea: 1000,
		Epsilon: 0.015,
	}
}

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string, s Settings) (Detector, error) {
	switch variant {
	case "otsu", "":
		return &BoundaryDetector{MinArea: s.MinArea, Epsilon: s.Epsilon}, nil
	case "opencv":
		return newOpenCVDetector(s)
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
