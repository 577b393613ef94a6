//go:build !gocv

package analyzer

import "fmt"

func newOpenCVDetector(Settings) (Detector, error) {
	return nil, fmt.Errorf("opencv detector not compiled in, rebuild with -tags gocv")
}
