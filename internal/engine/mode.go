package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidMode = errors.New("invalid output mode")

// Mode selects the output of a pipeline run
type Mode string

const (
	ModeScan Mode = "scan"
	ModeText Mode = "text"
)

// ParseMode accepts "scan" and "text". "ocr" is accepted as another name for
// text, matching the HTTP route.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scan":
		return ModeScan, nil
	case "text", "ocr":
		return ModeText, nil
	default:
		return "", fmt.Errorf("%w: %q (want scan or text)", ErrInvalidMode, s)
	}
}

func (m Mode) Valid() bool {
	return m == ModeScan || m == ModeText
}

func (m Mode) String() string {
	return string(m)
}
