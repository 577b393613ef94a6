package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
)

// CommandEngine runs an external tesseract executable. The image goes in on
// stdin as PNG and the text comes back on stdout.
type CommandEngine struct {
	BinaryPath string   // Executable name or path
	Languages  []string // Passed as -l lang1+lang2
	PSM        int      // Page segmentation mode, 0 keeps the binary's default
	Tessdata   string   // --tessdata-dir, empty for the default
}

func NewCommandEngine(binary string) *CommandEngine {
	return &CommandEngine{BinaryPath: binary}
}

func (e *CommandEngine) Name() string { return "command" }

func (e *CommandEngine) args() []string {
	args := []string{"stdin", "stdout"}

	if e.Tessdata != "" {
		args = append(args, "--tessdata-dir", e.Tessdata)
	}
	if len(e.Languages) > 0 {
		args = append(args, "-l", strings.Join(e.Languages, "+"))
	}
	if e.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.PSM))
	}

	return args
}

func (e *CommandEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	path, err := exec.LookPath(e.BinaryPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var in bytes.Buffer
	if err := png.Encode(&in, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, e.args()...)
	cmd.Stdin = &in
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s exited with %d: %s", e.BinaryPath, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", err
	}

	return out.String(), nil
}
