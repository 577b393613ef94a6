package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Detection Detection `yaml:"detection"`
	Format    Format    `yaml:"format"`
	Rectify   Rectify   `yaml:"rectify"`
	Source    Source    `yaml:"source"`
	OCR       OCR       `yaml:"ocr"`
	Server    Server    `yaml:"server"`

	LogLevel string `yaml:"log_level"`
}

type Detection struct {
	Detector  string  `yaml:"detector"` // otsu | opencv
	BoxWidth  int     `yaml:"box_width"`
	BoxHeight int     `yaml:"box_height"`
	MinArea   float64 `yaml:"min_area"`
	Epsilon   float64 `yaml:"epsilon"`
}

type Format struct {
	Threshold   int `yaml:"threshold"`
	Margin      int `yaml:"margin"`
	JPEGQuality int `yaml:"jpeg_quality"`
}

type Rectify struct {
	MinQuadArea float64 `yaml:"min_quad_area"`
}

type Source struct {
	PDFDPI int `yaml:"pdf_dpi"`
}

type OCR struct {
	Engine    string   `yaml:"engine"` // gosseract | command | none
	Binary    string   `yaml:"binary"`
	Tessdata  string   `yaml:"tessdata"`
	Languages []string `yaml:"languages"`
	PSM       int      `yaml:"psm"`
	Rate      float64  `yaml:"rate"` // Recognitions per second, 0 for unlimited
	Burst     int      `yaml:"burst"`
}

type Server struct {
	Address        string        `yaml:"address"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns the configuration the pipeline was calibrated with
func Default() *Config {
	return &Config{
		Detection: Detection{
			Detector:  "otsu",
			BoxWidth:  800,
			BoxHeight: 600,
			MinArea:   1000,
			Epsilon:   0.015,
		},
		Format: Format{
			Threshold:   128,
			Margin:      10,
			JPEGQuality: 95,
		},
		Rectify: Rectify{
			MinQuadArea: 1,
		},
		Source: Source{
			PDFDPI: 200,
		},
		OCR: OCR{
			Engine:    "gosseract",
			Binary:    "tesseract",
			Languages: []string{"eng"},
			Burst:     1,
		},
		Server: Server{
			Address:        ":5000",
			MaxUploadBytes: 50 << 20,
			MaxConcurrent:  runtime.NumCPU(),
			CORSOrigins:    []string{"*"},
			RequestTimeout: 60 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. An empty path yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		data = []byte(os.ExpandEnv(string(data)))

		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ApplyEnv overrides fields from DOCSCAN_* environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("DOCSCAN_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("DOCSCAN_OCR_ENGINE"); v != "" {
		c.OCR.Engine = v
	}
	if v := os.Getenv("DOCSCAN_TESSERACT"); v != "" {
		c.OCR.Binary = v
	}
	if v := os.Getenv("DOCSCAN_TESSDATA"); v != "" {
		c.OCR.Tessdata = v
	}
	if v := os.Getenv("DOCSCAN_LANGUAGES"); v != "" {
		c.OCR.Languages = strings.Split(v, "+")
	}
	if v := os.Getenv("DOCSCAN_DETECTOR"); v != "" {
		c.Detection.Detector = v
	}
	if v := os.Getenv("DOCSCAN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DOCSCAN_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DOCSCAN_MAX_CONCURRENT: %w", err)
		}
		c.Server.MaxConcurrent = n
	}

	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Detection.BoxWidth <= 0 || c.Detection.BoxHeight <= 0 {
		errs = append(errs, errors.New("detection box must be positive"))
	}
	if c.Detection.Epsilon <= 0 || c.Detection.Epsilon >= 1 {
		errs = append(errs, fmt.Errorf("detection epsilon %v out of (0, 1)", c.Detection.Epsilon))
	}
	if c.Detection.MinArea < 0 {
		errs = append(errs, errors.New("detection min_area must not be negative"))
	}
	if c.Format.Threshold < 0 || c.Format.Threshold > 255 {
		errs = append(errs, fmt.Errorf("format threshold %d out of [0, 255]", c.Format.Threshold))
	}
	if c.Format.Margin < 0 {
		errs = append(errs, errors.New("format margin must not be negative"))
	}
	if c.Format.JPEGQuality < 1 || c.Format.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("format jpeg_quality %d out of [1, 100]", c.Format.JPEGQuality))
	}
	if c.Source.PDFDPI <= 0 {
		errs = append(errs, errors.New("source pdf_dpi must be positive"))
	}
	switch c.OCR.Engine {
	case "gosseract", "command", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown ocr engine %q", c.OCR.Engine))
	}
	if c.OCR.Rate < 0 {
		errs = append(errs, errors.New("ocr rate must not be negative"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server max_upload_bytes must be positive"))
	}
	if c.Server.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("server max_concurrent must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Limiter returns the OCR rate limiter, nil when unlimited
func (c *OCR) Limiter() *rate.Limiter {
	if c.Rate <= 0 {
		return nil
	}

	burst := c.Burst
	if burst < 1 {
		burst = 1
	}

	return rate.NewLimiter(rate.Limit(c.Rate), burst)
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
