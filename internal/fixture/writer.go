package fixture

import (
	"os"

	"github.com/ivlev/docscan/internal/geom"

	"gopkg.in/yaml.v3"
)

// GroundTruth is the sidecar written next to a generated photo
type GroundTruth struct {
	Image   string        `yaml:"image"`
	Width   int           `yaml:"width"`
	Height  int           `yaml:"height"`
	Corners [4][2]float64 `yaml:"corners"` // TL, TR, BR, BL
}

func NewGroundTruth(name string, p *Photo) *GroundTruth {
	gt := &GroundTruth{
		Image:  name,
		Width:  p.Image.Bounds().Dx(),
		Height: p.Image.Bounds().Dy(),
	}
	for i, c := range p.Corners {
		gt.Corners[i] = [2]float64{c.X, c.Y}
	}
	return gt
}

// Quad returns the corners as a geometry quad
func (g *GroundTruth) Quad() geom.Quad {
	var q geom.Quad
	for i, c := range g.Corners {
		q[i] = geom.Pt(c[0], c[1])
	}
	return q
}

// WriteGroundTruth writes a ground truth sidecar to a YAML file
func WriteGroundTruth(gt *GroundTruth, path string) error {
	data, err := yaml.Marshal(gt)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadGroundTruth reads a ground truth sidecar from a YAML file
func ReadGroundTruth(path string) (*GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var gt GroundTruth
	if err := yaml.Unmarshal(data, &gt); err != nil {
		return nil, err
	}

	return &gt, nil
}
