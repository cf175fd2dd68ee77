// Package dataset supplies the read-only school dataset, either from the
// embedded seed file or from an operator-provided JSON/YAML file.
package dataset

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/school-finder/internal/schemas"
	"github.com/jonathan/school-finder/internal/types"
)

//go:embed schools.json
var seedData []byte

// DefaultLatency is the simulated fetch delay applied before a load completes.
const DefaultLatency = 500 * time.Millisecond

// Loader is anything that can produce the school dataset.
type Loader interface {
	Load(ctx context.Context) ([]types.School, error)
}

// Options configures a Provider.
type Options struct {
	// Path points at a .json, .yaml or .yml dataset file. Empty uses the embedded seed.
	Path string
	// Latency is the simulated fetch delay. Zero disables it.
	Latency time.Duration
}

// DefaultOptions returns the embedded seed with the default simulated latency.
func DefaultOptions() Options {
	return Options{Latency: DefaultLatency}
}

// Provider loads and validates the dataset. Concurrent loads share one read.
type Provider struct {
	opts   Options
	group  singleflight.Group
	logger *zap.Logger
}

// NewProvider creates a new Provider.
func NewProvider(opts Options, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{opts: opts, logger: logger}
}

// Load returns the dataset after the simulated latency. The returned slice is
// owned by the caller.
func (p *Provider) Load(ctx context.Context) ([]types.School, error) {
	ch := p.group.DoChan("dataset", func() (any, error) {
		if p.opts.Latency > 0 {
			time.Sleep(p.opts.Latency)
		}
		return p.read()
	})

	select {
	case <-ctx.Done():
		return nil, &Error{Message: "dataset load cancelled", Cause: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		schools := res.Val.([]types.School)
		return slices.Clone(schools), nil
	}
}

func (p *Provider) read() ([]types.School, error) {
	source := "embedded"
	data := seedData
	if p.opts.Path != "" {
		source = p.opts.Path
		raw, err := os.ReadFile(p.opts.Path)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("failed to read dataset file %s", p.opts.Path), Cause: err}
		}
		data = raw
	}

	schools, err := Parse(data, formatOf(p.opts.Path))
	if err != nil {
		return nil, err
	}

	p.logger.Info("dataset loaded",
		zap.String("source", source),
		zap.Int("schools", len(schools)))
	return schools, nil
}

// Format is the encoding of a dataset file.
type Format string

// Supported dataset formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and validates a dataset. JSON input is additionally checked
// against the embedded dataset schema.
func Parse(data []byte, format Format) ([]types.School, error) {
	var schools []types.School

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &schools); err != nil {
			return nil, &Error{Message: "failed to parse dataset YAML", Cause: err}
		}
	default:
		if err := schemas.Validate(schemas.SchoolDataset, data); err != nil {
			return nil, &Error{Message: "dataset does not match schema", Cause: err}
		}
		if err := json.Unmarshal(data, &schools); err != nil {
			return nil, &Error{Message: "failed to parse dataset JSON", Cause: err}
		}
	}

	if len(schools) == 0 {
		return nil, &Error{Message: "dataset is empty"}
	}
	if err := types.ValidateSchools(schools); err != nil {
		return nil, &Error{Message: "invalid dataset", Cause: err}
	}
	return schools, nil
}

// Seed returns the embedded dataset without any simulated latency.
func Seed() ([]types.School, error) {
	return Parse(seedData, FormatJSON)
}
