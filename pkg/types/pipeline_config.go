package types

import (
	"fmt"
	"strings"
)

const (
	// FixedAlgorithm is the algorithm of the first codec stage. It is not configurable.
	FixedAlgorithm = "deflate"
	// FixedLevel is the level of the first codec stage.
	FixedLevel = 9
	// DefaultAlgorithm is the default algorithm of the second codec stage.
	DefaultAlgorithm = "zstd"
	// DefaultLevel is the default level of the second stage when it is zstd.
	DefaultLevel = 7
)

// StageConfig is the configuration of a single codec stage.
type StageConfig struct {
	// The algorithm identifier as registered with the codec package
	Algorithm string `yaml:"algorithm"`
	// The algorithm specific level
	Level int `yaml:"level"`
}

func (s StageConfig) String() string { return fmt.Sprintf("%s(%d)", s.Algorithm, s.Level) }

// PipelineConfig holds the ordered codec stages of a run in compression order. It is
// immutable once constructed: the stages are copied in and copied out.
type PipelineConfig struct {
	stages []StageConfig
}

// NewPipelineConfig returns a PipelineConfig for the given stages in compression order.
func NewPipelineConfig(stages ...StageConfig) *PipelineConfig {
	cp := make([]StageConfig, len(stages))
	copy(cp, stages)
	return &PipelineConfig{stages: cp}
}

// NewCanonicalPipelineConfig returns the canonical two stage configuration: the fixed
// deflate stage followed by the given configurable stage.
func NewCanonicalPipelineConfig(algorithm string, level int) *PipelineConfig {
	return NewPipelineConfig(
		StageConfig{Algorithm: FixedAlgorithm, Level: FixedLevel},
		StageConfig{Algorithm: algorithm, Level: level},
	)
}

// Stages returns a copy of the stages in compression order.
func (p *PipelineConfig) Stages() []StageConfig {
	cp := make([]StageConfig, len(p.stages))
	copy(cp, p.stages)
	return cp
}

// Len returns the number of stages.
func (p *PipelineConfig) Len() int { return len(p.stages) }

func (p *PipelineConfig) String() string {
	parts := []string{"tar"}
	for _, s := range p.stages {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, " -> ")
}
