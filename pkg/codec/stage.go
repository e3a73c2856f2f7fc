package codec

import (
	"fmt"
	"io"

	"github.com/sharky-compress/sharky/pkg/types"
)

// StageKind tags the variant of a Stage.
type StageKind int

const (
	// KindNoOp is a stage that passes bytes through.
	KindNoOp StageKind = iota
	// KindFixed is the first stage of every pipeline: deflate at a fixed level.
	KindFixed
	// KindConfigurable is a stage whose algorithm and level come from the user.
	KindConfigurable
)

func (k StageKind) String() string {
	switch k {
	case KindNoOp:
		return "noop"
	case KindFixed:
		return "fixed"
	case KindConfigurable:
		return "configurable"
	}
	return "unknown"
}

// Stage is one codec with its level, as placed in a pipeline. The zero value is not
// usable; build stages with NoOp, Fixed or Configurable.
type Stage struct {
	Kind  StageKind
	Codec types.Codec
	Level int
}

// NoOp returns a pass-through stage.
func NoOp() Stage {
	return Stage{Kind: KindNoOp, Codec: &noopCodec{}}
}

// Fixed returns the fixed first stage.
func Fixed() Stage {
	return Stage{Kind: KindFixed, Codec: &deflateCodec{}, Level: types.FixedLevel}
}

// Configurable returns a stage for the named algorithm, validating the level against
// the algorithm's accepted range.
func Configurable(algorithm string, level int) (Stage, error) {
	c, err := Lookup(algorithm)
	if err != nil {
		return Stage{}, err
	}
	if err := ValidateLevel(c, level); err != nil {
		return Stage{}, err
	}
	return Stage{Kind: KindConfigurable, Codec: c, Level: level}, nil
}

// StagesFromConfig converts a PipelineConfig into stages, in compression order. Every
// level is validated before anything is returned.
func StagesFromConfig(cfg *types.PipelineConfig) ([]Stage, error) {
	if cfg == nil || cfg.Len() == 0 {
		return nil, &types.InvalidParameterError{Name: "pipeline", Reason: "no codec stages configured"}
	}
	stages := make([]Stage, 0, cfg.Len())
	for i, sc := range cfg.Stages() {
		switch {
		case i == 0 && sc.Algorithm == types.FixedAlgorithm && sc.Level == types.FixedLevel:
			stages = append(stages, Fixed())
		default:
			stage, err := Configurable(sc.Algorithm, sc.Level)
			if err != nil {
				return nil, err
			}
			if stage.Codec.Name() == "none" {
				stage = NoOp()
			}
			stages = append(stages, stage)
		}
	}
	return stages, nil
}

// NewEncoder returns the compressing half of the stage writing into dst.
func (s Stage) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	return s.Codec.NewEncoder(dst, s.Level)
}

// NewDecoder returns the decompressing half of the stage reading from src.
func (s Stage) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return s.Codec.NewDecoder(src)
}

func (s Stage) String() string {
	if s.Codec == nil {
		return "<invalid>"
	}
	return fmt.Sprintf("%s(%d)", s.Codec.Name(), s.Level)
}
