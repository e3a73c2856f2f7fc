// Package config loads the optional sharky profile file and merges it with command line
// flags into the immutable configuration of a run.
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sharky-compress/sharky/pkg/codec"
	"github.com/sharky-compress/sharky/pkg/log"
	"github.com/sharky-compress/sharky/pkg/types"
)

// DefaultFileName is the name of the profile file looked up in the home directory.
const DefaultFileName = ".sharky.yaml"

// Profile is the on-disk representation of user defaults. Unset fields keep the built-in
// defaults.
type Profile struct {
	// Algorithm of the configurable stage
	Algorithm string `yaml:"algorithm,omitempty"`
	// Level of the configurable stage
	Level *int `yaml:"level,omitempty"`
	// Progress enables or disables progress output
	Progress *bool `yaml:"progress,omitempty"`
	// ProgressFormat is a text/template for the progress line
	ProgressFormat string `yaml:"progressFormat,omitempty"`
	// ProgressInterval is the minimum time between progress renders, e.g. "500ms"
	ProgressInterval string `yaml:"progressInterval,omitempty"`
}

// DefaultPath returns the location of the profile in the current user's home directory, or
// an empty string if it cannot be determined.
func DefaultPath() string {
	usr, err := user.Current()
	if err != nil {
		log.Debug("Could not determine home directory:", err)
		return ""
	}
	return path.Join(usr.HomeDir, DefaultFileName)
}

// Load reads the profile at the given path. When optional is true a missing file yields an
// empty profile.
func Load(file string, optional bool) (*Profile, error) {
	profile := &Profile{}
	if file == "" {
		return profile, nil
	}
	data, err := ioutil.ReadFile(file)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return profile, nil
		}
		return nil, types.NewIOError("read config", file, err)
	}
	if err := yaml.UnmarshalStrict(data, profile); err != nil {
		return nil, &types.InvalidParameterError{Name: "config", Value: file, Reason: err.Error()}
	}
	log.Debugf("Loaded profile from %q", file)
	return profile, nil
}

// Overrides are the values given on the command line. A nil pointer means the flag was not
// set.
type Overrides struct {
	Algorithm        *string
	Level            *int
	Progress         *bool
	ProgressFormat   *string
	ProgressInterval *time.Duration
}

// Settings is the fully resolved configuration of a run.
type Settings struct {
	Pipeline         *types.PipelineConfig
	Progress         bool
	ProgressFormat   string
	ProgressInterval time.Duration
}

// Resolve merges flags over the profile over the built-in defaults and validates the
// result. Errors are InvalidParameterErrors and are returned before any input is opened.
func Resolve(profile *Profile, flags Overrides) (*Settings, error) {
	if profile == nil {
		profile = &Profile{}
	}

	algorithm := types.DefaultAlgorithm
	if profile.Algorithm != "" {
		algorithm = profile.Algorithm
	}
	// A profile level belongs to the profile algorithm; it is dropped when the flag
	// switches to another one.
	profileLevel := profile.Level
	if flags.Algorithm != nil {
		if !strings.EqualFold(*flags.Algorithm, algorithm) {
			profileLevel = nil
		}
		algorithm = *flags.Algorithm
	}
	c, err := codec.Lookup(algorithm)
	if err != nil {
		return nil, err
	}

	level := c.DefaultLevel()
	if profileLevel != nil {
		level = *profileLevel
	}
	if flags.Level != nil {
		level = *flags.Level
	}
	if err := codec.ValidateLevel(c, level); err != nil {
		return nil, err
	}

	settings := &Settings{
		Pipeline:       types.NewCanonicalPipelineConfig(c.Name(), level),
		Progress:       true,
		ProgressFormat: profile.ProgressFormat,
	}
	if profile.Progress != nil {
		settings.Progress = *profile.Progress
	}
	if flags.Progress != nil {
		settings.Progress = *flags.Progress
	}
	if flags.ProgressFormat != nil {
		settings.ProgressFormat = *flags.ProgressFormat
	}
	if profile.ProgressInterval != "" {
		d, err := time.ParseDuration(profile.ProgressInterval)
		if err != nil {
			return nil, &types.InvalidParameterError{Name: "progressInterval", Value: profile.ProgressInterval, Reason: err.Error()}
		}
		settings.ProgressInterval = d
	}
	if flags.ProgressInterval != nil {
		settings.ProgressInterval = *flags.ProgressInterval
	}
	if settings.ProgressInterval < 0 {
		return nil, &types.InvalidParameterError{
			Name:   "progress-interval",
			Value:  settings.ProgressInterval,
			Reason: "must not be negative",
		}
	}

	if _, err := codec.StagesFromConfig(settings.Pipeline); err != nil {
		return nil, err
	}
	return settings, nil
}

// String renders the settings for debug logs.
func (s *Settings) String() string {
	return fmt.Sprintf("pipeline=%s progress=%v interval=%s", s.Pipeline, s.Progress, s.ProgressInterval)
}
