package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sharky-compress/sharky/pkg/codec"
	"github.com/sharky-compress/sharky/pkg/config"
	"github.com/sharky-compress/sharky/pkg/log"
	"github.com/sharky-compress/sharky/pkg/pipeline"
	"github.com/sharky-compress/sharky/pkg/progress"
	"github.com/sharky-compress/sharky/pkg/types"
)

var (
	compressMode     bool
	decompressMode   bool
	inputPath        string
	outputPath       string
	level            int
	algorithm        string
	configFile       string
	noProgress       bool
	forceProgress    bool
	progressFormat   string
	progressInterval time.Duration
	checksum         bool
)

func init() {
	flags := rootCmd.Flags()
	flags.SetNormalizeFunc(normalizeFlags)
	flags.BoolVarP(&compressMode, "compress", "c", false, "Compress the input file or directory into the output file")
	flags.BoolVarP(&decompressMode, "decompress", "d", false, "Decompress the input file into the output directory")
	flags.StringVarP(&inputPath, "input", "i", "", "The file or directory to compress, or the file to decompress")
	flags.StringVarP(&outputPath, "output", "o", "", "The file to write when compressing, or the directory to extract into")
	flags.IntVarP(&level, "level", "l", types.DefaultLevel, "The level of the configurable stage (zstd: 0-22, xz: 0-9, lz4: 0-9), defaults to the algorithm's default")
	flags.StringVarP(&algorithm, "algorithm", "a", types.DefaultAlgorithm, "The algorithm of the configurable stage; decompression must use the same one")
	flags.BoolVar(&noProgress, "no-progress", false, "Disable progress output")
	flags.BoolVar(&forceProgress, "force-progress", false, "Draw progress even when stderr is not a terminal")
	flags.StringVar(&progressFormat, "progress-format", "", "A text/template (with sprig functions) for the progress line")
	flags.DurationVar(&progressInterval, "progress-interval", progress.DefaultInterval, "The minimum time between two progress updates")
	flags.BoolVar(&checksum, "checksum", false, "Log the sha256 digest of the compressed file")

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "A profile file with default settings, defaults to ~/"+config.DefaultFileName)
	rootCmd.PersistentFlags().BoolVarP(&log.Verbose, "verbose", "v", false, "Enable verbose logging")

	if err := rootCmd.RegisterFlagCompletionFunc("algorithm", completeStringOpts(codec.Names())); err != nil {
		log.Fatal(err)
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &types.InvalidParameterError{Name: "arguments", Reason: err.Error()}
	})
}

var rootCmd = &cobra.Command{
	Use:   "sharky (-c|-d) -i INPUT -o OUTPUT",
	Short: "sharky compresses files and directories with tar + deflate + zstd",
	Long: `
The sharky command archives a file or directory tree and streams it through two
compression stages: deflate at level 9, then a configurable algorithm (zstd by default).
Decompression applies the same stages in reverse and extracts the tree, overwriting
existing files in the output directory.
`,
	Example: `  sharky -c -i ./project -o project.shk -l 19
  sharky -d -i project.shk -o ./restore`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	SilenceErrors:     true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.NoColor = !progress.IsTerminal(os.Stderr)
	},
	RunE: run,
}

// GetRootCommand returns the root sharky command
func GetRootCommand() *cobra.Command { return rootCmd }

// normalizeFlags keeps the flag name of earlier releases working.
func normalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "zstd-level" {
		name = "level"
	}
	return pflag.NormalizedName(name)
}

func run(cmd *cobra.Command, args []string) error {
	if err := validateMode(); err != nil {
		return err
	}

	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	log.Debug("Resolved settings:", settings)

	renderer, err := progress.NewRenderer(os.Stderr, settings.Progress, forceProgress, settings.ProgressFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts := &pipeline.Options{
		Config:           settings.Pipeline,
		Input:            inputPath,
		Output:           outputPath,
		Renderer:         renderer,
		ProgressInterval: settings.ProgressInterval,
	}
	if compressMode {
		return runCompress(ctx, opts)
	}
	return runDecompress(ctx, opts)
}

func validateMode() error {
	switch {
	case compressMode && decompressMode:
		return &types.InvalidParameterError{Name: "mode", Reason: "--compress and --decompress are mutually exclusive"}
	case !compressMode && !decompressMode:
		return &types.InvalidParameterError{Name: "mode", Reason: "one of --compress or --decompress is required"}
	case inputPath == "":
		return &types.InvalidParameterError{Name: "input", Reason: "--input is required"}
	case outputPath == "":
		return &types.InvalidParameterError{Name: "output", Reason: "--output is required"}
	}
	return nil
}

func resolveSettings(cmd *cobra.Command) (*config.Settings, error) {
	file, optional := configFile, false
	if file == "" {
		file, optional = config.DefaultPath(), true
	}
	profile, err := config.Load(file, optional)
	if err != nil {
		return nil, err
	}

	var overrides config.Overrides
	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		overrides.Algorithm = &algorithm
	}
	// The level only matters when compressing.
	if compressMode && flags.Changed("level") {
		overrides.Level = &level
	}
	if flags.Changed("no-progress") {
		enabled := !noProgress
		overrides.Progress = &enabled
	}
	if flags.Changed("progress-format") {
		overrides.ProgressFormat = &progressFormat
	}
	if flags.Changed("progress-interval") {
		overrides.ProgressInterval = &progressInterval
	}
	return config.Resolve(profile, overrides)
}
