package cmd

import (
	"context"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sharky-compress/sharky/pkg/log"
	"github.com/sharky-compress/sharky/pkg/pipeline"
	"github.com/sharky-compress/sharky/pkg/types"
	"github.com/sharky-compress/sharky/pkg/util"
)

func runCompress(ctx context.Context, opts *pipeline.Options) error {
	log.Infof("Compressing %q -> %q with %s", opts.Input, opts.Output, opts.Config)
	if stat, err := os.Stat(opts.Input); err == nil && !stat.IsDir() {
		log.Info("Input size:", humanize.IBytes(uint64(stat.Size())))
	}

	res, err := pipeline.Compress(ctx, opts)
	if err != nil {
		return err
	}

	log.Infof("Archived %d entries, %s of content", res.Entries, humanize.IBytes(uint64(res.InputBytes)))
	log.Infof("Output size: %s (%s of input)", humanize.IBytes(uint64(res.OutputBytes)), ratio(res.OutputBytes, res.InputBytes))
	if checksum {
		sum, err := util.FileSHA256Sum(opts.Output)
		if err != nil {
			return types.NewIOError("checksum", opts.Output, err)
		}
		log.Infof("sha256: %s", sum)
	}
	log.Info("Compression completed in", res.Duration.Round(time.Millisecond))
	return nil
}

func runDecompress(ctx context.Context, opts *pipeline.Options) error {
	log.Infof("Decompressing %q -> %q with %s", opts.Input, opts.Output, opts.Config)

	res, err := pipeline.Decompress(ctx, opts)
	if err != nil {
		if types.IsCorrupt(err) {
			log.Warning("The input is corrupt, truncated, or was compressed with a different --algorithm")
		}
		return err
	}

	log.Info("Input size:", humanize.IBytes(uint64(res.InputBytes)))
	log.Infof("Extracted %d entries, %s of content", res.Entries, humanize.IBytes(uint64(res.OutputBytes)))
	log.Info("Decompression completed in", res.Duration.Round(time.Millisecond))
	return nil
}
