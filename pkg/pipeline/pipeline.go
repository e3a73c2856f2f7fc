// Package pipeline composes the archive stage and the codec stages into the compress and
// decompress operations.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	v1 "github.com/sharky-compress/sharky/pkg/archive/v1"
	"github.com/sharky-compress/sharky/pkg/codec"
	"github.com/sharky-compress/sharky/pkg/log"
	"github.com/sharky-compress/sharky/pkg/progress"
	"github.com/sharky-compress/sharky/pkg/types"
)

// BufferSize is the size of the buffered reader or writer around the compressed file.
const BufferSize = 1024 * 1024

// Options configure a single compress or decompress run.
type Options struct {
	// Config holds the codec stages in compression order. Decompression applies them in
	// reverse.
	Config *types.PipelineConfig
	// Input is the tree to compress, or the file to decompress.
	Input string
	// Output is the file to write, or the directory to extract into.
	Output string
	// Renderer draws progress. Nil draws nothing.
	Renderer progress.Renderer
	// ProgressInterval throttles rendering. Zero uses progress.DefaultInterval.
	ProgressInterval time.Duration
	// Counter, if set, receives the byte count of the run.
	Counter *progress.Counter
}

// Result summarizes a finished run.
type Result struct {
	// Entries is the number of archive entries written or extracted.
	Entries int
	// InputBytes is the number of file content bytes archived when compressing, or the
	// size of the compressed file when decompressing.
	InputBytes int64
	// OutputBytes is the size of the compressed file when compressing, or the number of
	// file content bytes extracted when decompressing.
	OutputBytes int64
	// Duration is the wall time of the run.
	Duration time.Duration
}

// Compress archives opts.Input and writes it through the configured stages to opts.Output.
// The configuration is validated before the input is touched. On failure the output file
// may exist but must be considered garbage.
func Compress(ctx context.Context, opts *Options) (*Result, error) {
	start := time.Now()
	stages, err := codec.StagesFromConfig(opts.Config)
	if err != nil {
		return nil, err
	}

	entries, size, err := v1.CountTree(opts.Input)
	if err != nil {
		return nil, err
	}
	log.Debugf("Compressing %d entries (%d bytes) with %s", entries, size, opts.Config)

	if sameFile(opts.Input, opts.Output) {
		return nil, &types.InvalidParameterError{Name: "output", Value: opts.Output, Reason: "is the input"}
	}
	f, err := os.Create(opts.Output)
	if err != nil {
		return nil, types.NewIOError("create", opts.Output, err)
	}
	defer f.Close()
	outInfo, err := f.Stat()
	if err != nil {
		return nil, types.NewIOError("stat", opts.Output, err)
	}

	tracker := progress.NewTracker("compressing", size, opts.Counter, opts.Renderer, opts.ProgressInterval)
	tracker.SetTotalEntries(entries)
	defer tracker.Finish()

	out := bufio.NewWriterSize(&outputFile{f: f}, BufferSize)
	chain, err := EncodeChain(out, stages)
	if err != nil {
		return nil, discard(opts.Output, err)
	}

	enc := v1.NewEncoder(tracker.Writer(chain))
	enc.OnEntry = tracker.Entry
	// The output may live inside the input tree.
	enc.Exclude = []os.FileInfo{outInfo}
	if err := enc.AddTree(ctx, opts.Input); err != nil {
		return nil, discard(opts.Output, err)
	}
	if err := enc.Close(); err != nil {
		return nil, discard(opts.Output, err)
	}
	if err := chain.Close(); err != nil {
		return nil, discard(opts.Output, asIOError("finish", opts.Output, err))
	}
	if err := out.Flush(); err != nil {
		return nil, discard(opts.Output, asIOError("flush", opts.Output, err))
	}
	if err := f.Sync(); err != nil {
		return nil, discard(opts.Output, types.NewIOError("sync", opts.Output, err))
	}
	stat, err := f.Stat()
	if err != nil {
		return nil, types.NewIOError("stat", opts.Output, err)
	}
	if err := f.Close(); err != nil {
		return nil, discard(opts.Output, types.NewIOError("close", opts.Output, err))
	}

	return &Result{
		Entries:     enc.Entries(),
		InputBytes:  enc.ContentBytes(),
		OutputBytes: stat.Size(),
		Duration:    time.Since(start),
	}, nil
}

// Decompress reads opts.Input through the configured stages in reverse order and extracts
// the archive below opts.Output. Files already present in opts.Output are overwritten.
func Decompress(ctx context.Context, opts *Options) (*Result, error) {
	start := time.Now()
	stages, err := codec.StagesFromConfig(opts.Config)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(opts.Input)
	if err != nil {
		return nil, types.NewIOError("open", opts.Input, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, types.NewIOError("stat", opts.Input, err)
	}
	if stat.IsDir() {
		return nil, types.NewIOError("open", opts.Input, fmt.Errorf("is a directory"))
	}
	log.Debugf("Decompressing %d bytes with %s", stat.Size(), opts.Config)

	tracker := progress.NewTracker("decompressing", stat.Size(), opts.Counter, opts.Renderer, opts.ProgressInterval)
	defer tracker.Finish()

	in := tracker.Reader(bufio.NewReaderSize(&inputFile{f: f}, BufferSize))
	chain, err := DecodeChain(in, stages)
	if err != nil {
		return nil, types.ClassifyReadError("open compressed stream", err)
	}
	defer chain.Close()

	dec := v1.NewDecoder(chain)
	dec.OnEntry = tracker.Entry
	if err := dec.ExtractTo(ctx, opts.Output); err != nil {
		return nil, err
	}
	if err := chain.Drain(); err != nil {
		return nil, types.ClassifyReadError("trailing data", err)
	}

	return &Result{
		Entries:     dec.Entries(),
		InputBytes:  stat.Size(),
		OutputBytes: dec.ContentBytes(),
		Duration:    time.Since(start),
	}, nil
}

// discard logs that the output of a failed compression is unreliable and returns err.
func discard(output string, err error) error {
	log.Warningf("Compression failed, partial output %q is not a valid archive", output)
	return err
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func asIOError(op, path string, err error) error {
	if types.IsIO(err) {
		return err
	}
	return types.NewIOError(op, path, err)
}
