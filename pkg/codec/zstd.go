package codec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdDefaultLevel is the level zstd itself picks when asked for level 0.
const zstdDefaultLevel = 3

type zstdCodec struct{}

func (zstdCodec) Name() string { return "zstd" }

func (zstdCodec) LevelRange() (min, max int) { return 0, 22 }

func (zstdCodec) DefaultLevel() int { return 7 }

func (zstdCodec) NewEncoder(dst io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		level = zstdDefaultLevel
	}
	enc, err := zstd.NewWriter(dst,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return enc, nil
}

func (zstdCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	return dec.IOReadCloser(), nil
}
