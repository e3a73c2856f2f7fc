package codec

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1,
	lz4.Level2,
	lz4.Level3,
	lz4.Level4,
	lz4.Level5,
	lz4.Level6,
	lz4.Level7,
	lz4.Level8,
	lz4.Level9,
}

type lz4Codec struct{}

func (lz4Codec) Name() string { return "lz4" }

func (lz4Codec) LevelRange() (min, max int) { return 0, len(lz4Levels) - 1 }

func (lz4Codec) DefaultLevel() int { return 0 }

func (lz4Codec) NewEncoder(dst io.Writer, level int) (io.WriteCloser, error) {
	zw := lz4.NewWriter(dst)
	if err := zw.Apply(
		lz4.CompressionLevelOption(lz4Levels[level]),
		lz4.ConcurrencyOption(1),
	); err != nil {
		return nil, fmt.Errorf("configure lz4 writer: %w", err)
	}
	return zw, nil
}

func (lz4Codec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(src)), nil
}
