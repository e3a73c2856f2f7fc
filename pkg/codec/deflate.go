package codec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// deflateCodec produces raw deflate streams. The final block flag is the stream terminator.
type deflateCodec struct{}

func (deflateCodec) Name() string { return "deflate" }

func (deflateCodec) LevelRange() (min, max int) { return flate.NoCompression, flate.BestCompression }

func (deflateCodec) DefaultLevel() int { return flate.BestCompression }

func (deflateCodec) NewEncoder(dst io.Writer, level int) (io.WriteCloser, error) {
	w, err := flate.NewWriter(dst, level)
	if err != nil {
		return nil, fmt.Errorf("create deflate writer: %w", err)
	}
	return w, nil
}

func (deflateCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(src), nil
}
