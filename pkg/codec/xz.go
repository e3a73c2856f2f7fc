package codec

import (
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// xzDictCaps maps the xz preset levels to their dictionary sizes.
var xzDictCaps = [...]int{
	256 << 10,
	1 << 20,
	2 << 20,
	4 << 20,
	4 << 20,
	8 << 20,
	8 << 20,
	16 << 20,
	32 << 20,
	64 << 20,
}

type xzCodec struct{}

func (xzCodec) Name() string { return "xz" }

func (xzCodec) LevelRange() (min, max int) { return 0, len(xzDictCaps) - 1 }

func (xzCodec) DefaultLevel() int { return 6 }

func (xzCodec) NewEncoder(dst io.Writer, level int) (io.WriteCloser, error) {
	cfg := xz.WriterConfig{DictCap: xzDictCaps[level]}
	w, err := cfg.NewWriter(dst)
	if err != nil {
		return nil, fmt.Errorf("create xz writer: %w", err)
	}
	return w, nil
}

func (xzCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	tail := &tailReader{r: src}
	r, err := xz.NewReader(tail)
	if err != nil {
		return nil, fmt.Errorf("create xz reader: %w", err)
	}
	return io.NopCloser(&xzReader{r: r, tail: tail}), nil
}

// xzFooterMagic ends every xz stream.
var xzFooterMagic = [2]byte{'Y', 'Z'}

// xzReader reports a stream that ends before its footer as truncated. The xz reader
// returns a plain io.EOF when its input stops where a block header or the index would
// start.
type xzReader struct {
	r    io.Reader
	tail *tailReader
}

func (x *xzReader) Read(p []byte) (int, error) {
	n, err := x.r.Read(p)
	if err == io.EOF && x.tail.last != xzFooterMagic {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// tailReader remembers the last two bytes read from r.
type tailReader struct {
	r    io.Reader
	last [2]byte
}

func (t *tailReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	switch {
	case n >= 2:
		copy(t.last[:], p[n-2:n])
	case n == 1:
		t.last[0], t.last[1] = t.last[1], p[0]
	}
	return n, err
}
