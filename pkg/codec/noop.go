package codec

import "io"

// noopCodec passes bytes through untouched. Its streams are not self-delimiting on their
// own; it relies on the tar end-of-archive marker when it is the only stage.
type noopCodec struct{}

func (noopCodec) Name() string { return "none" }
func (noopCodec) LevelRange() (min, max int) { return 0, 0 }
func (noopCodec) DefaultLevel() int { return 0 }

func (noopCodec) NewEncoder(dst io.Writer, _ int) (io.WriteCloser, error) {
	return nopWriteCloser{dst}, nil
}

func (noopCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(src), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
