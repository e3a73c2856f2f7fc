package types

import "io"

// Codec is an interface to be implemented by a single lossless compression algorithm.
// Implementations must treat the bytes they transform as opaque, and the streams they
// produce must be self-delimiting so they can be nested inside other streams.
type Codec interface {
	// Name returns the identifier used on the command line and in profile files.
	Name() string
	// LevelRange returns the inclusive range of accepted levels.
	LevelRange() (min, max int)
	// DefaultLevel returns the level used when none is configured.
	DefaultLevel() int
	// NewEncoder returns a writer that compresses into dst. Closing the writer is the
	// finish signal: it must flush all buffered state and write the stream terminator,
	// but must not close dst.
	NewEncoder(dst io.Writer, level int) (io.WriteCloser, error)
	// NewDecoder returns a reader that decompresses src. It returns io.EOF only after
	// the stream terminator was read, and an error if src ends before it.
	NewDecoder(src io.Reader) (io.ReadCloser, error)
}
