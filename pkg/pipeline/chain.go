package pipeline

import (
	"fmt"
	"io"

	"github.com/sharky-compress/sharky/pkg/codec"
)

// EncodeWriter is the compressing end of a chain of codec stages. Bytes written to it enter
// the first stage; each stage writes its output into the next one and the last stage writes
// into the destination.
type EncodeWriter struct {
	head     io.Writer
	stages   []codec.Stage
	encoders []io.WriteCloser
	closed   bool
}

// EncodeChain wires the encoders of stages in front of dst. stages are in compression
// order: stages[0] sees the raw bytes first.
func EncodeChain(dst io.Writer, stages []codec.Stage) (*EncodeWriter, error) {
	encoders := make([]io.WriteCloser, len(stages))
	w := dst
	for i := len(stages) - 1; i >= 0; i-- {
		enc, err := stages[i].NewEncoder(w)
		if err != nil {
			return nil, fmt.Errorf("create %s encoder: %w", stages[i], err)
		}
		encoders[i] = enc
		w = enc
	}
	return &EncodeWriter{head: w, stages: stages, encoders: encoders}, nil
}

func (w *EncodeWriter) Write(p []byte) (int, error) { return w.head.Write(p) }

// Close finishes every stage in compression order, so that each stage's terminator is
// written into the next stage before that one is finished. It does not close the
// destination.
func (w *EncodeWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	for i, enc := range w.encoders {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("finish %s stage: %w", w.stages[i], err)
		}
	}
	return nil
}

// DecodeReader is the decompressing end of a chain of codec stages.
type DecodeReader struct {
	head     io.Reader
	stages   []codec.Stage
	decoders []io.ReadCloser
}

// DecodeChain wires the decoders of stages behind src. stages are given in compression
// order, the same slice that was passed to EncodeChain; the decoders are applied in the
// mirrored order so that the last compression stage is undone first.
func DecodeChain(src io.Reader, stages []codec.Stage) (*DecodeReader, error) {
	decoders := make([]io.ReadCloser, len(stages))
	r := src
	for i := len(stages) - 1; i >= 0; i-- {
		dec, err := stages[i].NewDecoder(r)
		if err != nil {
			for _, d := range decoders[i+1:] {
				d.Close()
			}
			return nil, fmt.Errorf("create %s decoder: %w", stages[i], err)
		}
		decoders[i] = dec
		r = dec
	}
	return &DecodeReader{head: r, stages: stages, decoders: decoders}, nil
}

func (r *DecodeReader) Read(p []byte) (int, error) { return r.head.Read(p) }

// Drain reads every stage to its end, starting with the stage closest to the consumer.
// A consumer such as a tar reader may stop at its own end marker; draining makes sure each
// codec reaches and verifies its terminator, so truncated input is always reported.
func (r *DecodeReader) Drain() error {
	for i, dec := range r.decoders {
		if _, err := io.Copy(io.Discard, dec); err != nil {
			return fmt.Errorf("drain %s stage: %w", r.stages[i], err)
		}
	}
	return nil
}

// Close releases the decoders. It does not close the source.
func (r *DecodeReader) Close() error {
	var first error
	for _, dec := range r.decoders {
		if err := dec.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
