package pipeline

import (
	"io"
	"os"

	"github.com/sharky-compress/sharky/pkg/types"
)

// inputFile tags read failures of the compressed input as IO errors, so that the decoder
// does not mistake them for a corrupt stream.
type inputFile struct{ f *os.File }

func (i *inputFile) Read(p []byte) (int, error) {
	n, err := i.f.Read(p)
	if err != nil && err != io.EOF {
		err = types.NewIOError("read", i.f.Name(), err)
	}
	return n, err
}

// outputFile tags write failures of the compressed output as IO errors.
type outputFile struct{ f *os.File }

func (o *outputFile) Write(p []byte) (int, error) {
	n, err := o.f.Write(p)
	if err != nil {
		err = types.NewIOError("write", o.f.Name(), err)
	}
	return n, err
}
