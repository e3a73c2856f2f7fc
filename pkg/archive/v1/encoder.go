// Package v1 implements the archive stage of sharky: it linearizes a file-system subtree
// into a tar stream and materializes such a stream back onto disk.
package v1

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sharky-compress/sharky/pkg/log"
	"github.com/sharky-compress/sharky/pkg/types"
)

// BufferSize is the size of the buffer used to stream file contents into the archive.
const BufferSize = 32 * 1024

// Encoder writes a file or directory tree to a tar stream.
type Encoder struct {
	tw  *tar.Writer
	buf []byte
	// OnEntry, if set, is called with the archive name of every entry before it is
	// written.
	OnEntry func(name string)
	// Exclude lists files that are never archived, such as the archive being written.
	Exclude []os.FileInfo

	entries int
	bytes   int64
}

// NewEncoder returns an Encoder writing the archive stream to w. Close must be called to
// write the end-of-archive marker; it does not close w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		tw:  tar.NewWriter(w),
		buf: make([]byte, BufferSize),
	}
}

// Entries returns the number of entries written so far.
func (e *Encoder) Entries() int { return e.entries }

// ContentBytes returns the number of file content bytes written so far.
func (e *Encoder) ContentBytes() int64 { return e.bytes }

// AddTree adds the file or directory at root to the archive. Files are stored under their
// base name, directories are stored as their base name followed by every descendant in
// lexical depth-first order. Symlinks below the root are stored as links and not followed.
func (e *Encoder) AddTree(ctx context.Context, root string) error {
	base, err := rootName(root)
	if err != nil {
		return err
	}
	root, err = resolveRoot(root)
	if err != nil {
		return err
	}

	info, err := os.Stat(root)
	if err != nil {
		return types.NewIOError("stat", root, err)
	}
	if !info.IsDir() {
		return e.addEntry(root, base, info)
	}

	return filepath.Walk(root, func(file string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return types.NewIOError("walk", file, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return types.NewIOError("walk", file, err)
		}
		return e.addEntry(file, path.Join(base, filepath.ToSlash(rel)), fileInfo)
	})
}

// Close writes the end-of-archive marker and flushes the tar writer.
func (e *Encoder) Close() error {
	if err := e.tw.Close(); err != nil {
		return types.NewIOError("finish archive", "", err)
	}
	return nil
}

func (e *Encoder) addEntry(file, name string, fileInfo os.FileInfo) error {
	for _, excluded := range e.Exclude {
		if os.SameFile(excluded, fileInfo) {
			log.Debugf("Skipping %q: excluded", file)
			return nil
		}
	}

	var link string
	mode := fileInfo.Mode()
	switch {
	case mode.IsRegular(), mode.IsDir():
	case mode&os.ModeSymlink != 0:
		var err error
		if link, err = os.Readlink(file); err != nil {
			return types.NewIOError("readlink", file, err)
		}
	default:
		log.Warningf("Skipping %q: unsupported file type %s", file, mode.Type())
		return nil
	}

	header, err := tar.FileInfoHeader(fileInfo, link)
	if err != nil {
		return types.NewIOError("stat", file, err)
	}
	normalizeHeader(header, name)

	if e.OnEntry != nil {
		e.OnEntry(header.Name)
	}
	log.Debugf("Appending %q (%d bytes)", header.Name, header.Size)

	if err := e.tw.WriteHeader(header); err != nil {
		return types.NewIOError("write header", header.Name, err)
	}
	e.entries++

	if header.Typeflag != tar.TypeReg {
		return nil
	}

	f, err := os.Open(file)
	if err != nil {
		return types.NewIOError("open", file, err)
	}
	defer f.Close()

	n, err := io.CopyBuffer(e.tw, io.LimitReader(f, header.Size), e.buf)
	e.bytes += n
	if err != nil {
		return types.NewIOError("archive", file, err)
	}
	if n != header.Size {
		return types.NewIOError("archive", file,
			fmt.Errorf("file shrank while archiving: expected %d bytes, read %d", header.Size, n))
	}
	return nil
}

// normalizeHeader names the entry and strips everything that would make encoding the same
// tree produce different bytes for different users.
func normalizeHeader(header *tar.Header, name string) {
	header.Name = name
	if header.Typeflag == tar.TypeDir {
		header.Name += "/"
	}
	header.Format = tar.FormatPAX
	header.Uid, header.Gid = 0, 0
	header.Uname, header.Gname = "", ""
	header.AccessTime, header.ChangeTime = time.Time{}, time.Time{}
}

// rootName is the name the user gave the root, even when it is a symlink.
func rootName(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", types.NewIOError("resolve", root, err)
	}
	return filepath.Base(abs), nil
}

func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", types.NewIOError("resolve", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", types.NewIOError("resolve", root, err)
	}
	return resolved, nil
}

// CountTree walks root the same way AddTree does and returns the number of entries and the
// total size of the regular files. It is used to size progress reporting.
func CountTree(root string) (entries int, size int64, err error) {
	root, err = resolveRoot(root)
	if err != nil {
		return 0, 0, err
	}
	err = filepath.Walk(root, func(file string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return types.NewIOError("walk", file, err)
		}
		entries++
		if fileInfo.Mode().IsRegular() {
			size += fileInfo.Size()
		}
		return nil
	})
	return entries, size, err
}
