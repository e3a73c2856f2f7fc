package v1

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sharky-compress/sharky/pkg/log"
	"github.com/sharky-compress/sharky/pkg/types"
)

// Decoder materializes a tar stream produced by an Encoder onto disk.
type Decoder struct {
	tr  *tar.Reader
	buf []byte
	// OnEntry, if set, is called with the archive name of every entry before it is
	// extracted.
	OnEntry func(name string)

	entries int
	bytes   int64
}

// NewDecoder returns a Decoder reading the archive stream from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		tr:  tar.NewReader(r),
		buf: make([]byte, BufferSize),
	}
}

// Entries returns the number of entries extracted so far.
func (d *Decoder) Entries() int { return d.entries }

// ContentBytes returns the number of file content bytes extracted so far.
func (d *Decoder) ContentBytes() int64 { return d.bytes }

type dirTimes struct {
	path    string
	mode    os.FileMode
	modTime time.Time
}

// ExtractTo extracts every entry of the stream below dest, creating dest and any missing
// parents. Existing files are overwritten. Directory permissions and times are applied once
// all entries have been written, so that writing children does not disturb them.
func (d *Decoder) ExtractTo(ctx context.Context, dest string) error {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return types.NewIOError("resolve", dest, err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return types.NewIOError("create directory", dest, err)
	}

	var dirs []dirTimes
	for {
		header, err := d.tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.ClassifyReadError("read entry header", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		if err := checkParents(dest, target, header.Name); err != nil {
			return err
		}
		if d.OnEntry != nil {
			d.OnEntry(header.Name)
		}
		log.Debugf("Extracting %q to %q", header.Name, target)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := removeSymlink(target); err != nil {
				return err
			}
			if err := os.MkdirAll(target, 0755); err != nil {
				return types.NewIOError("create directory", target, err)
			}
			// Children must be writable until the final permissions are applied below.
			if err := os.Chmod(target, header.FileInfo().Mode().Perm()|0700); err != nil {
				return types.NewIOError("chmod", target, err)
			}
			dirs = append(dirs, dirTimes{path: target, mode: header.FileInfo().Mode().Perm(), modTime: header.ModTime})
		case tar.TypeReg:
			if err := d.writeFile(target, header); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(target, header.Linkname); err != nil {
				return err
			}
		default:
			log.Warningf("Skipping %q: unsupported entry type %q", header.Name, header.Typeflag)
			continue
		}
		d.entries++
	}

	if d.entries == 0 {
		return types.NewCorruptArchiveError("archive contains no entries", nil)
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		dir := dirs[i]
		if err := os.Chmod(dir.path, dir.mode); err != nil {
			return types.NewIOError("chmod", dir.path, err)
		}
		if err := os.Chtimes(dir.path, dir.modTime, dir.modTime); err != nil {
			log.Debugf("Could not restore times on %q: %v", dir.path, err)
		}
	}
	return nil
}

func (d *Decoder) writeFile(target string, header *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return types.NewIOError("create directory", filepath.Dir(target), err)
	}
	// Replace instead of truncating: this never writes through a link left at the target
	// and works for files that are read-only.
	if info, err := os.Lstat(target); err == nil && !info.IsDir() {
		if err := os.Remove(target); err != nil {
			return types.NewIOError("remove", target, err)
		}
	}

	mode := header.FileInfo().Mode().Perm()
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0200)
	if err != nil {
		return types.NewIOError("create", target, err)
	}

	src := &entryReader{r: d.tr}
	n, err := io.CopyBuffer(f, src, d.buf)
	d.bytes += n
	if src.err != nil {
		f.Close()
		return types.ClassifyReadError(fmt.Sprintf("read content of %q", header.Name), src.err)
	}
	if err != nil {
		f.Close()
		return types.NewIOError("write", target, err)
	}
	if n != header.Size {
		f.Close()
		return types.NewCorruptArchiveError(
			fmt.Sprintf("entry %q declares %d bytes but the stream holds %d", header.Name, header.Size, n), nil)
	}
	if err := f.Close(); err != nil {
		return types.NewIOError("write", target, err)
	}

	if err := os.Chmod(target, mode); err != nil {
		return types.NewIOError("chmod", target, err)
	}
	if err := os.Chtimes(target, header.ModTime, header.ModTime); err != nil {
		log.Debugf("Could not restore times on %q: %v", target, err)
	}
	return nil
}

func writeSymlink(target, linkname string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return types.NewIOError("create directory", filepath.Dir(target), err)
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return types.NewIOError("remove", target, err)
	}
	if err := os.Symlink(linkname, target); err != nil {
		return types.NewIOError("symlink", target, err)
	}
	return nil
}

func removeSymlink(target string) error {
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return types.NewIOError("remove", target, err)
		}
	}
	return nil
}

// checkParents refuses entries whose parent directories pass through a symlink, since
// creating them would follow the link to wherever it points.
func checkParents(dest, target, name string) error {
	rel, err := filepath.Rel(dest, filepath.Dir(target))
	if err != nil || rel == "." {
		return nil
	}
	dir := dest
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		dir = filepath.Join(dir, part)
		info, err := os.Lstat(dir)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return types.NewIOError("stat", dir, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return types.NewCorruptArchiveError(fmt.Sprintf("entry %q is below a symlink", name), nil)
		}
	}
	return nil
}

// safeJoin resolves an entry name below dest, refusing names that would land outside of it.
func safeJoin(dest, name string) (string, error) {
	clean := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	if clean == "" || filepath.IsAbs(clean) {
		return "", types.NewCorruptArchiveError(fmt.Sprintf("invalid entry name %q", name), nil)
	}
	target := filepath.Join(dest, clean)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", types.NewCorruptArchiveError(fmt.Sprintf("entry %q escapes the destination", name), nil)
	}
	return target, nil
}

// entryReader remembers the last read error so that failures reading the stream can be
// told apart from failures writing the destination.
type entryReader struct {
	r   io.Reader
	err error
}

func (e *entryReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && err != io.EOF {
		e.err = err
	}
	return n, err
}
