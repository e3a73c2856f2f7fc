package v1

import (
	"archive/tar"
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/sharky-compress/sharky/pkg/log"
	"github.com/sharky-compress/sharky/pkg/types"
)

func TestArchive(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Archive Suite")
}

// makeTree creates a small tree with every supported entry type below dir/tree.
func makeTree(dir string) string {
	root := filepath.Join(dir, "tree")
	Expect(os.MkdirAll(filepath.Join(root, "sub", "deeper"), 0755)).To(Succeed())
	Expect(os.MkdirAll(filepath.Join(root, "emptydir"), 0700)).To(Succeed())
	Expect(ioutil.WriteFile(filepath.Join(root, "a.txt"), []byte("hello sharky\n"), 0644)).To(Succeed())
	Expect(ioutil.WriteFile(filepath.Join(root, "empty"), nil, 0600)).To(Succeed())
	Expect(ioutil.WriteFile(filepath.Join(root, "sub", "run.sh"), []byte("#!/bin/sh\necho hi\n"), 0755)).To(Succeed())
	Expect(ioutil.WriteFile(filepath.Join(root, "sub", "deeper", "data.bin"), bytes.Repeat([]byte{0, 1, 2, 3}, 50000), 0644)).To(Succeed())
	Expect(os.Symlink("a.txt", filepath.Join(root, "link"))).To(Succeed())
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	Expect(os.Chtimes(filepath.Join(root, "a.txt"), mtime, mtime)).To(Succeed())
	return root
}

func encodeTree(root string) ([]byte, *Encoder) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	Expect(enc.AddTree(context.Background(), root)).To(Succeed())
	Expect(enc.Close()).To(Succeed())
	return buf.Bytes(), enc
}

func listEntries(data []byte) []string {
	var names []string
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}
	return names
}

var _ = Describe("Archive", func() {
	log.LogWriter = GinkgoWriter

	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = ioutil.TempDir("", "sharky-archive")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() { os.RemoveAll(tmpDir) })

	Describe("Encoding a directory", func() {
		var (
			root string
			data []byte
			enc  *Encoder
		)

		JustBeforeEach(func() {
			root = makeTree(tmpDir)
			data, enc = encodeTree(root)
		})

		It("Should write entries depth first in lexical order below the root name", func() {
			Expect(listEntries(data)).To(Equal([]string{
				"tree/",
				"tree/a.txt",
				"tree/empty",
				"tree/emptydir/",
				"tree/link",
				"tree/sub/",
				"tree/sub/deeper/",
				"tree/sub/deeper/data.bin",
				"tree/sub/run.sh",
			}))
			Expect(enc.Entries()).To(Equal(9))
			Expect(enc.ContentBytes()).To(Equal(int64(13 + 18 + 200000)))
		})

		It("Should produce the same bytes when encoding the same tree twice", func() {
			again, _ := encodeTree(root)
			Expect(again).To(Equal(data))
		})

		It("Should store symlinks as links", func() {
			tr := tar.NewReader(bytes.NewReader(data))
			for {
				hdr, err := tr.Next()
				Expect(err).ToNot(HaveOccurred())
				if hdr.Name == "tree/link" {
					Expect(hdr.Typeflag).To(Equal(byte(tar.TypeSymlink)))
					Expect(hdr.Linkname).To(Equal("a.txt"))
					return
				}
			}
		})

		It("Should count the same tree for progress", func() {
			entries, size, err := CountTree(root)
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(Equal(9))
			Expect(size).To(Equal(int64(13 + 18 + 200000)))
		})
	})

	Describe("Encoding a single file", func() {
		It("Should store one entry under the base name", func() {
			file := filepath.Join(tmpDir, "doc.txt")
			Expect(ioutil.WriteFile(file, []byte("document"), 0644)).To(Succeed())
			data, _ := encodeTree(file)
			Expect(listEntries(data)).To(Equal([]string{"doc.txt"}))
		})
	})

	Describe("Encoding through a symlinked root", func() {
		It("Should name entries after the link the user gave", func() {
			release := filepath.Join(tmpDir, "release-1")
			Expect(os.MkdirAll(release, 0755)).To(Succeed())
			Expect(ioutil.WriteFile(filepath.Join(release, "bin"), []byte("x"), 0755)).To(Succeed())
			latest := filepath.Join(tmpDir, "latest")
			Expect(os.Symlink(release, latest)).To(Succeed())

			data, _ := encodeTree(latest)
			Expect(listEntries(data)).To(Equal([]string{"latest/", "latest/bin"}))
		})
	})

	Describe("Encoding with exclusions", func() {
		It("Should leave excluded files out", func() {
			root := makeTree(tmpDir)
			info, err := os.Stat(filepath.Join(root, "a.txt"))
			Expect(err).ToNot(HaveOccurred())

			var buf bytes.Buffer
			enc := NewEncoder(&buf)
			enc.Exclude = []os.FileInfo{info}
			Expect(enc.AddTree(context.Background(), root)).To(Succeed())
			Expect(enc.Close()).To(Succeed())
			Expect(listEntries(buf.Bytes())).ToNot(ContainElement("tree/a.txt"))
			Expect(enc.Entries()).To(Equal(8))
		})
	})

	Describe("Encoding a missing path", func() {
		It("Should fail with an IO error", func() {
			enc := NewEncoder(ioutil.Discard)
			err := enc.AddTree(context.Background(), filepath.Join(tmpDir, "missing"))
			Expect(err).To(HaveOccurred())
			Expect(types.IsIO(err)).To(BeTrue())
		})
	})

	Describe("Decoding", func() {
		var (
			dest string
			data []byte
			err  error
			dec  *Decoder
		)

		BeforeEach(func() {
			dest = filepath.Join(tmpDir, "out")
			data, _ = encodeTree(makeTree(tmpDir))
		})

		JustBeforeEach(func() {
			dec = NewDecoder(bytes.NewReader(data))
			err = dec.ExtractTo(context.Background(), dest)
		})

		Context("When the stream is intact", func() {
			It("Should restore contents, types and permissions", func() {
				Expect(err).ToNot(HaveOccurred())
				Expect(dec.Entries()).To(Equal(9))

				body, rerr := ioutil.ReadFile(filepath.Join(dest, "tree", "a.txt"))
				Expect(rerr).ToNot(HaveOccurred())
				Expect(string(body)).To(Equal("hello sharky\n"))

				info, serr := os.Stat(filepath.Join(dest, "tree", "empty"))
				Expect(serr).ToNot(HaveOccurred())
				Expect(info.Size()).To(BeZero())
				Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))

				info, serr = os.Stat(filepath.Join(dest, "tree", "sub", "run.sh"))
				Expect(serr).ToNot(HaveOccurred())
				Expect(info.Mode().Perm()).To(Equal(os.FileMode(0755)))

				info, serr = os.Stat(filepath.Join(dest, "tree", "emptydir"))
				Expect(serr).ToNot(HaveOccurred())
				Expect(info.IsDir()).To(BeTrue())
				Expect(info.Mode().Perm()).To(Equal(os.FileMode(0700)))

				link, lerr := os.Readlink(filepath.Join(dest, "tree", "link"))
				Expect(lerr).ToNot(HaveOccurred())
				Expect(link).To(Equal("a.txt"))
			})

			It("Should restore modification times", func() {
				Expect(err).ToNot(HaveOccurred())
				info, serr := os.Stat(filepath.Join(dest, "tree", "a.txt"))
				Expect(serr).ToNot(HaveOccurred())
				Expect(info.ModTime().UTC()).To(BeTemporally("~", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), time.Second))
			})
		})

		Context("When the destination already holds files", func() {
			BeforeEach(func() {
				Expect(os.MkdirAll(filepath.Join(dest, "tree"), 0755)).To(Succeed())
				Expect(ioutil.WriteFile(filepath.Join(dest, "tree", "a.txt"), []byte("stale content that is longer"), 0644)).To(Succeed())
			})
			It("Should overwrite them", func() {
				Expect(err).ToNot(HaveOccurred())
				body, rerr := ioutil.ReadFile(filepath.Join(dest, "tree", "a.txt"))
				Expect(rerr).ToNot(HaveOccurred())
				Expect(string(body)).To(Equal("hello sharky\n"))
			})
		})

		Context("When extracting the same archive twice", func() {
			BeforeEach(func() {
				src := filepath.Join(tmpDir, "ro")
				Expect(os.MkdirAll(filepath.Join(src, "locked"), 0755)).To(Succeed())
				Expect(ioutil.WriteFile(filepath.Join(src, "readonly.txt"), []byte("frozen"), 0444)).To(Succeed())
				Expect(ioutil.WriteFile(filepath.Join(src, "locked", "inner.txt"), []byte("inner"), 0444)).To(Succeed())
				Expect(os.Chmod(filepath.Join(src, "locked"), 0555)).To(Succeed())
				data, _ = encodeTree(src)
				Expect(NewDecoder(bytes.NewReader(data)).ExtractTo(context.Background(), dest)).To(Succeed())
			})

			AfterEach(func() {
				// Read-only directories would keep RemoveAll from cleaning up.
				filepath.Walk(tmpDir, func(file string, info os.FileInfo, err error) error {
					if err == nil && info.IsDir() {
						os.Chmod(file, 0755)
					}
					return nil
				})
			})

			It("Should replace read-only files and keep their permissions", func() {
				Expect(err).ToNot(HaveOccurred())
				info, serr := os.Stat(filepath.Join(dest, "ro", "readonly.txt"))
				Expect(serr).ToNot(HaveOccurred())
				Expect(info.Mode().Perm()).To(Equal(os.FileMode(0444)))

				info, serr = os.Stat(filepath.Join(dest, "ro", "locked"))
				Expect(serr).ToNot(HaveOccurred())
				Expect(info.Mode().Perm()).To(Equal(os.FileMode(0555)))

				body, rerr := ioutil.ReadFile(filepath.Join(dest, "ro", "locked", "inner.txt"))
				Expect(rerr).ToNot(HaveOccurred())
				Expect(string(body)).To(Equal("inner"))
			})
		})

		Context("When an entry is written below a symlink", func() {
			var outside string

			BeforeEach(func() {
				outside = filepath.Join(tmpDir, "outside")
				Expect(os.MkdirAll(outside, 0755)).To(Succeed())

				var buf bytes.Buffer
				tw := tar.NewWriter(&buf)
				Expect(tw.WriteHeader(&tar.Header{Name: "x/", Typeflag: tar.TypeDir, Mode: 0755})).To(Succeed())
				Expect(tw.WriteHeader(&tar.Header{Name: "x/link", Typeflag: tar.TypeSymlink, Linkname: outside, Mode: 0777})).To(Succeed())
				Expect(tw.WriteHeader(&tar.Header{Name: "x/link/pwned", Typeflag: tar.TypeReg, Mode: 0644, Size: 5})).To(Succeed())
				_, werr := tw.Write([]byte("pwned"))
				Expect(werr).ToNot(HaveOccurred())
				Expect(tw.Close()).To(Succeed())
				data = buf.Bytes()
			})

			It("Should refuse to follow the link", func() {
				Expect(types.IsCorrupt(err)).To(BeTrue())
				_, serr := os.Stat(filepath.Join(outside, "pwned"))
				Expect(os.IsNotExist(serr)).To(BeTrue())
			})
		})

		Context("When a directory entry replaces a symlink", func() {
			var outside string

			BeforeEach(func() {
				outside = filepath.Join(tmpDir, "outside")
				Expect(os.MkdirAll(outside, 0755)).To(Succeed())
				Expect(os.MkdirAll(dest, 0755)).To(Succeed())
				Expect(os.Symlink(outside, filepath.Join(dest, "d"))).To(Succeed())

				var buf bytes.Buffer
				tw := tar.NewWriter(&buf)
				Expect(tw.WriteHeader(&tar.Header{Name: "d/", Typeflag: tar.TypeDir, Mode: 0700})).To(Succeed())
				Expect(tw.Close()).To(Succeed())
				data = buf.Bytes()
			})

			It("Should replace the link with a directory", func() {
				Expect(err).ToNot(HaveOccurred())
				info, serr := os.Lstat(filepath.Join(dest, "d"))
				Expect(serr).ToNot(HaveOccurred())
				Expect(info.IsDir()).To(BeTrue())
				info, serr = os.Stat(outside)
				Expect(serr).ToNot(HaveOccurred())
				Expect(info.Mode().Perm()).To(Equal(os.FileMode(0755)))
			})
		})

		Context("When the stream is cut inside a file", func() {
			BeforeEach(func() { data = data[:len(data)/2] })
			It("Should fail with a corrupt archive error", func() {
				Expect(err).To(HaveOccurred())
				Expect(types.IsCorrupt(err)).To(BeTrue())
			})
		})

		Context("When the stream holds no entries", func() {
			BeforeEach(func() {
				var buf bytes.Buffer
				Expect(tar.NewWriter(&buf).Close()).To(Succeed())
				data = buf.Bytes()
			})
			It("Should fail with a corrupt archive error", func() {
				Expect(types.IsCorrupt(err)).To(BeTrue())
			})
		})

		Context("When the stream is not a tar stream", func() {
			BeforeEach(func() { data = bytes.Repeat([]byte("not a tar header "), 100) })
			It("Should fail with a corrupt archive error", func() {
				Expect(types.IsCorrupt(err)).To(BeTrue())
			})
		})

		Context("When an entry escapes the destination", func() {
			BeforeEach(func() {
				var buf bytes.Buffer
				tw := tar.NewWriter(&buf)
				Expect(tw.WriteHeader(&tar.Header{Name: "../evil", Typeflag: tar.TypeReg, Mode: 0644, Size: 4})).To(Succeed())
				_, werr := tw.Write([]byte("evil"))
				Expect(werr).ToNot(HaveOccurred())
				Expect(tw.Close()).To(Succeed())
				data = buf.Bytes()
			})
			It("Should refuse to extract it", func() {
				Expect(types.IsCorrupt(err)).To(BeTrue())
				_, serr := os.Stat(filepath.Join(tmpDir, "evil"))
				Expect(os.IsNotExist(serr)).To(BeTrue())
			})
		})
	})
})
