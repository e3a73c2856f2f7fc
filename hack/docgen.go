package main

import (
	"io/ioutil"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra/doc"

	"github.com/sharky-compress/sharky/pkg/cmd"
	"github.com/sharky-compress/sharky/pkg/log"
	"github.com/sharky-compress/sharky/pkg/util"
)

func main() {
	if err := genMarkdownDocs(); err != nil {
		log.Fatal(err)
	}
}

func genMarkdownDocs() error {
	u, err := user.Current()
	if err != nil {
		return err
	}

	tmpDir, err := util.GetTempDir()
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	if err := doc.GenMarkdownTree(cmd.GetRootCommand(), tmpDir); err != nil {
		return err
	}

	if err := os.MkdirAll("doc", 0755); err != nil {
		return err
	}

	// keep the home directory of whoever generates the docs out of them
	replacer := strings.NewReplacer(u.HomeDir, "~")

	return filepath.Walk(tmpDir, func(file string, fileInfo os.FileInfo, lastErr error) error {
		if lastErr != nil {
			return lastErr
		}
		if fileInfo.IsDir() {
			return nil
		}
		data, err := ioutil.ReadFile(file)
		if err != nil {
			return err
		}
		sanitized := replacer.Replace(string(data))
		return ioutil.WriteFile(path.Join("doc", strings.TrimPrefix(file, tmpDir+"/")), []byte(sanitized), 0644)
	})
}
