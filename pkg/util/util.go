package util

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/ioutil"
	"os"
)

// TempDir is the parent of directories returned by GetTempDir. It can be overridden
// with the SHARKY_TMPDIR environment variable.
var TempDir = tempDirFromEnv()

func tempDirFromEnv() string {
	if dir := os.Getenv("SHARKY_TMPDIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// GetTempDir is a utility function for retrieving a new temporary directory within either
// the system default, or user-configured path.
func GetTempDir() (string, error) { return ioutil.TempDir(TempDir, "") }

// CalculateSHA256Sum calculates the sha256sum of the contents of the given reader.
func CalculateSHA256Sum(rdr io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, rdr); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileSHA256Sum calculates the sha256sum of the file at the given path.
func FileSHA256Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return CalculateSHA256Sum(f)
}

