package hosting

import (
	"io"
	"os"
)

// FileArtifact is an artifact backed by a file on disk
type FileArtifact string

// Path returns the file path
func (f FileArtifact) Path() string {
	return string(f)
}

// Open opens the file for reading
func (f FileArtifact) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}
