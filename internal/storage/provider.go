// Package storage defines the data-directory file-system abstraction.
package storage

// Provider is the interface for file operations under the data directory.
// All paths are relative to the data directory root.
type Provider interface {
	// List returns the sorted names of the non-directory entries directly in dir.
	List(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Exists reports whether a regular file is at path. A directory at path is an error.
	Exists(path string) (bool, error)
	// Create writes a new file, failing with fs.ErrExist if path is already taken.
	Create(path string, content []byte) error
	// Write atomically replaces (or creates) the file at path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
