package dataset

import (
	"errors"
	"fmt"
)

// ErrFileNotFound is matched (errors.Is) by every FileNotFoundError
var ErrFileNotFound = errors.New("data file not found")

// FileNotFoundError reports that the data file does not exist where the
// loader looked for it. The user fixes this by placing the file in Dir.
type FileNotFoundError struct {
	Name string
	Dir  string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file '%s' not found in %s", e.Name, e.Dir)
}

// Is lets errors.Is(err, ErrFileNotFound) match
func (e *FileNotFoundError) Is(target error) bool {
	return target == ErrFileNotFound
}

// LoadError wraps any other failure to read or parse the data file
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("error loading '%s': %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
