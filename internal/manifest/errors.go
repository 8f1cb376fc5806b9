package manifest

import (
	"errors"
	"fmt"
)

// FileError reports a manifest file that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("reading manifest %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ParseError reports a YAML document that is malformed or is not a mapping.
// Document is the 1-based position of the document within its source.
type ParseError struct {
	Source   string
	Document int
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s (document %d): %v", e.Source, e.Document, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsFileError checks if an error is or wraps a FileError.
func IsFileError(err error) bool {
	var fileErr *FileError
	return errors.As(err, &fileErr)
}

// IsParseError checks if an error is or wraps a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
