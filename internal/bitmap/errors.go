package bitmap

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptIndex means the persisted index could not be parsed. Nothing was mutated.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrMainFileNotFound is returned when an explicit main file is not among the component's files.
	ErrMainFileNotFound = errors.New("mainFile is not in the files list")

	// ErrMainFileMissing is returned when a directory rescan no longer finds the main file.
	ErrMainFileMissing = errors.New("main file is missing")

	// ErrMainFileUnresolved is returned when no main file was given and none could be inferred.
	ErrMainFileUnresolved = errors.New("unable to determine the main file, use --main")

	ErrDuplicatePath     = errors.New("duplicate relativePath")
	ErrEmptyFiles        = errors.New("component has no files")
	ErrComponentNotFound = errors.New("component not found")
	ErrPathNotFound      = errors.New("path not found")
	ErrOutsideRoot       = errors.New("path is outside the component rootDir")
	ErrAlreadyTracked    = errors.New("path is already tracked by another component")
)

// ComponentError ties a failure to the component and path it concerns.
type ComponentError struct {
	ID   string
	Path string
	Err  error
}

func (e *ComponentError) Error() string {
	switch {
	case e.ID != "" && e.Path != "":
		return fmt.Sprintf("component %s: %s: %v", e.ID, e.Path, e.Err)
	case e.ID != "":
		return fmt.Sprintf("component %s: %v", e.ID, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ComponentError) Unwrap() error { return e.Err }

// NewError builds a *ComponentError.
func NewError(id, path string, err error) *ComponentError {
	return &ComponentError{ID: id, Path: path, Err: err}
}

// WithID fills in the component id on a *ComponentError produced below the index level.
func WithID(err error, id string) error {
	var ce *ComponentError
	if errors.As(err, &ce) && ce.ID == "" {
		return &ComponentError{ID: id, Path: ce.Path, Err: ce.Err}
	}
	return err
}
