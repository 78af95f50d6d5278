package filestore

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrCorrupt marks a collection file whose contents cannot be decoded.
var ErrCorrupt = errors.New("corrupt collection file")

// StorageError reports a storage fault unrelated to a missing key, such as
// a permission problem or an undecodable file.
type StorageError struct {
	Collection string
	Op         string
	Path       string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s collection (%s): %v", e.Op, e.Collection, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
