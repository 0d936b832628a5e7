// Package media pushes user images to an external object store and hands
// back durable public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyFile       = errors.New("empty file")
	ErrUnsupportedType = errors.New("unsupported media type")
)

// File is an uploaded file already read from the request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *File) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}

// Asset is a stored object. URL is what gets persisted on the user.
type Asset struct {
	Key string
	URL string
}

type Uploader interface {
	Upload(ctx context.Context, f *File) (*Asset, error)
	// Delete removes a previously uploaded object. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// storageKey builds "users/YYYY/M/D/<uuid><ext>".
func storageKey(now time.Time, name string) string {
	ext := strings.ToLower(path.Ext(name))
	return fmt.Sprintf("users/%d/%d/%d/%v%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}
