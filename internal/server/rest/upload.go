package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/media"
)

// Multipart field names carrying images.
const (
	avatarField     = "avatar"
	coverImageField = "coverImage"
)

const msgInvalidBody = "Invalid request body"

// formImage reads the named multipart file into memory. A request without
// that field (or without a multipart body at all) yields nil.
func formImage(c *gin.Context, field string) (*media.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, bodyError(err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}

	return &media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// bind decodes the body by content type. An empty body leaves obj untouched.
func bind(c *gin.Context, obj any) error {
	err := c.ShouldBind(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return bodyError(err)
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return common.WrapError(common.ErrorPayloadTooLarge, "Request body too large", err)
	}
	return common.WrapError(common.ErrorValidation, msgInvalidBody, err)
}
