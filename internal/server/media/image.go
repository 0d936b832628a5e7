package media

import (
	"bytes"
	"context"
	"image"
	"net/http"

	"github.com/disintegration/imaging"
)

var allowedImageTypes = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.GIF,
	"image/webp": -1, // accepted, stored as is
}

// ImageUploader sniffs the payload, rejects non-images and scales JPEG and
// PNG images down to fit MaxDimension before handing them to next.
type ImageUploader struct {
	next         Uploader
	maxDimension int
}

func NewImageUploader(next Uploader, maxDimension int) *ImageUploader {
	return &ImageUploader{next: next, maxDimension: maxDimension}
}

func (u *ImageUploader) Upload(ctx context.Context, f *File) (*Asset, error) {
	out, err := u.Normalize(f)
	if err != nil {
		return nil, err
	}
	return u.next.Upload(ctx, out)
}

func (u *ImageUploader) Delete(ctx context.Context, key string) error {
	return u.next.Delete(ctx, key)
}

// Normalize returns f with a sniffed content type, resized when needed.
func (u *ImageUploader) Normalize(f *File) (*File, error) {
	if f.Size() == 0 {
		return nil, ErrEmptyFile
	}

	contentType := http.DetectContentType(f.Data)
	format, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	out := &File{Name: f.Name, ContentType: contentType, Data: f.Data}
	if u.maxDimension <= 0 || (format != imaging.JPEG && format != imaging.PNG) {
		return out, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return nil, ErrUnsupportedType
	}
	if cfg.Width <= u.maxDimension && cfg.Height <= u.maxDimension {
		return out, nil
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrUnsupportedType
	}
	img = imaging.Fit(img, u.maxDimension, u.maxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, err
	}
	out.Data = buf.Bytes()
	return out, nil
}
