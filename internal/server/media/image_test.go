package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type recordingUploader struct {
	got *File
}

func (r *recordingUploader) Upload(ctx context.Context, f *File) (*Asset, error) {
	r.got = f
	return &Asset{Key: "k", URL: "u"}, nil
}

func (r *recordingUploader) Delete(ctx context.Context, key string) error { return nil }

func TestImageUploader_SmallImageUnchanged(t *testing.T) {
	data := pngBytes(t, 10, 10)
	next := &recordingUploader{}
	u := NewImageUploader(next, 64)

	_, err := u.Upload(context.Background(), &File{Name: "a.png", ContentType: "application/octet-stream", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "image/png", next.got.ContentType)
	assert.Equal(t, data, next.got.Data)
}

func TestImageUploader_LargeImageFitted(t *testing.T) {
	next := &recordingUploader{}
	u := NewImageUploader(next, 64)

	_, err := u.Upload(context.Background(), &File{Name: "wide.png", Data: pngBytes(t, 256, 32)})
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(next.got.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}

func TestImageUploader_ResizeDisabled(t *testing.T) {
	data := pngBytes(t, 256, 32)
	out, err := NewImageUploader(nil, 0).Normalize(&File{Data: data})
	require.NoError(t, err)
	assert.Equal(t, data, out.Data)
}

func TestImageUploader_RejectsNonImages(t *testing.T) {
	next := &recordingUploader{}
	u := NewImageUploader(next, 64)

	_, err := u.Upload(context.Background(), &File{Name: "a.png", ContentType: "image/png", Data: []byte("#!/bin/sh\necho hi\n")})
	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.Nil(t, next.got)

	_, err = u.Upload(context.Background(), &File{Name: "a.png"})
	require.ErrorIs(t, err, ErrEmptyFile)
}
