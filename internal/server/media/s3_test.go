package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	f.body, _ = io.ReadAll(input.Body)
	return &manager.UploadOutput{}, nil
}

type fakeDeleter struct {
	keys []string
	err  error
}

func (f *fakeDeleter) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestS3(opts S3Options) (*S3Uploader, *fakePutter, *fakeDeleter) {
	p, d := &fakePutter{}, &fakeDeleter{}
	return &S3Uploader{
		putter:  p,
		deleter: d,
		opts:    opts,
		now:     func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) },
	}, p, d
}

func TestS3Uploader_Upload(t *testing.T) {
	u, p, _ := newTestS3(S3Options{Bucket: "avatars", PublicBaseURL: "https://cdn.example.com/"})

	asset, err := u.Upload(context.Background(), &File{Name: "a.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)

	assert.Equal(t, "avatars", aws.ToString(p.input.Bucket))
	assert.Equal(t, asset.Key, aws.ToString(p.input.Key))
	assert.Equal(t, "image/png", aws.ToString(p.input.ContentType))
	assert.Equal(t, []byte("png"), p.body)
	assert.True(t, strings.HasPrefix(asset.Key, "users/2024/1/2/"))
	assert.Equal(t, "https://cdn.example.com/"+asset.Key, asset.URL)
}

func TestS3Uploader_PublicURLVariants(t *testing.T) {
	u, _, _ := newTestS3(S3Options{Bucket: "b", Endpoint: "http://minio:9000/"})
	assert.Equal(t, "http://minio:9000/b/users/k.png", u.publicURL("users/k.png"))

	u, _, _ = newTestS3(S3Options{Bucket: "b", Region: "eu-west-1"})
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/users/k.png", u.publicURL("users/k.png"))
}

func TestS3Uploader_EmptyFile(t *testing.T) {
	u, _, _ := newTestS3(S3Options{Bucket: "b"})
	_, err := u.Upload(context.Background(), &File{Name: "a.png"})
	require.ErrorIs(t, err, ErrEmptyFile)
}

func TestS3Uploader_UploadError(t *testing.T) {
	u, p, _ := newTestS3(S3Options{Bucket: "b"})
	p.err = errors.New("503 slow down")

	_, err := u.Upload(context.Background(), &File{Name: "a.png", Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 upload")
}

func TestS3Uploader_Delete(t *testing.T) {
	u, _, d := newTestS3(S3Options{Bucket: "b"})
	require.NoError(t, u.Delete(context.Background(), "users/k.png"))
	assert.Equal(t, []string{"users/k.png"}, d.keys)

	d.err = errors.New("denied")
	require.Error(t, u.Delete(context.Background(), "users/k.png"))
}

func TestNewS3Uploader_WiresClient(t *testing.T) {
	origLoad, origNew, origUp := loadDefaultAWSConfig, newS3ClientFromConfig, newS3Uploader
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, newS3Uploader = origLoad, origNew, origUp
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minioadmin", creds.AccessKeyID)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	putter := &fakePutter{}
	newS3Uploader = func(c *s3.Client) objectPutter { return putter }

	u, err := NewS3Uploader(context.Background(), S3Options{
		AccessKey: "minioadmin", SecretKey: "minioadmin",
		Bucket: "b", Region: "us-east-1", Endpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.Same(t, putter, u.putter)
}

func TestNewS3Uploader_LoadError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := NewS3Uploader(context.Background(), S3Options{Region: "us-east-1"})
	require.EqualError(t, err, "load-fail")
}
