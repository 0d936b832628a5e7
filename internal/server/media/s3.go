package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures S3Uploader. Endpoint is set for S3-compatible hosts
// such as MinIO; PublicBaseURL, when set, is the CDN prefix for object URLs.
type S3Options struct {
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

type objectPutter interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Seams for tests.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
	newS3Uploader         = func(c *s3.Client) objectPutter { return manager.NewUploader(c) }
)

type S3Uploader struct {
	putter  objectPutter
	deleter objectDeleter
	opts    S3Options
	now     func() time.Time
}

func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{
		putter:  newS3Uploader(client),
		deleter: client,
		opts:    opts,
		now:     time.Now,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, f *File) (*Asset, error) {
	if f.Size() == 0 {
		return nil, ErrEmptyFile
	}

	key := storageKey(u.now(), f.Name)
	_, err := u.putter.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(f.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload: %w", err)
	}

	return &Asset{Key: key, URL: u.publicURL(key)}, nil
}

func (u *S3Uploader) Delete(ctx context.Context, key string) error {
	_, err := u.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete: %w", err)
	}
	return nil
}

func (u *S3Uploader) publicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case u.opts.PublicBaseURL != "":
		return strings.TrimRight(u.opts.PublicBaseURL, "/") + "/" + escaped
	case u.opts.Endpoint != "":
		return strings.TrimRight(u.opts.Endpoint, "/") + "/" + u.opts.Bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.opts.Bucket, u.opts.Region, escaped)
	}
}
