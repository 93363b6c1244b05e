package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client is the subset of the S3 API used by FS.
type Client interface {
	GetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3aws.HeadObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3aws.ListObjectsV2Input, optFns ...func(*s3aws.Options)) (*s3aws.ListObjectsV2Output, error)
}

var (
	_ fs.FS     = (*FS)(nil)
	_ fs.StatFS = (*FS)(nil)
)

// FS is a read-only fs.FS over the objects below a bucket prefix. Objects are
// read into memory on Open, which keeps files seekable for http.FileServer.
type FS struct {
	client  Client
	bucket  string
	prefix  string
	maxSize int64
	timeout time.Duration
}

// Option configures NewFS.
type Option func(*options)

type options struct {
	client          Client
	httpClient      *http.Client
	configOptions   []func(*config.LoadOptions) error
	s3ClientOptions []func(*s3aws.Options)
}

// WithClient sets a pre-configured client. Primarily used for testing.
func WithClient(c Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithConfigOption adds a custom AWS config option.
func WithConfigOption(opt func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.configOptions = append(o.configOptions, opt)
	}
}

// WithS3ClientOption adds a custom S3 client option.
func WithS3ClientOption(opt func(*s3aws.Options)) Option {
	return func(o *options) {
		o.s3ClientOptions = append(o.s3ClientOptions, opt)
	}
}

// NewFS creates an FS for cfg. Credentials fall back to the default AWS chain
// when no static keys are configured.
func NewFS(ctx context.Context, cfg Config, opts ...Option) (*FS, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}
		awsOptions = append(awsOptions, o.configOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("s3: load AWS config: %w", err)
		}

		client = s3aws.NewFromConfig(awsConfig, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
			for _, opt := range o.s3ClientOptions {
				opt(so)
			}
		})
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &FS{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		maxSize: cfg.MaxObjectSize,
		timeout: timeout,
	}, nil
}

func (f *FS) key(name string) string {
	if f.prefix == "" {
		return name
	}
	return f.prefix + "/" + name
}

func (f *FS) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), f.timeout)
}

// Ping lists at most one key under the prefix to confirm the bucket is
// reachable with the configured credentials.
func (f *FS) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	in := &s3aws.ListObjectsV2Input{
		Bucket:  aws.String(f.bucket),
		MaxKeys: aws.Int32(1),
	}
	if f.prefix != "" {
		in.Prefix = aws.String(f.prefix + "/")
	}

	if _, err := f.client.ListObjectsV2(ctx, in); err != nil {
		return classifyS3Error(err, "ping", f.bucket)
	}
	return nil
}

// Open implements fs.FS.
func (f *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return &dir{info: dirInfo(name)}, nil
	}

	ctx, cancel := f.context()
	defer cancel()

	out, err := f.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(name)),
	})
	if err != nil {
		err = classifyS3Error(err, "open", name)
		if isNotExist(err) && f.isDir(name) {
			return &dir{info: dirInfo(name)}, nil
		}
		return nil, err
	}
	defer out.Body.Close()

	if f.maxSize > 0 && aws.ToInt64(out.ContentLength) > f.maxSize {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrObjectTooLarge}
	}

	var r io.Reader = out.Body
	if f.maxSize > 0 {
		r = io.LimitReader(out.Body, f.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, classifyS3Error(err, "read", name)
	}
	if f.maxSize > 0 && int64(len(data)) > f.maxSize {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrObjectTooLarge}
	}

	return &file{
		Reader: bytes.NewReader(data),
		info: fileInfo{
			name:    path.Base(name),
			size:    int64(len(data)),
			modTime: aws.ToTime(out.LastModified),
		},
	}, nil
}

// Stat implements fs.StatFS without downloading the object.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return dirInfo(name), nil
	}

	ctx, cancel := f.context()
	defer cancel()

	out, err := f.client.HeadObject(ctx, &s3aws.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(name)),
	})
	if err != nil {
		err = classifyS3Error(err, "stat", name)
		if isNotExist(err) && f.isDir(name) {
			return dirInfo(name), nil
		}
		return nil, err
	}

	return fileInfo{
		name:    path.Base(name),
		size:    aws.ToInt64(out.ContentLength),
		modTime: aws.ToTime(out.LastModified),
	}, nil
}

// isDir reports whether any object lives below name.
func (f *FS) isDir(name string) bool {
	ctx, cancel := f.context()
	defer cancel()

	out, err := f.client.ListObjectsV2(ctx, &s3aws.ListObjectsV2Input{
		Bucket:  aws.String(f.bucket),
		Prefix:  aws.String(f.key(name) + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false
	}
	return aws.ToInt32(out.KeyCount) > 0 || len(out.Contents) > 0
}
