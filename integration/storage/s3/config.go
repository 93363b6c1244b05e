package s3

import "time"

// Config describes where production client assets are stored.
type Config struct {
	Bucket         string        `env:"ASSETS_S3_BUCKET"`
	Region         string        `env:"ASSETS_S3_REGION" envDefault:"us-east-1"`
	Prefix         string        `env:"ASSETS_S3_PREFIX"` // key prefix of the client bundle, e.g. "releases/v42/client"
	AccessKeyID    string        `env:"ASSETS_S3_ACCESS_KEY_ID"`
	SecretKey      string        `env:"ASSETS_S3_SECRET_KEY"`
	Endpoint       string        `env:"ASSETS_S3_ENDPOINT"`         // For S3-compatible services like MinIO
	ForcePathStyle bool          `env:"ASSETS_S3_FORCE_PATH_STYLE"` // Required for MinIO and some S3-compatible services
	MaxObjectSize  int64         `env:"ASSETS_S3_MAX_OBJECT_SIZE" envDefault:"33554432"`
	Timeout        time.Duration `env:"ASSETS_S3_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}
