package s3

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrInvalidConfig is returned by NewFS when bucket or region is missing.
	ErrInvalidConfig = errors.New("s3: bucket and region are required")
	// ErrObjectTooLarge is returned when an object exceeds Config.MaxObjectSize.
	ErrObjectTooLarge = errors.New("s3: object too large")
	// ErrUnavailable wraps S3 failures that are not about the object itself.
	ErrUnavailable = errors.New("s3: service unavailable")
)

// classifyS3Error maps S3 errors onto io/fs errors so file servers can
// answer with 404 and 403 instead of 500.
func classifyS3Error(err error, op, name string) error {
	if err == nil {
		return nil
	}

	wrap := func(target error) error {
		return &fs.PathError{Op: op, Path: name, Err: target}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return wrap(fmt.Errorf("%w: %w", ErrUnavailable, err))
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return wrap(fs.ErrNotExist)
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return wrap(fs.ErrNotExist)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return wrap(fs.ErrNotExist)
		case "AccessDenied", "Forbidden":
			return wrap(fs.ErrPermission)
		case "NoSuchBucket":
			return wrap(fmt.Errorf("%w: bucket not found: %w", ErrUnavailable, err))
		default:
			return wrap(fmt.Errorf("%w (code: %s): %w", ErrUnavailable, apiErr.ErrorCode(), err))
		}
	}

	return wrap(fmt.Errorf("%w: %w", ErrUnavailable, err))
}
