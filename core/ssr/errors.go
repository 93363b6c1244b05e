package ssr

import "errors"

var (
	ErrNilRenderer  = errors.New("ssr: renderer is nil")
	ErrInvalidMode  = errors.New("ssr: invalid mode")
	ErrRootNotFound = errors.New("ssr: webapp package.json not found")
)
