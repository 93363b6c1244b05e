package s3

import (
	"bytes"
	"errors"
	"io/fs"
	"path"
	"time"
)

type file struct {
	*bytes.Reader
	info fileInfo
}

func (f *file) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *file) Close() error               { return nil }

// dir stands in for a key prefix. Listing is not supported.
type dir struct {
	info fileInfo
}

func (d *dir) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *dir) Close() error               { return nil }

func (d *dir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: fs.ErrInvalid}
}

// Seek lets http.FS treat directories like files.
func (d *dir) Seek(int64, int) (int64, error) {
	return 0, &fs.PathError{Op: "seek", Path: d.info.name, Err: fs.ErrInvalid}
}

type fileInfo struct {
	name    string
	size    int64
	modTime time.Time
	dir     bool
}

func dirInfo(name string) fileInfo {
	return fileInfo{name: path.Base(name), dir: true}
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) ModTime() time.Time { return i.modTime }
func (i fileInfo) IsDir() bool        { return i.dir }
func (i fileInfo) Sys() any           { return nil }

func (i fileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
