package static

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// neuteredFileSystem wraps http.FileSystem to disable directory listing.
// Directories are only accessible if they contain an index.html file.
type neuteredFileSystem struct {
	fs http.FileSystem
}

// Open implements http.FileSystem.Open with directory listing disabled.
func (nfs neuteredFileSystem) Open(name string) (http.File, error) {
	f, err := nfs.fs.Open(name)
	if err != nil {
		return nil, err
	}

	s, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if s.IsDir() {
		index := strings.TrimSuffix(name, "/") + "/index.html"
		idx, err := nfs.fs.Open(index)
		if err != nil {
			_ = f.Close()
			return nil, fs.ErrNotExist
		}
		_ = idx.Close()
	}

	return f, nil
}

// fsName converts a URL path into an fs.FS name. Cleaning against "/" first
// keeps ".." segments from escaping the root.
func fsName(urlPath string) string {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		return "."
	}
	return name
}

// servable reports whether name is a regular file or a directory with an
// index.html inside fsys.
func servable(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	info, err = fs.Stat(fsys, path.Join(name, "index.html"))
	return err == nil && !info.IsDir()
}
