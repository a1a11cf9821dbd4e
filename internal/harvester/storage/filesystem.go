package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// FilesystemUploader writes artifacts below a root directory, mirroring the object keys as paths.
// Used for dry runs, when no object store is available.
type FilesystemUploader struct {
	fs afero.Fs
}

func NewFilesystemUploader(root string) (*FilesystemUploader, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "error creating artifact directory %s", root)
	}
	return NewFilesystemUploaderFromFs(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func NewFilesystemUploaderFromFs(fs afero.Fs) *FilesystemUploader {
	return &FilesystemUploader{fs: fs}
}

func (u *FilesystemUploader) Upload(_ context.Context, key string, body []byte, _ string) (string, error) {
	name := filepath.FromSlash(key)
	if err := u.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", errors.Wrapf(err, "error creating directory for %s", key)
	}
	if err := afero.WriteFile(u.fs, name, body, 0o644); err != nil {
		return "", errors.Wrapf(err, "error writing %s", key)
	}
	if basePathFs, ok := u.fs.(*afero.BasePathFs); ok {
		if path, err := basePathFs.RealPath(name); err == nil {
			return path, nil
		}
	}
	return name, nil
}
