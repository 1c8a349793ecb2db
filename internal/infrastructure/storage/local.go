package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tempfiles-api/internal/domain/resource"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// Local keeps every resource under <root>/<id>/data/<name>.
type Local struct {
	root   string
	logger *zap.Logger
}

func NewLocal(root string, logger *zap.Logger) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage root %q: %w", root, err)
	}
	if err = os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", abs, err)
	}

	return &Local{root: abs, logger: logger}, nil
}

func (l *Local) dir(id resource.ID) string {
	return filepath.Join(l.root, id.String())
}

func (l *Local) dataDir(id resource.ID) string {
	return filepath.Join(l.dir(id), dataDir)
}

func (l *Local) Exists(_ context.Context, id resource.ID) (bool, error) {
	_, err := os.Stat(l.dir(id))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Put writes to a temporary file first so readers never see a partial upload.
func (l *Local) Put(ctx context.Context, id resource.ID, name string, r io.Reader, size int64) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	dir := l.dataDir(id)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	n, err := io.Copy(tmp, ctxReader{ctx: ctx, r: r})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", id, name, err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("write %s/%s: got %d bytes, want %d", id, name, n, size)
	}
	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}

func (l *Local) Open(_ context.Context, id resource.ID, name string) (io.ReadCloser, int64, error) {
	if err := ValidateName(name); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(l.dataDir(id), name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}

	return f, info.Size(), nil
}

func (l *Local) Names(_ context.Context, id resource.ID) ([]string, error) {
	entries, err := os.ReadDir(l.dataDir(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name()[0] != '.' {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// RemoveAll deletes the whole resource directory. A missing directory is not an error.
func (l *Local) RemoveAll(_ context.Context, id resource.ID) error {
	if err := os.RemoveAll(l.dir(id)); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

// Probe checks that the storage root accepts writes and returns what was written.
func (l *Local) Probe(_ context.Context) error {
	want := make([]byte, 32)
	if _, err := rand.Read(want); err != nil {
		return err
	}

	p := filepath.Join(l.root, probeName)
	if err := os.WriteFile(p, want, filePerm); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrProbeFailed, p, err)
	}
	defer func() {
		if err := os.Remove(p); err != nil {
			l.logger.Warn("remove storage probe", zap.String("path", p), zap.Error(err))
		}
	}()

	got, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrProbeFailed, p, err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: %s content mismatch", ErrProbeFailed, p)
	}

	l.logger.Info("storage probe ok", zap.String("root", l.root))
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
