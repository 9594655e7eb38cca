package magiskbuild

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// MoveResult tells whether moveFile found anything to move.
type MoveResult int

const (
	Relocated MoveResult = iota
	SourceAbsent
)

func (r MoveResult) String() string {
	if r == SourceAbsent {
		return "absent"
	}
	return "relocated"
}

// moveFile moves src to dst, replacing a stale dst. A missing src is not an
// error: build systems are allowed to skip outputs they were not asked for.
func moveFile(src, dst string) (MoveResult, error) {
	if _, err := os.Lstat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return SourceAbsent, nil
		}
		return SourceAbsent, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return SourceAbsent, fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	err := os.Rename(src, dst)
	if errors.Is(err, syscall.EXDEV) {
		// different filesystems, fall back to copy + delete
		if err = copyFile(src, dst); err == nil {
			err = os.Remove(src)
		}
	}
	if err != nil {
		return SourceAbsent, fmt.Errorf("failed to move %s -> %s: %w", src, dst, err)
	}
	return Relocated, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	// Copy file mode
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode())
}

// removeFile deletes a single file; a missing file is fine.
func removeFile(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		if cerr := makeWritable(path); cerr == nil {
			return os.Remove(path)
		}
	}
	return err
}

// removeAll is rm -rf. Read-only entries get their write bit set and are
// retried, since some platforms refuse to unlink them otherwise.
func removeAll(path string) error {
	err := os.RemoveAll(path)
	if err == nil || !errors.Is(err, fs.ErrPermission) {
		return err
	}

	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		return makeWritable(p)
	})
	if walkErr != nil {
		return walkErr
	}
	return os.RemoveAll(path)
}

func makeWritable(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil
	}
	return os.Chmod(path, info.Mode().Perm()|0o200)
}
