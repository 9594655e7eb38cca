package magiskbuild

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// buildLog captures the stdout of a quiet external step as a zstd stream
// under native/out/logs, so a failed run can still be inspected.
type buildLog struct {
	path string
	file *os.File
	enc  *zstd.Encoder
}

func logName(seq int, stepName string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, stepName)
	return fmt.Sprintf("%02d-%s.log.zst", seq, slug)
}

func openBuildLog(dir string, seq int, stepName string) (*buildLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, logName(seq, stepName))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &buildLog{path: path, file: f, enc: enc}, nil
}

func (l *buildLog) Write(p []byte) (int, error) { return l.enc.Write(p) }

func (l *buildLog) Close() error {
	if err := l.enc.Close(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// readBuildLog decompresses a captured log.
func readBuildLog(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
