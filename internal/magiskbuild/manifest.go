package magiskbuild

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"
)

const manifestName = "artifacts.b3"

func hashFile(path string, buf []byte) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New(32, nil)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// writeManifest fingerprints every file in the per-ABI output directories
// into native/out/artifacts.b3 (b3sum format). Returns the number of entries.
func writeManifest(layout Layout) (int, error) {
	var sb strings.Builder
	buf := make([]byte, 256*1024)
	n := 0
	for _, arch := range Archs {
		entries, err := os.ReadDir(layout.ArchOut(arch))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		// ReadDir sorts by name
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			sum, err := hashFile(filepath.Join(layout.ArchOut(arch), e.Name()), buf)
			if err != nil {
				return 0, fmt.Errorf("failed to hash %s/%s: %w", arch.ABI, e.Name(), err)
			}
			fmt.Fprintf(&sb, "%s  %s/%s\n", sum, arch.ABI, e.Name())
			n++
		}
	}
	if _, err := writeIfDiff(filepath.Join(layout.NativeOut(), manifestName), sb.String()); err != nil {
		return 0, err
	}
	return n, nil
}
