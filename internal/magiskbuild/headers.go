package magiskbuild

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

const (
	preloadLib    = "libinit-ld.so"
	preloadSymbol = "init_ld_xz"
)

// writeIfDiff writes text to path unless the file already holds exactly
// that text. Leaving identical files alone keeps their mtime, so ndk-build
// does not recompile everything that includes them.
func writeIfDiff(path, text string) (bool, error) {
	orig, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(orig, []byte(text)) {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// compressXZ packs data as a single xz stream without an integrity check;
// the loader knows the exact payload size. The dictionary covers the whole
// input, which is what the highest xz presets amount to for small payloads.
func compressXZ(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	cfg := xz.WriterConfig{
		DictCap:    max(len(data), 4096),
		NoCheckSum: true,
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// binaryDump renders data, xz compressed, as a C++ byte array named varName.
func binaryDump(data []byte, varName string) (string, error) {
	packed, err := compressXZ(data)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(len(varName) + 40 + len(packed)*5 + len(packed)/16)
	fmt.Fprintf(&sb, "constexpr unsigned char %s[] = {", varName)
	for i, c := range packed {
		if i%16 == 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "0x%02X,", c)
	}
	sb.WriteString("\n};\n")
	return sb.String(), nil
}

// renderFlagHeader produces flags.h for the given config.
func renderFlagHeader(cfg Config) (string, error) {
	preamble, err := embeddedAssets.ReadFile("assets/flags.h.in")
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Write(preamble)
	fmt.Fprintf(&sb, "#define MAGISK_VERSION      \"%s\"\n", cfg.Version)
	fmt.Fprintf(&sb, "#define MAGISK_VER_CODE     %d\n", cfg.VersionCode)
	fmt.Fprintf(&sb, "#define MAGISK_DEBUG        %d\n", cfg.Profile.DebugFlag())
	return sb.String(), nil
}

// dumpFlagHeader regenerates native/out/generated/flags.h.
func dumpFlagHeader(cfg Config, layout Layout) (bool, error) {
	text, err := renderFlagHeader(cfg)
	if err != nil {
		return false, err
	}
	return writeIfDiff(layout.FlagHeader(), text)
}

// dumpBinaryHeaders embeds every ABI's preload library into
// <abi>_binaries.h. The libraries must already be in the output tree.
func dumpBinaryHeaders(layout Layout) error {
	for _, arch := range Archs {
		src := filepath.Join(layout.ArchOut(arch), preloadLib)
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("failed to read payload for %s: %w", arch.ABI, err)
		}
		text, err := binaryDump(data, preloadSymbol)
		if err != nil {
			return fmt.Errorf("failed to compress payload for %s: %w", arch.ABI, err)
		}
		if _, err := writeIfDiff(layout.PayloadHeader(arch), text); err != nil {
			return err
		}
	}
	return nil
}
