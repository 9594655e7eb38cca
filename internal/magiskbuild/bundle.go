package magiskbuild

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"
)

func bundleName(cfg Config) string {
	v := cfg.Version
	if v == "" {
		v = "unknown"
	}
	return fmt.Sprintf("native-%s-%s.tar.gz", v, cfg.Profile)
}

// Bundle packs the per-ABI output directories and the artifact manifest
// into <outdir>/native-<version>-<profile>.tar.gz.
func (p *Pipeline) Bundle() (string, error) {
	if err := os.MkdirAll(p.cfg.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if _, err := writeManifest(p.layout); err != nil {
		return "", err
	}

	dest := filepath.Join(p.cfg.OutDir, bundleName(p.cfg))
	tmp := dest + ".tmp"
	outFile, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create bundle: %w", err)
	}
	defer os.Remove(tmp)

	gz := pgzip.NewWriter(outFile)
	tw := tar.NewWriter(gz)

	files := []string{manifestName}
	for _, arch := range Archs {
		entries, err := os.ReadDir(p.layout.ArchOut(arch))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			outFile.Close()
			return "", err
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				files = append(files, filepath.Join(arch.ABI, e.Name()))
			}
		}
	}

	for _, rel := range files {
		if err := addTarFile(tw, filepath.Join(p.layout.NativeOut(), rel), filepath.ToSlash(rel)); err != nil {
			outFile.Close()
			return "", fmt.Errorf("failed to add %s: %w", rel, err)
		}
	}

	if err := tw.Close(); err != nil {
		outFile.Close()
		return "", err
	}
	if err := gz.Close(); err != nil {
		outFile.Close()
		return "", err
	}
	if err := outFile.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", err
	}
	step("Bundled %d files into %s", len(files), dest)
	return dest, nil
}

func addTarFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
