package magiskbuild

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
)

const elfCleanerAPILevel = "23"

// elfCleanTargets are the binaries whose dynamic sections are cleaned.
var elfCleanTargets = []Target{TargetMagisk, TargetPolicy}

// ensureElfCleaner builds termux-elf-cleaner from tools/ the first time it
// is needed. The binary in native/out is reused until the tree is cleaned.
func (p *Pipeline) ensureElfCleaner() (string, error) {
	bin := p.layout.ElfCleaner()
	if _, err := os.Stat(bin); err == nil {
		return bin, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	step("Building elf-cleaner")
	if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
		return "", err
	}
	src := filepath.Join(p.layout.Root, "tools", "termux-elf-cleaner")
	cmd := exec.Command("gcc",
		`-DPACKAGE_NAME="termux-elf-cleaner"`,
		`-DPACKAGE_VERSION="2.1.1"`,
		`-DCOPYRIGHT="Copyright (C) 2022 Termux."`,
		filepath.Join(src, "elf-cleaner.cpp"),
		filepath.Join(src, "arghandling.c"),
		"-o", bin,
	)
	cmd.Dir = p.layout.Root
	cmd.Env = p.env
	if err := p.run("build elf-cleaner", cmd); err != nil {
		return "", err
	}
	return bin, nil
}

// cleanElf runs elf-cleaner once over every (ABI, binary) pair.
func (p *Pipeline) cleanElf() error {
	bin, err := p.ensureElfCleaner()
	if err != nil {
		return err
	}

	args := []string{"--api-level", elfCleanerAPILevel}
	for _, arch := range Archs {
		for _, t := range elfCleanTargets {
			args = append(args, filepath.Join(p.layout.ArchOut(arch), string(t)))
		}
	}
	step("Cleaning ELF metadata")
	cmd := exec.Command(bin, args...)
	cmd.Dir = p.layout.Root
	cmd.Env = p.env
	if err := p.run("elf-cleaner", cmd); err != nil {
		return fmt.Errorf("post-processing binaries: %w", err)
	}
	return nil
}
