package magiskbuild

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "libs", "x86", "magisk")
	dst := filepath.Join(dir, "out", "x86", "magisk")
	writeFile(t, src, []byte("new"))
	writeFile(t, dst, []byte("stale"))

	res, err := moveFile(src, dst)
	if err != nil {
		t.Fatalf("moveFile: %v", err)
	}
	if res != Relocated {
		t.Errorf("result = %v, want relocated", res)
	}
	if exists(src) {
		t.Error("source still present after move")
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "new" {
		t.Errorf("dst = %q, %v", got, err)
	}
}

func TestMoveFileAbsentSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out", "magisk")

	res, err := moveFile(filepath.Join(dir, "nope"), dst)
	if err != nil {
		t.Fatalf("moveFile: %v", err)
	}
	if res != SourceAbsent {
		t.Errorf("result = %v, want absent", res)
	}
	if exists(filepath.Dir(dst)) {
		t.Error("destination directory created for an absent source")
	}
}

func TestCopyFileKeepsMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tool")
	dst := filepath.Join(dir, "copy")
	writeFile(t, src, []byte("#!/bin/sh\n"))
	if err := os.Chmod(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v", info.Mode())
	}
}

func TestRemoveHelpersTolerateMissing(t *testing.T) {
	dir := t.TempDir()
	if err := removeFile(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("removeFile: %v", err)
	}
	if err := removeAll(filepath.Join(dir, "missing", "tree")); err != nil {
		t.Errorf("removeAll: %v", err)
	}
}

func TestRemoveAllReadOnlyTree(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "target")
	file := filepath.Join(tree, "release", "libmagisk.a")
	writeFile(t, file, []byte("ar"))
	if err := os.Chmod(file, 0o444); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filepath.Dir(file), 0o555); err != nil {
		t.Fatal(err)
	}

	if err := removeAll(tree); err != nil {
		t.Fatalf("removeAll: %v", err)
	}
	if exists(tree) {
		t.Error("read-only tree survived")
	}
}
