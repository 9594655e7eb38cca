package magiskbuild

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestExecutorReportsExitCode(t *testing.T) {
	e := NewExecutor(context.Background(), false)
	var out bytes.Buffer
	cmd := exec.Command("sh", "-c", "echo building; exit 3")
	cmd.Stdout = &out

	err := e.Run(cmd)
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *exec.ExitError", err)
	}
	if exitErr.ExitCode() != 3 {
		t.Errorf("exit code = %d, want 3", exitErr.ExitCode())
	}
	if out.String() != "building\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestExecutorPassesEnvAndDir(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cmd := exec.Command("sh", "-c", `printf '%s %s' "$MAGISK_TEST" "$(pwd -P)"`)
	cmd.Dir = dir
	cmd.Env = []string{"MAGISK_TEST=yes", "PATH=/usr/bin:/bin"}
	cmd.Stdout = &out

	if err := NewExecutor(context.Background(), false).Run(cmd); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "yes "+dir {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestExecutorKillsProcessGroupOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := NewExecutor(ctx, false)

	// the background sleep holds the stdout pipe open; Run only returns
	// once the whole group is gone
	var out bytes.Buffer
	cmd := exec.Command("sh", "-c", "sleep 30 & wait")
	cmd.Stdout = &out

	time.AfterFunc(200*time.Millisecond, cancel)
	start := time.Now()
	err := e.Run(cmd)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Run took %v after cancel", elapsed)
	}
}
