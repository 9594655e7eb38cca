package magiskbuild

import (
	"errors"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestLocateToolchainRequiresSDK(t *testing.T) {
	if _, err := LocateToolchain("", "linux-x86_64"); !errors.Is(err, ErrSDKNotSet) {
		t.Fatalf("err = %v, want ErrSDKNotSet", err)
	}
}

func TestLocateToolchainPaths(t *testing.T) {
	tc, err := LocateToolchain("/sdk", "darwin-x86_64")
	if err != nil {
		t.Fatalf("LocateToolchain: %v", err)
	}
	want := map[string]string{
		"NDKPath":  "/sdk/ndk/magisk",
		"NDKBuild": "/sdk/ndk/magisk/ndk-build",
		"RustBin":  "/sdk/ndk/magisk/toolchains/rust/bin",
		"LLVMBin":  "/sdk/ndk/magisk/toolchains/llvm/prebuilt/darwin-x86_64/bin",
		"Cargo":    "/sdk/ndk/magisk/toolchains/rust/bin/cargo",
	}
	got := map[string]string{
		"NDKPath":  tc.NDKPath,
		"NDKBuild": tc.NDKBuild,
		"RustBin":  tc.RustBin,
		"LLVMBin":  tc.LLVMBin,
		"Cargo":    tc.Cargo,
	}
	for k, v := range want {
		if got[k] != filepath.FromSlash(v) {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestVerify(t *testing.T) {
	sdk := t.TempDir()
	tc, _ := LocateToolchain(sdk, "linux-x86_64")

	if err := tc.Verify("r29.2"); !errors.Is(err, ErrToolchainMismatch) {
		t.Fatalf("missing ONDK: err = %v, want ErrToolchainMismatch", err)
	}

	writeFile(t, filepath.Join(tc.NDKPath, "ONDK_VERSION"), []byte("  r29.2\n\n"))
	if err := tc.Verify("r29.2"); err != nil {
		t.Errorf("Verify(r29.2) = %v", err)
	}
	err := tc.Verify("r29.3")
	if !errors.Is(err, ErrToolchainMismatch) {
		t.Fatalf("err = %v, want ErrToolchainMismatch", err)
	}
	if !strings.Contains(err.Error(), "upgrade") {
		t.Errorf("error %q does not tell the user to upgrade", err)
	}
}

func TestCargoEnv(t *testing.T) {
	tc, _ := LocateToolchain("/sdk", "linux-x86_64")
	base := []string{"PATH=/usr/bin", "HOME=/home/me", "RUSTFLAGS=-Cstale"}

	env := tc.CargoEnv(base, 32)
	wantPath := []string{tc.RustBin, tc.LLVMBin, "/usr/bin"}
	if got := filepath.SplitList(getEnv(env, "PATH")); !slices.Equal(got, wantPath) {
		t.Errorf("PATH = %q, want %q", got, wantPath)
	}
	if got := getEnv(env, "CARGO_BUILD_RUSTC"); got != tc.Rustc {
		t.Errorf("CARGO_BUILD_RUSTC = %q", got)
	}
	if got := getEnv(env, "RUSTFLAGS"); got != "-Clinker-plugin-lto -Zthreads=8" {
		t.Errorf("RUSTFLAGS = %q", got)
	}
	if got := getEnv(tc.CargoEnv(base, 2), "RUSTFLAGS"); got != "-Clinker-plugin-lto -Zthreads=2" {
		t.Errorf("RUSTFLAGS with 2 cpus = %q", got)
	}
	if getEnv(base, "RUSTFLAGS") != "-Cstale" {
		t.Error("CargoEnv modified its input")
	}
}

func fakeLookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestCompilerCacheEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin"}

	env := compilerCacheEnv(base, fakeLookPath())
	if getEnv(env, "NDK_CCACHE") != "" || getEnv(env, "RUSTC_WRAPPER") != "" {
		t.Errorf("no cache installed: env = %v", env)
	}

	env = compilerCacheEnv(base, fakeLookPath("sccache"))
	if getEnv(env, "RUSTC_WRAPPER") != "sccache" || getEnv(env, "NDK_CCACHE") != "sccache" || getEnv(env, "CARGO_INCREMENTAL") != "0" {
		t.Errorf("sccache: env = %v", env)
	}

	env = compilerCacheEnv(base, fakeLookPath("ccache"))
	if getEnv(env, "NDK_CCACHE") != "ccache" || getEnv(env, "RUSTC_WRAPPER") != "" {
		t.Errorf("ccache: env = %v", env)
	}

	// ccache takes over the C side when both are present
	env = compilerCacheEnv(base, fakeLookPath("sccache", "ccache"))
	if getEnv(env, "NDK_CCACHE") != "ccache" || getEnv(env, "RUSTC_WRAPPER") != "sccache" {
		t.Errorf("both: env = %v", env)
	}
}

func TestSetEnvReplaces(t *testing.T) {
	env := setEnv([]string{"A=1", "B=2"}, "A", "3")
	if len(env) != 2 || getEnv(env, "A") != "3" {
		t.Errorf("env = %v", env)
	}
}
