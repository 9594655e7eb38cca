package magiskbuild

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Toolchain holds the resolved paths of the ONDK installation under an
// Android SDK root.
type Toolchain struct {
	SDKRoot  string
	NDKPath  string
	NDKBuild string
	RustBin  string
	LLVMBin  string
	Cargo    string
	Rustc    string
}

// hostTag returns the NDK prebuilt directory suffix for this machine, e.g. "linux-x86_64".
func hostTag() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "linux-x86_64"
	}
	sysname := strings.ToLower(unix.ByteSliceToString(uts.Sysname[:]))
	return sysname + "-x86_64"
}

// LocateToolchain derives every toolchain path from the SDK root. It does
// not touch the filesystem; Verify does.
func LocateToolchain(sdkRoot, host string) (*Toolchain, error) {
	if sdkRoot == "" {
		return nil, fmt.Errorf("%w: please set the Android SDK path in ANDROID_SDK_ROOT", ErrSDKNotSet)
	}
	ndk := filepath.Join(sdkRoot, "ndk", "magisk")
	rustBin := filepath.Join(ndk, "toolchains", "rust", "bin")
	return &Toolchain{
		SDKRoot:  sdkRoot,
		NDKPath:  ndk,
		NDKBuild: filepath.Join(ndk, "ndk-build"),
		RustBin:  rustBin,
		LLVMBin:  filepath.Join(ndk, "toolchains", "llvm", "prebuilt", host, "bin"),
		Cargo:    filepath.Join(rustBin, "cargo"),
		Rustc:    filepath.Join(rustBin, "rustc"),
	}, nil
}

// Verify checks that the installed ONDK is exactly the expected version.
func (t *Toolchain) Verify(expected string) error {
	data, err := os.ReadFile(filepath.Join(t.NDKPath, "ONDK_VERSION"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: no ONDK found at %s, please install ONDK %s", ErrToolchainMismatch, t.NDKPath, expected)
		}
		return fmt.Errorf("%w: %v", ErrToolchainMismatch, err)
	}
	installed := string(bytes.TrimSpace(data))
	if expected == "" || installed != expected {
		return fmt.Errorf("%w: installed %q, expected %q, please install/upgrade ONDK", ErrToolchainMismatch, installed, expected)
	}
	return nil
}

// setEnv replaces or appends key in a KEY=VALUE environment list.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return append(out, prefix+value)
}

func getEnv(env []string, key string) string {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(env[i], prefix); ok {
			return v
		}
	}
	return ""
}

// CargoEnv augments base with the rust toolchain for cargo invocations.
// The llvm bin dir is on PATH too: build scripts using the cc crate look
// up the NDK's <triple>-clang wrappers there.
func (t *Toolchain) CargoEnv(base []string, cpus int) []string {
	path := strings.Join([]string{t.RustBin, t.LLVMBin, getEnv(base, "PATH")}, string(os.PathListSeparator))
	env := setEnv(base, "PATH", path)
	env = setEnv(env, "CARGO_BUILD_RUSTC", t.Rustc)
	env = setEnv(env, "RUSTFLAGS", fmt.Sprintf("-Clinker-plugin-lto -Zthreads=%d", min(8, cpus)))
	return env
}

// compilerCacheEnv wires sccache and/or ccache into both build families.
// With both installed, rust goes through sccache and ndk-build through ccache.
func compilerCacheEnv(base []string, lookPath func(string) (string, error)) []string {
	env := base
	if _, err := lookPath("sccache"); err == nil {
		env = setEnv(env, "RUSTC_WRAPPER", "sccache")
		env = setEnv(env, "NDK_CCACHE", "sccache")
		env = setEnv(env, "CARGO_INCREMENTAL", "0")
	}
	if _, err := lookPath("ccache"); err == nil {
		env = setEnv(env, "NDK_CCACHE", "ccache")
	}
	return env
}
