package magiskbuild

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const testOndkVersion = "r29.2"

type call struct {
	name string
	args []string
	dir  string
	env  []string
}

func (c call) has(arg string) bool { return slices.Contains(c.args, arg) }

// fakeRunner records commands instead of running them. hook, when set,
// plays the part of the external tool.
type fakeRunner struct {
	calls []call
	hook  func(cmd *exec.Cmd) error
}

func (f *fakeRunner) Run(cmd *exec.Cmd) error {
	f.calls = append(f.calls, call{
		name: filepath.Base(cmd.Path),
		args: slices.Clone(cmd.Args[1:]),
		dir:  cmd.Dir,
		env:  cmd.Env,
	})
	if f.hook != nil {
		return f.hook(cmd)
	}
	return nil
}

func (f *fakeRunner) named(name string) []call {
	var out []call
	for _, c := range f.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// ndkProducts maps ndk-build flags to the binaries the pass links.
var ndkProducts = map[string]string{
	"B_MAGISK=1":  "magisk",
	"B_POLICY=1":  "magiskpolicy",
	"B_PRELOAD=1": preloadLib,
	"B_PROP=1":    "resetprop",
	"B_INIT=1":    "magiskinit",
	"B_BOOT=1":    "magiskboot",
	"B_BB=1":      "busybox",
}

// simulateTools returns a hook that creates the outputs cargo, ndk-build
// and gcc would create, and enforces the ordering the real tools rely on.
func simulateTools(t *testing.T, layout Layout, profile Profile) func(cmd *exec.Cmd) error {
	return func(cmd *exec.Cmd) error {
		args := cmd.Args[1:]
		switch filepath.Base(cmd.Path) {
		case "cargo":
			crate := argValue(args, "-p")
			triple := argValue(args, "--target")
			out := filepath.Join(layout.CargoTarget(), triple, profile.String(), "lib"+crate+".a")
			writeFile(t, out, []byte("ar "+crate+" "+triple))
		case "ndk-build":
			if slices.Contains(args, "B_PRELOAD=1") && !exists(layout.FlagHeader()) {
				return fmt.Errorf("flags.h missing")
			}
			if slices.Contains(args, "B_INIT=1") {
				for _, arch := range Archs {
					if !exists(layout.PayloadHeader(arch)) {
						return fmt.Errorf("%s missing", layout.PayloadHeader(arch))
					}
				}
			}
			for _, a := range args {
				name, ok := ndkProducts[a]
				if !ok {
					continue
				}
				for _, arch := range Archs {
					writeFile(t, filepath.Join(layout.ArchLibs(arch), name), []byte(name+" for "+arch.ABI+strings.Repeat("\x00\x7fELF", 64)))
				}
			}
		case "gcc":
			writeFile(t, argValue(args, "-o"), []byte("elf-cleaner"))
		}
		return nil
	}
}

type testEnv struct {
	root   string
	sdk    string
	layout Layout
	runner *fakeRunner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	sdk := filepath.Join(t.TempDir(), "sdk")
	writeFile(t, filepath.Join(sdk, "ndk", "magisk", "ONDK_VERSION"), []byte(testOndkVersion+"\n"))
	return &testEnv{
		root:   root,
		sdk:    sdk,
		layout: Layout{Root: root},
		runner: &fakeRunner{},
	}
}

func (e *testEnv) config(profile Profile) Config {
	return Config{
		Root:        e.root,
		Version:     "27.0-test",
		VersionCode: 27000,
		OutDir:      filepath.Join(e.root, "out"),
		OndkVersion: testOndkVersion,
		SDKRoot:     e.sdk,
		Profile:     profile,
		CPUs:        4,
	}
}

func (e *testEnv) pipeline(t *testing.T, profile Profile) *Pipeline {
	t.Helper()
	tc, err := LocateToolchain(e.sdk, "linux-x86_64")
	if err != nil {
		t.Fatalf("LocateToolchain: %v", err)
	}
	if e.runner.hook == nil {
		e.runner.hook = simulateTools(t, e.layout, profile)
	}
	return NewPipeline(e.config(profile), tc, e.runner)
}
