package magiskbuild

import (
	"errors"
	"io"
	"io/fs"
	"os/exec"
	"path/filepath"
	"slices"
)

// CleanScope names one group of build outputs.
type CleanScope string

const (
	CleanCpp    CleanScope = "cpp"    // ndk-build outputs
	CleanRust   CleanScope = "rust"   // cargo outputs and generated bindings
	CleanJava   CleanScope = "java"   // gradle outputs
	CleanNative CleanScope = "native" // cpp + rust
)

var cleanScopes = []CleanScope{CleanCpp, CleanRust, CleanJava}

// generated by cxx bridges next to their sources
const rustBindingPattern = "*-rs.*pp"

// ResolveCleanScopes filters requested names to known scopes. No names
// means everything; "native" expands to cpp and rust.
func ResolveCleanScopes(requested []string) map[CleanScope]bool {
	scopes := make(map[CleanScope]bool)
	if len(requested) == 0 {
		for _, s := range cleanScopes {
			scopes[s] = true
		}
		return scopes
	}
	for _, name := range requested {
		s := CleanScope(name)
		switch {
		case s == CleanNative:
			scopes[CleanCpp] = true
			scopes[CleanRust] = true
		case slices.Contains(cleanScopes, s):
			scopes[s] = true
		}
	}
	return scopes
}

// Clean removes build outputs for the requested scopes. Running it on an
// already clean tree is a no-op.
func (p *Pipeline) Clean(requested []string) error {
	scopes := ResolveCleanScopes(requested)
	l := p.layout

	if scopes[CleanCpp] {
		header("* Cleaning C++")
		for _, dir := range []string{l.NativeLibs(), l.NativeObj(), l.NativeOut()} {
			if err := removeAll(dir); err != nil {
				return err
			}
		}
	}

	if scopes[CleanRust] {
		header("* Cleaning Rust")
		if err := removeAll(l.CargoTarget()); err != nil {
			return err
		}
		proto := filepath.Join(l.NativeSrc(), "boot", "proto")
		for _, f := range []string{"mod.rs", "update_metadata.rs"} {
			if err := removeFile(filepath.Join(proto, f)); err != nil {
				return err
			}
		}
		if err := removeRustBindings(l.Native()); err != nil {
			return err
		}
	}

	if scopes[CleanJava] {
		header("* Cleaning java")
		env, err := jdkEnv(p.env, p.runner)
		if err != nil {
			return err
		}
		cmd := exec.Command(l.Gradlew(), "app:clean", "app:shared:clean", "stub:clean")
		cmd.Dir = l.Root
		cmd.Env = env
		if !p.cfg.Verbose {
			// a log would land in native/out, which is what we just removed
			cmd.Stdout = io.Discard
		}
		if err := p.run("gradle clean", cmd); err != nil {
			return err
		}
		for _, dir := range []string{"debug", "release"} {
			if err := removeAll(filepath.Join(l.Root, "app", "src", dir)); err != nil {
				return err
			}
		}
	}
	return nil
}

func removeRustBindings(root string) error {
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(rustBindingPattern, d.Name()); ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := removeFile(m); err != nil {
			return err
		}
	}
	return nil
}
