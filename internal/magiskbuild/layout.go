package magiskbuild

import "path/filepath"

// Layout is the on-disk shape of the project tree the pipeline works on.
type Layout struct {
	Root string
}

func (l Layout) Native() string      { return filepath.Join(l.Root, "native") }
func (l Layout) NativeSrc() string   { return filepath.Join(l.Root, "native", "src") }
func (l Layout) NativeOut() string   { return filepath.Join(l.Root, "native", "out") }
func (l Layout) NativeLibs() string  { return filepath.Join(l.Root, "native", "libs") }
func (l Layout) NativeObj() string   { return filepath.Join(l.Root, "native", "obj") }
func (l Layout) Generated() string   { return filepath.Join(l.NativeOut(), "generated") }
func (l Layout) LogDir() string      { return filepath.Join(l.NativeOut(), "logs") }
func (l Layout) CargoTarget() string { return filepath.Join(l.NativeSrc(), "target") }
func (l Layout) ElfCleaner() string  { return filepath.Join(l.NativeOut(), "elf-cleaner") }
func (l Layout) Gradlew() string     { return filepath.Join(l.Root, "gradlew") }

// ArchOut is the canonical output directory for one ABI.
func (l Layout) ArchOut(a Arch) string { return filepath.Join(l.NativeOut(), a.ABI) }

// ArchLibs is where ndk-build leaves the linked binaries for one ABI.
func (l Layout) ArchLibs(a Arch) string { return filepath.Join(l.NativeLibs(), a.ABI) }

// CargoOut is cargo's default output directory for one ABI and profile.
func (l Layout) CargoOut(a Arch, p Profile) string {
	return filepath.Join(l.CargoTarget(), a.RustTriple(), p.String())
}

func (l Layout) FlagHeader() string { return filepath.Join(l.Generated(), "flags.h") }

func (l Layout) PayloadHeader(a Arch) string {
	return filepath.Join(l.Generated(), a.ABI+"_binaries.h")
}
