package magiskbuild

import "strings"

// Arch is one Android ABI together with its clang compilation triple.
type Arch struct {
	ABI    string
	Triple string
}

// Archs is the fixed build matrix. ABI and triple live in one row so the
// two lists cannot get out of step.
var Archs = []Arch{
	{ABI: "armeabi-v7a", Triple: "armv7a-linux-androideabi"},
	{ABI: "x86", Triple: "i686-linux-android"},
	{ABI: "arm64-v8a", Triple: "aarch64-linux-android"},
	{ABI: "x86_64", Triple: "x86_64-linux-android"},
}

// RustTriple returns the triple cargo is invoked with. 32-bit ARM builds
// target thumbv7neon so NEON is always available.
func (a Arch) RustTriple() string {
	if strings.HasPrefix(a.Triple, "armv7") {
		return "thumbv7neon-linux-androideabi"
	}
	return a.Triple
}

// Profile selects release or debug output for every stage of one run.
type Profile int

const (
	ProfileDebug Profile = iota
	ProfileRelease
)

// String is also the cargo output directory name.
func (p Profile) String() string {
	if p == ProfileRelease {
		return "release"
	}
	return "debug"
}

// DebugFlag is the value written to MAGISK_DEBUG.
func (p Profile) DebugFlag() int {
	if p == ProfileRelease {
		return 0
	}
	return 1
}
