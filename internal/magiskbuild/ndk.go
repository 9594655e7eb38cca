package magiskbuild

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// NDKFlags selects which Android.mk modules one ndk-build pass compiles.
type NDKFlags struct {
	Magisk  bool
	Policy  bool
	Preload bool
	Prop    bool
	Init    bool
	Boot    bool
	CRT0    bool
	BusyBox bool
}

// Args renders the enabled flags as make variable assignments.
func (f NDKFlags) Args() []string {
	var args []string
	for _, fl := range []struct {
		on   bool
		name string
	}{
		{f.Magisk, "B_MAGISK"},
		{f.Policy, "B_POLICY"},
		{f.Preload, "B_PRELOAD"},
		{f.Prop, "B_PROP"},
		{f.Init, "B_INIT"},
		{f.Boot, "B_BOOT"},
		{f.CRT0, "B_CRT0"},
		{f.BusyBox, "B_BB"},
	} {
		if fl.on {
			args = append(args, fl.name+"=1")
		}
	}
	return args
}

func (f NDKFlags) Any() bool { return len(f.Args()) > 0 }

// ndkOutputs are the files swept from native/libs after every pass.
func ndkOutputs() []string {
	names := make([]string, 0, len(supportTargets)+1)
	for _, t := range supportTargets {
		names = append(names, string(t))
	}
	return append(names, preloadLib)
}

// runNDKBuild runs one ndk-build pass and moves its binaries into the
// canonical output tree.
func (p *Pipeline) runNDKBuild(flags NDKFlags) error {
	args := []string{"NDK_PROJECT_PATH=.", "NDK_APPLICATION_MK=src/Application.mk"}
	args = append(args, flags.Args()...)
	args = append(args, fmt.Sprintf("-j%d", p.cfg.CPUs))

	cmd := exec.Command(p.tc.NDKBuild, args...)
	cmd.Dir = p.layout.Native()
	cmd.Env = p.env
	if err := p.run("ndk-build "+strings.Join(flags.Args(), " "), cmd); err != nil {
		return err
	}
	return p.relocateNDKOutputs()
}

// relocateNDKOutputs sweeps every known output name for every ABI,
// whether or not the last pass was asked to build it.
func (p *Pipeline) relocateNDKOutputs() error {
	for _, arch := range Archs {
		for _, name := range ndkOutputs() {
			src := filepath.Join(p.layout.ArchLibs(arch), name)
			dst := filepath.Join(p.layout.ArchOut(arch), name)
			if err := p.relocate(src, dst); err != nil {
				return err
			}
		}
	}
	return nil
}
