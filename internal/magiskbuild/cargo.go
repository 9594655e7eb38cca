package magiskbuild

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

func (p *Pipeline) cargoCmd(args ...string) *exec.Cmd {
	cmd := exec.Command(p.tc.Cargo, args...)
	cmd.Dir = p.layout.NativeSrc()
	cmd.Env = p.tc.CargoEnv(p.env, p.cfg.CPUs)
	return cmd
}

// buildManaged compiles each cargo crate for every ABI and moves the static
// libraries to native/out/<abi>/lib<crate>-rs.a.
func (p *Pipeline) buildManaged(targets TargetSet) error {
	if len(targets) == 0 {
		return nil
	}
	if err := os.MkdirAll(p.layout.NativeOut(), 0o755); err != nil {
		return err
	}

	crates := targets.Sorted()
	for _, arch := range Archs {
		for _, t := range crates {
			args := []string{"build", "-p", string(t)}
			if p.cfg.Profile == ProfileRelease {
				args = append(args, "-r")
			}
			if !p.cfg.Verbose {
				args = append(args, "-q")
			}
			args = append(args, "--target", arch.RustTriple())
			if err := p.run(fmt.Sprintf("cargo %s %s", t, arch.ABI), p.cargoCmd(args...)); err != nil {
				return err
			}
		}

		for _, t := range crates {
			src := filepath.Join(p.layout.CargoOut(arch, p.cfg.Profile), "lib"+string(t)+".a")
			dst := filepath.Join(p.layout.ArchOut(arch), "lib"+string(t)+"-rs.a")
			if err := p.relocate(src, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunCargo runs cargo with the toolchain environment in native/src,
// attached to the terminal.
func (p *Pipeline) RunCargo(args []string) error {
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	cmd := p.cargoCmd(args...)
	cmd.Stdout = os.Stdout
	if err := p.runner.Run(cmd); err != nil {
		return &BuildError{Step: "cargo", Err: err}
	}
	return nil
}
