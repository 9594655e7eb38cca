package magiskbuild

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Relocation records one attempted artifact move.
type Relocation struct {
	Src    string
	Dst    string
	Result MoveResult
}

// Pipeline sequences the native build. Steps run strictly one after the
// other; only the external build tools run in parallel internally.
type Pipeline struct {
	logger
	cfg    Config
	layout Layout
	tc     *Toolchain
	runner Runner
	env    []string
	logSeq int

	Relocations []Relocation
}

// NewPipeline wires a pipeline. tc may be nil for commands that never
// invoke the NDK (clean).
func NewPipeline(cfg Config, tc *Toolchain, runner Runner) *Pipeline {
	return &Pipeline{
		logger: newLogger(cfg.Verbose),
		cfg:    cfg,
		layout: Layout{Root: cfg.Root},
		tc:     tc,
		runner: runner,
		env:    compilerCacheEnv(os.Environ(), exec.LookPath),
	}
}

// run executes one external step. Without --verbose its stdout goes to a
// compressed log under native/out/logs instead of the terminal.
func (p *Pipeline) run(name string, cmd *exec.Cmd) (err error) {
	if !p.cfg.Verbose && cmd.Stdout == nil {
		p.logSeq++
		log, lerr := openBuildLog(p.layout.LogDir(), p.logSeq, name)
		if lerr != nil {
			return lerr
		}
		cmd.Stdout = log
		defer func() {
			if cerr := log.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to finish log %s: %w", log.path, cerr)
			}
		}()
	}
	if rerr := p.runner.Run(cmd); rerr != nil {
		return &BuildError{Step: name, Err: rerr}
	}
	return nil
}

func (p *Pipeline) relocate(src, dst string) error {
	res, err := moveFile(src, dst)
	if err != nil {
		return err
	}
	if res == Relocated {
		p.debugf("mv %s -> %s\n", src, dst)
	}
	p.Relocations = append(p.Relocations, Relocation{Src: src, Dst: dst, Result: res})
	return nil
}

// BuildBinary builds the requested native targets for all ABIs.
func (p *Pipeline) BuildBinary(ctx context.Context, requested []string) error {
	if err := p.tc.Verify(p.cfg.OndkVersion); err != nil {
		return err
	}

	sel := SelectTargets(requested)
	if sel.Empty() {
		colArrow.Print("-> ")
		cPrintf(colWarn, "No supported targets in %v, nothing to build\n", requested)
		return nil
	}
	header("* Building binaries: " + sel.Targets.String())

	// step numbers restart every run
	if err := removeAll(p.layout.LogDir()); err != nil {
		return fmt.Errorf("failed to clear build logs: %w", err)
	}

	if err := os.MkdirAll(p.cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := p.buildManaged(sel.Managed); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := dumpFlagHeader(p.cfg, p.layout); err != nil {
		return err
	}

	has := sel.Targets.Has
	first := NDKFlags{
		Magisk:  has(TargetMagisk),
		Policy:  has(TargetPolicy),
		Preload: has(TargetInit),
		Prop:    has(TargetResetprop),
	}
	if first.Any() {
		if err := p.runNDKBuild(first); err != nil {
			return err
		}
	}

	second := NDKFlags{
		Init: has(TargetInit),
		Boot: has(TargetBoot),
	}
	if second.Init {
		// magiskinit embeds the preload library built by the first pass
		if err := dumpBinaryHeaders(p.layout); err != nil {
			return err
		}
		p.debugf("=> Payload headers in %s\n", p.layout.Generated())
	}
	if second.Any() {
		second.CRT0 = true
		if err := p.runNDKBuild(second); err != nil {
			return err
		}
	}

	if has(TargetMagisk) || has(TargetPolicy) {
		if err := p.cleanElf(); err != nil {
			return err
		}
	}

	// BusyBox is built with a different API level
	if has(TargetBusyBox) {
		if err := p.runNDKBuild(NDKFlags{BusyBox: true}); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := writeManifest(p.layout)
	if err != nil {
		return err
	}
	step("Built %d artifacts into %s", n, p.layout.NativeOut())
	return nil
}
