package magiskbuild

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	root    string
	config  string
	release bool
	verbose bool
}

// app carries what every subcommand needs once the root command has
// resolved the configuration.
type app struct {
	opts globalOptions
	cfg  Config
	exec *Executor
	// runner replaces exec for external tools when set
	runner Runner
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := LoadConfig(Options{
		Root:       a.opts.root,
		ConfigPath: a.opts.config,
		Release:    a.opts.release,
		Verbose:    a.opts.verbose,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.exec = NewExecutor(cmd.Context(), cfg.Verbose)
	a.exec.debugf("=> root=%s version=%q code=%d profile=%s\n", cfg.Root, cfg.Version, cfg.VersionCode, cfg.Profile)
	return nil
}

func (a *app) pipeline(withToolchain bool) (*Pipeline, error) {
	var tc *Toolchain
	if withToolchain {
		var err error
		if tc, err = LocateToolchain(a.cfg.SDKRoot, hostTag()); err != nil {
			return nil, err
		}
	}
	var runner Runner = a.exec
	if a.runner != nil {
		runner = a.runner
	}
	return NewPipeline(a.cfg, tc, runner), nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "magiskbuild",
		Short: "Magisk native build orchestrator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&a.opts.release, "release", "r", false, "compile in release mode")
	root.PersistentFlags().BoolVarP(&a.opts.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVarP(&a.opts.config, "config", "c", "config.prop", "custom config file")
	root.PersistentFlags().StringVarP(&a.opts.root, "root", "C", ".", "project root directory")

	root.AddCommand(
		newBinaryCmd(a),
		newCleanCmd(a),
		newCargoCmd(a),
		newBundleCmd(a),
		newLogCmd(a),
		newVersionCmd(),
	)
	return root
}

type binaryCommand struct {
	targets []string
}

func newBinaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "binary [target...]",
		Short: "build binaries",
		Long: fmt.Sprintf("Targets: %s, or empty for defaults (%s)",
			NewTargetSet(supportTargets...), NewTargetSet(defaultTargets...)),
		RunE: func(cmd *cobra.Command, args []string) error {
			bc := binaryCommand{targets: args}
			p, err := a.pipeline(true)
			if err != nil {
				return err
			}
			return p.BuildBinary(cmd.Context(), bc.targets)
		},
	}
}

type cleanCommand struct {
	scopes []string
}

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [scope...]",
		Short: "cleanup",
		Long:  "Scopes: native, cpp, rust, java, or empty to clean all",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := cleanCommand{scopes: args}
			p, err := a.pipeline(false)
			if err != nil {
				return err
			}
			return p.Clean(cc.scopes)
		},
	}
}

type cargoCommand struct {
	args []string
}

func newCargoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cargo [-- args...]",
		Short: "run cargo with proper environment",
		Long:  "Arguments after -- are passed to cargo untouched",
		RunE: func(cmd *cobra.Command, args []string) error {
			// pflag drops the "--" itself and stops parsing there
			cc := cargoCommand{args: args}
			p, err := a.pipeline(true)
			if err != nil {
				return err
			}
			a.exec.Interactive = true
			return p.RunCargo(cc.args)
		},
	}
}

func newBundleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bundle",
		Short: "pack native outputs into a tarball",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline(false)
			if err != nil {
				return err
			}
			_, err = p.Bundle()
			return err
		},
	}
}

type logCommand struct {
	name string
}

func newLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log [name]",
		Short: "list or show captured build logs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var lc logCommand
			if len(args) == 1 {
				lc.name = args[0]
			}
			dir := Layout{Root: a.cfg.Root}.LogDir()
			if lc.name == "" {
				entries, err := os.ReadDir(dir)
				if errors.Is(err, fs.ErrNotExist) {
					colInfo.Println("No build logs captured yet.")
					return nil
				}
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Println(strings.TrimSuffix(e.Name(), ".log.zst"))
				}
				return nil
			}
			name := lc.name
			if !strings.HasSuffix(name, ".log.zst") {
				name += ".log.zst"
			}
			data, err := readBuildLog(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			colNote.Printf("magiskbuild %s (built %s)\n", version, buildDate)
			return nil
		},
	}
}

// Main is the CLI entrypoint for cmd/magiskbuild.
func Main() {
	setupColor()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			colArrow.Print("\n-> ")
			color.Danger.Printf("Received %v. Cancelling build\n", sig)
			cancel()
			select {
			case <-sigs:
				colArrow.Print("\n-> ")
				color.Danger.Println("Second interrupt received. Forcing immediate exit.")
				os.Exit(130)
			case <-time.After(2 * time.Second):
				os.Exit(130)
			}
		case <-ctx.Done():
		}
	}()

	if err := newRootCmd(&app{}).ExecuteContext(ctx); err != nil {
		fatal(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
