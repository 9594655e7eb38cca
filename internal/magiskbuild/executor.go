package magiskbuild

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Runner executes a prepared command and blocks until it exits.
type Runner interface {
	Run(cmd *exec.Cmd) error
}

// Executor runs external build tools in their own process group so a
// cancelled context takes down the whole compiler tree with them.
type Executor struct {
	logger
	Context     context.Context // The context to use for cancellation
	Interactive bool            // Interactive keeps the child in our process group (cargo passthrough)
}

func NewExecutor(ctx context.Context, verbose bool) *Executor {
	return &Executor{logger: newLogger(verbose), Context: ctx}
}

// Run executes the given command. Stdio defaults to the parent's.
func (e *Executor) Run(cmd *exec.Cmd) error {
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	finalCmd := exec.CommandContext(e.Context, cmd.Path, cmd.Args[1:]...)
	finalCmd.Dir = cmd.Dir

	// preserve or inherit the environment
	if len(cmd.Env) > 0 {
		finalCmd.Env = cmd.Env
	} else {
		finalCmd.Env = os.Environ()
	}

	finalCmd.Stdin = cmd.Stdin
	finalCmd.Stdout = cmd.Stdout
	finalCmd.Stderr = cmd.Stderr

	if !e.Interactive {
		finalCmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	e.debugf("   $ %s (in %s)\n", finalCmd.String(), finalCmd.Dir)
	if err := finalCmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}

	if !e.Interactive {
		pgid := finalCmd.Process.Pid

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-e.Context.Done():
				syscall.Kill(-pgid, syscall.SIGKILL)
			case <-done:
			}
		}()
	}

	if waitErr := finalCmd.Wait(); waitErr != nil {
		if e.Context.Err() != nil {
			time.Sleep(100 * time.Millisecond)
			return fmt.Errorf("command aborted: %w", e.Context.Err())
		}
		return waitErr
	}
	return nil
}

// BuildError reports an external build step that exited unsuccessfully.
type BuildError struct {
	Step string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
