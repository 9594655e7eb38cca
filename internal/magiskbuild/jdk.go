package magiskbuild

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// lookPathIn is exec.LookPath against an explicit PATH value.
func lookPathIn(name, pathList string) (string, error) {
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
			return p, nil
		}
	}
	return "", exec.ErrNotFound
}

// jdkEnv returns base with Android Studio's bundled JBR put first on PATH
// (when ANDROID_STUDIO points at an install) and checks javac works.
func jdkEnv(base []string, runner Runner) ([]string, error) {
	env := base
	if studio := getEnv(base, "ANDROID_STUDIO"); studio != "" {
		jbr := filepath.Join(studio, "jbr", "bin")
		if _, err := os.Stat(jbr); err != nil {
			jbr = filepath.Join(studio, "Contents", "jbr", "Contents", "Home", "bin")
		}
		if _, err := os.Stat(jbr); err == nil {
			env = setEnv(env, "PATH", jbr+string(os.PathListSeparator)+getEnv(base, "PATH"))
		}
	}

	javac, err := lookPathIn("javac", getEnv(env, "PATH"))
	if err == nil {
		cmd := exec.Command(javac, "-version")
		cmd.Env = env
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
		err = runner.Run(cmd)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: set ANDROID_STUDIO to Android Studio's path,\nor install JDK 17 and make sure 'javac' is available in PATH", ErrJDKNotFound)
	}
	return env, nil
}
