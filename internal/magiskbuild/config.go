package magiskbuild

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const (
	defaultVersionCode = 1000000
	defaultOutDir      = "out"
	gradlePropPrefix   = "magisk."
)

// Config is resolved once at startup and passed by value to every stage.
type Config struct {
	Root        string // project root; every relative path hangs off it
	ConfigPath  string
	Version     string
	VersionCode int
	OutDir      string
	OndkVersion string
	SDKRoot     string
	Profile     Profile
	Verbose     bool
	CPUs        int
}

// Options are the command line inputs LoadConfig needs.
type Options struct {
	Root       string
	ConfigPath string
	Release    bool
	Verbose    bool
}

// parseProps reads a java-style properties file. Lines that do not split
// into exactly one key and one non-empty value are ignored.
func parseProps(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	props := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			continue
		}
		val := strings.TrimSpace(parts[1])
		if val == "" {
			continue
		}
		props[strings.TrimSpace(parts[0])] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return props, nil
}

// LoadConfig layers defaults, the config file and magisk.* keys from
// gradle.properties, in that order.
func LoadConfig(opts Options) (Config, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return Config{}, err
	}

	rev, err := headCommit(root)
	if err != nil {
		// outside a checkout the version stays empty unless configured
		newLogger(opts.Verbose).debugf("=> %v\n", err)
	}
	values := map[string]string{
		"version":     rev,
		"versionCode": strconv.Itoa(defaultVersionCode),
		"outdir":      defaultOutDir,
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = "config.prop"
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(root, configPath)
	}
	props, err := parseProps(configPath)
	switch {
	case err == nil:
		maps.Copy(values, props)
	case !errors.Is(err, fs.ErrNotExist):
		return Config{}, err
	}

	gradle, err := parseProps(filepath.Join(root, "gradle.properties"))
	switch {
	case err == nil:
		for k, v := range gradle {
			if key, ok := strings.CutPrefix(k, gradlePropPrefix); ok {
				values[key] = v
			}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return Config{}, err
	}

	code, err := strconv.Atoi(values["versionCode"])
	if err != nil {
		return Config{}, fmt.Errorf("%w: \"versionCode\" is required to be an integer", ErrInvalidConfig)
	}

	outDir := values["outdir"]
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(root, outDir)
	}

	profile := ProfileDebug
	if opts.Release {
		profile = ProfileRelease
	}

	return Config{
		Root:        root,
		ConfigPath:  configPath,
		Version:     values["version"],
		VersionCode: code,
		OutDir:      outDir,
		OndkVersion: values["ondkVersion"],
		SDKRoot:     os.Getenv("ANDROID_SDK_ROOT"),
		Profile:     profile,
		Verbose:     opts.Verbose,
		CPUs:        runtime.NumCPU(),
	}, nil
}
