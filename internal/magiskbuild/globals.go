package magiskbuild

import (
	"embed"
	"errors"

	"github.com/gookit/color"
)

// Global variables
var (
	version   = "dev"     // default version; overridden at build time
	buildDate = "unknown" // overridden at build time
	//go:embed assets/flags.h.in
	embeddedAssets embed.FS
)

var (
	ErrSDKNotSet         = errors.New("ANDROID_SDK_ROOT is not set")
	ErrToolchainMismatch = errors.New("unmatched NDK")
	ErrJDKNotFound       = errors.New("no usable JDK found")
	ErrInvalidConfig     = errors.New("config error")
)

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
	colNote    = color.Tag("notice")
	colHeader  = color.New(color.FgWhite, color.BgBlue)
	colFatal   = color.New(color.FgWhite, color.BgRed)
)
