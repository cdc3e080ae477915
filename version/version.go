package version

import (
	"fmt"
	"runtime"
)

// Replaced at build time with -ldflags "-X github.com/projecteru2/easydoc/version.VERSION=...".
var (
	NAME     = "easydoc"
	VERSION  = "unknown"
	REVISION = "HEAD"
	BUILTAT  = "now"
)

// String returns the version banner printed by the version command.
func String() string {
	return fmt.Sprintf("Version:        %s\nGit hash:       %s\nBuilt:          %s\nGolang version: %s\nOS/Arch:        %s/%s\n",
		VERSION, REVISION, BUILTAT, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
