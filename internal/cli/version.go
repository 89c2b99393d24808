package cli

import (
	"fmt"
	"runtime"

	"github.com/teamcutter/simple-extract/internal/version"
)

func versionString() string {
	return fmt.Sprintf("simple-extract-%s-%s/%s", version.Version, runtime.GOOS, runtime.GOARCH)
}
