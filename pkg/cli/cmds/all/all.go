// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/chimu.go/pkg/cli/cmds/capture"
	_ "github.com/robotalks/chimu.go/pkg/cli/cmds/frame"
)
