package main

import (
	"github.com/robotalks/chimu.go/pkg/cli/sh"
	"github.com/robotalks/chimu.go/pkg/env"

	_ "github.com/robotalks/chimu.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
