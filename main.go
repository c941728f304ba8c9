package main

import (
	"github.com/sidkik/monorepo-agent/cmd"
	"github.com/sidkik/monorepo-agent/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
