package main

import (
	"github.com/BioHazard786/Huddle/cli/cmd"
	"github.com/BioHazard786/Huddle/cli/internal/logging"
)

func main() {
	closeLog := logging.Init()
	defer closeLog()
	cmd.Execute()
}
