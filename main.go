package main

import (
	"github.com/martin/scriptctl/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit)
	cmd.Execute()
}
