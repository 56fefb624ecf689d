package main

import "github.com/chinazhenzhen/Storm-Bringer/apps/cli/cmd"

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cmd.Execute(version, buildTime)
}
