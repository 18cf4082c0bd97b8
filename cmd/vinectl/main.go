package main

import "os"

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes. A degraded run still exits zero: per-service failures are
// reported, not fatal. Only errors that stop the run entirely are non-zero.
const (
	ExitSuccess     = 0
	ExitFatal       = 1
	ExitConfigError = 2
)

func main() {
	os.Exit(Execute())
}
