// Command crossval-agent runs the WiFi cross-validator agent off-target
// and provides a host console and protocol log viewer for it.
//
// Usage:
//
//	crossval-agent run [--config agent.yaml] [--listen addr] [--protocol-log file.clog]
//	crossval-agent host [--addr addr] [--endpoint n]
//	crossval-agent log view [flags] <file.clog>
//	crossval-agent log stats <file.clog>
package main

import (
	"fmt"
	"os"

	"github.com/mash-protocol/crossval-go/cmd/crossval-agent/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
