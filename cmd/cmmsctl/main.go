// Command cmmsctl runs maintenance schedules and inspects work orders from
// the terminal or an external scheduler.
package main

import (
	"os"

	"cmms-engine/cmd/cmmsctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
