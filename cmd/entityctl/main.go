// Command entityctl inspects and edits the settings trees of a bot on disk.
//
// # Basic Usage
//
// Print the default main tree:
//
//	entityctl defaults main
//
// Check every stored tree:
//
//	entityctl validate --dir ./settings
//
// Apply an editor bundle and save it:
//
//	entityctl apply bundle.json
//
// # Environment Variables
//
// Every persistent flag can be set through the environment with the
// ENTITYCTL_ prefix:
//
//   - ENTITYCTL_DIR: settings directory (default: settings)
//   - ENTITYCTL_FORMAT: json or yaml, used for stored snapshots and output
//   - ENTITYCTL_LOG_LEVEL: zerolog level (default: info)
//   - ENTITYCTL_MODULES: comma separated module names to manage
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := buildRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
