// Command scardctl is a demo/diagnostic CLI over the core: list
// readers, connect, select a path, and dump file metadata and
// application directory entries (grounded on 1ph-sim_reader's cobra
// command layout and the gregLibert client's connect/select flow).
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
