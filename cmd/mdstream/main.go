// Command mdstream exercises the streaming markdown engine from a shell:
//
//	mdstream fix answer.md
//	mdstream extract --registry components.yaml answer.md
//	mdstream replay --chunk 4 --delay 20ms answer.md
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
