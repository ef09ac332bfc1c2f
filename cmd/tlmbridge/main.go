// Command tlmbridge runs a four-phase handshake bridge over synthetic
// traffic and reports how the requests flowed.
package main

import (
	"log"

	"github.com/tebeka/atexit"
)

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		log.Print(err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
