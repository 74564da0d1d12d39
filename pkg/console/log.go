package console

import (
	"log"
	"os"
)

// SetupLog sends the standard logger to stdout, where device output and status
// lines belong, with no timestamps and the given prefix.
func SetupLog(prefix string) {
	log.SetFlags(0)
	log.SetPrefix(prefix)
	log.SetOutput(os.Stdout)
}
