// Command trellis runs declarative scenarios against the reactive
// binding engine and inspects the traces they leave behind.
package main

import (
	"os"

	"github.com/roach88/trellis/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
