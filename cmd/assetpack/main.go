// Command assetpack compresses asset files and uploads them to a blob store
// the engine's asset loader can read.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
)

func main() {
	app := kingpin.New("assetpack", "Pack asset files for the triton asset loader.")
	app.HelpFlag.Short('h')

	addPackCommand(app)
	addListCommand(app)
	addInspectCommand(app)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}

func exitWithErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
