package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/hupe1980/triton/asset"
)

type inspectCommand struct {
	files *[]string
}

func addInspectCommand(app *kingpin.Application) {
	cmd := &inspectCommand{}
	clause := app.Command("inspect", "Verify local packed files.").Action(cmd.run)
	cmd.files = clause.Arg("file", "Packed files to verify.").Required().ExistingFiles()
}

func (cmd *inspectCommand) run(_ *kingpin.ParseContext) error {
	failed := 0
	for _, path := range *cmd.files {
		if err := inspectFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		exitWithErr(fmt.Errorf("assetpack: %d of %d files failed verification", failed, len(*cmd.files)))
	}
	return nil
}

func inspectFile(path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !asset.IsPacked(blob) {
		fmt.Printf("%s: raw, %s\n", path, humanize.IBytes(uint64(len(blob))))
		return nil
	}

	h, err := asset.ParseHeader(blob)
	if err != nil {
		return err
	}
	if _, err := asset.Unpack(blob); err != nil {
		return err
	}
	fmt.Printf("%s: %s, %s -> %s, crc32c %08x ok\n",
		path, h.Compression, humanize.IBytes(h.PayloadSize), humanize.IBytes(h.RawSize), h.Checksum)
	return nil
}
