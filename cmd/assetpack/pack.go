package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/hupe1980/triton/asset"
	"github.com/hupe1980/triton/blobstore"
	"golang.org/x/sync/errgroup"
)

type packCommand struct {
	target      target
	compression string
	base        string
	jobs        int
	files       *[]string
}

func addPackCommand(app *kingpin.Application) {
	cmd := &packCommand{}
	clause := app.Command("pack", "Compress files and upload them.").Action(cmd.run)
	cmd.target.register(clause)
	clause.Flag("compression", "Payload codec.").Short('z').Default("zstd").EnumVar(&cmd.compression, "none", "lz4", "zstd")
	clause.Flag("base", "Directory blob names are made relative to.").Default(".").StringVar(&cmd.base)
	clause.Flag("jobs", "Files packed in parallel.").Short('j').Default("4").IntVar(&cmd.jobs)
	cmd.files = clause.Arg("file", "Files to pack.").Required().ExistingFiles()
}

func (cmd *packCommand) run(_ *kingpin.ParseContext) error {
	ctx := context.Background()

	c, err := asset.ParseCompression(cmd.compression)
	if err != nil {
		exitWithErr(err)
	}
	bs, err := cmd.target.open(ctx)
	if err != nil {
		exitWithErr(err)
	}

	results, err := packFiles(ctx, bs, cmd.base, *cmd.files, c, cmd.jobs)
	if err != nil {
		exitWithErr(err)
	}

	var raw, packed uint64
	for _, r := range results {
		raw += r.raw
		packed += r.packed
		fmt.Printf("%-40s %10s -> %10s  %s\n", r.name, humanize.IBytes(r.raw), humanize.IBytes(r.packed), r.codec)
	}
	fmt.Printf("%d files, %s -> %s\n", len(results), humanize.IBytes(raw), humanize.IBytes(packed))
	return nil
}

type packResult struct {
	name   string
	raw    uint64
	packed uint64
	codec  asset.Compression
}

// blobName maps a file path to a slash-separated name relative to base.
func blobName(base, path string) (string, error) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", err
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("assetpack: %s is outside %s", path, base)
	}
	return filepath.ToSlash(rel), nil
}

func packFiles(ctx context.Context, bs blobstore.BlobStore, base string, files []string, c asset.Compression, jobs int) ([]packResult, error) {
	results := make([]packResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))

	for i, path := range files {
		g.Go(func() error {
			name, err := blobName(base, path)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			blob, err := asset.Pack(data, c)
			if err != nil {
				return fmt.Errorf("assetpack: pack %s: %w", path, err)
			}
			h, err := asset.ParseHeader(blob)
			if err != nil {
				return err
			}
			if err := bs.Put(ctx, name, blob); err != nil {
				return fmt.Errorf("assetpack: upload %s: %w", name, err)
			}
			results[i] = packResult{name: name, raw: uint64(len(data)), packed: uint64(len(blob)), codec: h.Compression}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].name < results[j].name })
	return results, nil
}
