package main

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/hupe1980/triton/asset"
	"github.com/hupe1980/triton/blobstore"
)

type listCommand struct {
	target target
	prefix string
}

func addListCommand(app *kingpin.Application) {
	cmd := &listCommand{}
	clause := app.Command("list", "List blobs and their pack headers.").Action(cmd.run)
	cmd.target.register(clause)
	clause.Arg("prefix", "Only list names starting with prefix.").StringVar(&cmd.prefix)
}

func (cmd *listCommand) run(_ *kingpin.ParseContext) error {
	ctx := context.Background()

	bs, err := cmd.target.open(ctx)
	if err != nil {
		exitWithErr(err)
	}

	infos, err := describeBlobs(ctx, bs, cmd.prefix)
	if err != nil {
		exitWithErr(err)
	}
	for _, info := range infos {
		fmt.Println(info)
	}
	return nil
}

type blobInfo struct {
	name   string
	size   int64
	packed bool
	header asset.Header
}

func (b blobInfo) String() string {
	if !b.packed {
		return fmt.Sprintf("%-40s %10s  raw", b.name, humanize.IBytes(uint64(b.size)))
	}
	return fmt.Sprintf("%-40s %10s  %s, %s unpacked, crc32c %08x",
		b.name, humanize.IBytes(uint64(b.size)), b.header.Compression, humanize.IBytes(b.header.RawSize), b.header.Checksum)
}

// describeBlobs reads only the header of each blob.
func describeBlobs(ctx context.Context, bs blobstore.BlobStore, prefix string) ([]blobInfo, error) {
	names, err := bs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	infos := make([]blobInfo, 0, len(names))
	for _, name := range names {
		info, err := describeBlob(ctx, bs, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func describeBlob(ctx context.Context, bs blobstore.BlobStore, name string) (blobInfo, error) {
	b, err := bs.Open(ctx, name)
	if err != nil {
		return blobInfo{}, err
	}
	defer b.Close()

	info := blobInfo{name: name, size: b.Size()}

	head := make([]byte, min(int64(asset.HeaderSize), b.Size()))
	if _, err := b.ReadAt(ctx, head, 0); err != nil && err != io.EOF {
		return blobInfo{}, fmt.Errorf("assetpack: read %s: %w", name, err)
	}
	if asset.IsPacked(head) {
		h, err := asset.ParseHeader(head)
		if err != nil {
			return blobInfo{}, fmt.Errorf("assetpack: %s: %w", name, err)
		}
		info.packed = true
		info.header = h
	}
	return info, nil
}
