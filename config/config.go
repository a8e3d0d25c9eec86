// Package config loads engine descriptors from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/hupe1980/triton/store"
	"gopkg.in/yaml.v3"
)

// Format is a descriptor encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Config is the engine descriptor.
type Config struct {
	Name      string         `toml:"name" yaml:"name"`
	Arena     ArenaConfig    `toml:"arena" yaml:"arena"`
	Store     StoreConfig    `toml:"store" yaml:"store"`
	Events    StoreConfig    `toml:"events" yaml:"events"`
	Workers   WorkerConfig   `toml:"workers" yaml:"workers"`
	Resources ResourceConfig `toml:"resources" yaml:"resources"`
	Assets    AssetConfig    `toml:"assets" yaml:"assets"`
	Logging   LoggingConfig  `toml:"logging" yaml:"logging"`
	Metrics   MetricsConfig  `toml:"metrics" yaml:"metrics"`
}

type ArenaConfig struct {
	ByteSize  ByteSize `toml:"byte_size" yaml:"byte_size"`
	MaxAllocs int      `toml:"max_allocs" yaml:"max_allocs"`
	Alignment int      `toml:"alignment" yaml:"alignment"`
	OffHeap   bool     `toml:"off_heap" yaml:"off_heap"`
}

// StoreConfig sizes object stores; zero fields select the store defaults.
type StoreConfig struct {
	ChunkByteSize ByteSize `toml:"chunk_byte_size" yaml:"chunk_byte_size"`
	MaxChunkCount int      `toml:"max_chunk_count" yaml:"max_chunk_count"`
	BucketCount   int      `toml:"bucket_count" yaml:"bucket_count"`
}

type WorkerConfig struct {
	Count int `toml:"count" yaml:"count"` // 0 = runtime.NumCPU()
}

type ResourceConfig struct {
	MemoryLimit       ByteSize `toml:"memory_limit" yaml:"memory_limit"` // 0 = unlimited
	BackgroundWorkers int64    `toml:"background_workers" yaml:"background_workers"`
	IOLimitPerSec     ByteSize `toml:"io_limit_per_sec" yaml:"io_limit_per_sec"` // 0 = unlimited
}

type AssetConfig struct {
	Root          string   `toml:"root" yaml:"root"`
	ReadBlockSize ByteSize `toml:"read_block_size" yaml:"read_block_size"`
	CacheSize     ByteSize `toml:"cache_size" yaml:"cache_size"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "text"
}

type MetricsConfig struct {
	Listen string `toml:"listen" yaml:"listen"` // empty disables /metrics
}

// ByteSize is a byte count that accepts plain integers or strings such as
// "1 MiB" or "64KB".
type ByteSize uint64

// Int returns b as an int.
func (b ByteSize) Int() int { return int(b) } //nolint:gosec // sizes are validated below MaxInt

// Int64 returns b as an int64.
func (b ByteSize) Int64() int64 { return int64(b) } //nolint:gosec // sizes are validated below MaxInt64

// String formats b with IEC units.
func (b ByteSize) String() string { return humanize.IBytes(uint64(b)) }

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("config: invalid byte size %q: %w", text, err)
	}
	*b = ByteSize(n)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	return b.UnmarshalText([]byte(value.Value))
}

// Default returns the default descriptor.
func Default() *Config {
	sc := store.DefaultConfig()
	return &Config{
		Name: "triton",
		Arena: ArenaConfig{
			ByteSize:  1 << 20,
			MaxAllocs: 65536,
			Alignment: 64,
		},
		Store: StoreConfig{
			ChunkByteSize: ByteSize(sc.ChunkByteSize),
			MaxChunkCount: sc.MaxChunkCount,
			BucketCount:   sc.BucketCount,
		},
		Events: StoreConfig{
			ChunkByteSize: 4096,
			MaxChunkCount: 64,
			BucketCount:   64,
		},
		Resources: ResourceConfig{
			BackgroundWorkers: 4,
		},
		Assets: AssetConfig{
			Root:          "assets",
			ReadBlockSize: 256 * 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path, choosing the format from its extension
// (.toml, .yaml or .yml). Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("config: unknown format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func formatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("config: cannot infer format of %s", path)
	}
}

// Validate checks the descriptor for values the engine would reject.
func (c *Config) Validate() error {
	var errs []error

	if c.Arena.ByteSize == 0 {
		errs = append(errs, errors.New("arena.byte_size must be positive"))
	}
	if c.Arena.ByteSize > 1<<40 {
		errs = append(errs, fmt.Errorf("arena.byte_size %s is too large", c.Arena.ByteSize))
	}
	if c.Arena.MaxAllocs < 0 {
		errs = append(errs, errors.New("arena.max_allocs must not be negative"))
	}
	if c.Arena.Alignment < 0 || (c.Arena.Alignment > 0 && bits.OnesCount(uint(c.Arena.Alignment)) != 1) {
		errs = append(errs, fmt.Errorf("arena.alignment %d must be a power of two", c.Arena.Alignment))
	}
	for name, sc := range map[string]StoreConfig{"store": c.Store, "events": c.Events} {
		if sc.MaxChunkCount < 0 || sc.BucketCount < 0 || sc.ChunkByteSize > 1<<40 {
			errs = append(errs, fmt.Errorf("%s: invalid sizes %+v", name, sc))
		}
	}
	if c.Workers.Count < 0 {
		errs = append(errs, errors.New("workers.count must not be negative"))
	}
	if c.Resources.BackgroundWorkers < 0 {
		errs = append(errs, errors.New("resources.background_workers must not be negative"))
	}
	if c.Resources.MemoryLimit > 1<<62 || c.Resources.IOLimitPerSec > 1<<40 || c.Assets.CacheSize > 1<<40 || c.Assets.ReadBlockSize > 1<<30 {
		errs = append(errs, errors.New("resource limits out of range"))
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Store converts sc to a store.Config.
func (sc StoreConfig) Store() store.Config {
	return store.Config{
		ChunkByteSize: sc.ChunkByteSize.Int(),
		MaxChunkCount: sc.MaxChunkCount,
		BucketCount:   sc.BucketCount,
	}
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
