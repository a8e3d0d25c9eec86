package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/triton/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ByteSize(1<<20), cfg.Arena.ByteSize)
	assert.Equal(t, 65536, cfg.Arena.MaxAllocs)
	assert.Equal(t, 64, cfg.Arena.Alignment)
	assert.Equal(t, store.DefaultConfig(), cfg.Store.Store())
}

const tomlDescriptor = `
name = "demo"

[arena]
byte_size = "4 MiB"
max_allocs = 1024
alignment = 16
off_heap = true

[store]
chunk_byte_size = 8192
bucket_count = 100

[workers]
count = 3

[resources]
io_limit_per_sec = "10MiB"

[logging]
level = "debug"
format = "json"
`

const yamlDescriptor = `
name: demo
arena:
  byte_size: 4 MiB
  max_allocs: 1024
  alignment: 16
  off_heap: true
store:
  chunk_byte_size: 8192
  bucket_count: 100
workers:
  count: 3
resources:
  io_limit_per_sec: 10MiB
logging:
  level: debug
  format: json
`

func TestParse(t *testing.T) {
	for format, data := range map[Format]string{FormatTOML: tomlDescriptor, FormatYAML: yamlDescriptor} {
		t.Run(string(format), func(t *testing.T) {
			cfg, err := Parse([]byte(data), format)
			require.NoError(t, err)

			assert.Equal(t, "demo", cfg.Name)
			assert.Equal(t, ArenaConfig{ByteSize: 4 << 20, MaxAllocs: 1024, Alignment: 16, OffHeap: true}, cfg.Arena)
			assert.Equal(t, store.Config{
				ChunkByteSize: 8192,
				MaxChunkCount: store.DefaultMaxChunkCount,
				BucketCount:   100,
			}, cfg.Store.Store())
			assert.Equal(t, 3, cfg.Workers.Count)
			assert.Equal(t, int64(10<<20), cfg.Resources.IOLimitPerSec.Int64())
			assert.Equal(t, int64(4), cfg.Resources.BackgroundWorkers)

			level, err := cfg.Logging.SlogLevel()
			require.NoError(t, err)
			assert.Equal(t, slog.LevelDebug, level)
			assert.Equal(t, "json", cfg.Logging.Format)

			assert.Equal(t, Default().Events, cfg.Events)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML} {
		cfg, err := Parse(nil, format)
		require.NoError(t, err, format)
		assert.Equal(t, Default(), cfg)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"alignment", FormatTOML, "[arena]\nalignment = 48\n"},
		{"byte size", FormatTOML, "[arena]\nbyte_size = \"lots\"\n"},
		{"zero arena", FormatYAML, "arena:\n  byte_size: 0\n"},
		{"level", FormatYAML, "logging:\n  level: loud\n"},
		{"log format", FormatYAML, "logging:\n  format: xml\n"},
		{"unknown yaml field", FormatYAML, "arena:\n  bogus: 1\n"},
		{"negative workers", FormatTOML, "[workers]\ncount = -1\n"},
		{"format", Format("ini"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "engine.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlDescriptor), 0o600))
	yamlPath := filepath.Join(dir, "engine.YML")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDescriptor), 0o600))

	a, err := Load(tomlPath)
	require.NoError(t, err)
	b, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = Load(filepath.Join(dir, "engine.json"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestByteSize_String(t *testing.T) {
	assert.Equal(t, "1.0 MiB", ByteSize(1<<20).String())

	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("64KiB")))
	assert.Equal(t, ByteSize(64<<10), b)
}
