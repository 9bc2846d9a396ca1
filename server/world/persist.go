package world

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Load reads a gzip-compressed level file written by Save: a 32-bit
// big-endian block count followed by that many raw type bytes, in
// x + size.x*(z + size.z*y) order. The returned Level has the size passed
// in; the file's block count must match it exactly.
func Load(path string, size Vec3i, log *slog.Logger) (*Level, error) {
	if log == nil {
		log = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("world: open %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("world: open gzip reader for %s: %w", path, err)
	}
	defer gz.Close()

	var count uint32
	if err := binary.Read(gz, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("world: read block count: %w", err)
	}
	want := uint32(size.X * size.Y * size.Z)
	if count != want {
		return nil, fmt.Errorf("world: recorded world contains %d blocks; %d expected", count, want)
	}

	raw := make([]byte, count)
	if _, err := io.ReadFull(gz, raw); err != nil {
		return nil, fmt.Errorf("world: read block data: %w", err)
	}

	l := New(size, log)
	for i, b := range raw {
		l.blocks[i] = Type(b)
	}
	l.saveTime = time.Now()
	l.dirty = false

	log.Info("loaded level", "path", path, "blocks", count, "checksum", fmt.Sprintf("%x", xxhash.Sum64(raw)))
	return l, nil
}

// Bytes returns the gzip-compressed block buffer in the same format Save
// writes to disk, without touching Dirty or SaveTime. Used for transmitting
// the world to a newly connected client (§6 "World-transmit chunking").
func (l *Level) Bytes() ([]byte, error) {
	var out bytes.Buffer
	gz := gzip.NewWriter(&out)

	count := uint32(l.blockCount())
	if err := binary.Write(gz, binary.BigEndian, count); err != nil {
		gz.Close()
		return nil, fmt.Errorf("world: write block count: %w", err)
	}

	raw := make([]byte, len(l.blocks))
	for i, t := range l.blocks {
		raw[i] = byte(t)
	}
	if _, err := gz.Write(raw); err != nil {
		gz.Close()
		return nil, fmt.Errorf("world: write block data: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("world: close gzip writer: %w", err)
	}
	return out.Bytes(), nil
}

// Save writes the level's block buffer to path in the format Load expects.
// On success, Dirty is cleared and SaveTime is stamped to now; on failure
// the level is left unchanged so the caller's next save cycle retries.
func (l *Level) Save(path string) error {
	data, err := l.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("world: write %s: %w", path, err)
	}

	l.dirty = false
	l.saveTime = time.Now()
	l.log.Info("saved level", "path", path, "blocks", l.blockCount(), "checksum", fmt.Sprintf("%x", xxhash.Sum64(l.blocksBytes())))
	return nil
}

// blocksBytes returns a byte-per-cell copy of the block buffer for checksum
// logging.
func (l *Level) blocksBytes() []byte {
	raw := make([]byte, len(l.blocks))
	for i, t := range l.blocks {
		raw[i] = byte(t)
	}
	return raw
}
