// Package file persists index generations as flat files.
//
// A generation on disk is three files in one directory:
//
//	index.bin      binary vector index (versioned header, CRC)
//	chunks.jsonl   one chunk record per line, line i describes vector i
//	manifest.json  generation number, build time, model, shape
//
// The manifest is written last, so a reader never observes a manifest
// that is newer than the data files. Any disagreement between the
// three files surfaces as domain.ErrIndexCorrupt on load.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.GenerationStore = (*Store)(nil)

// Generation file names within the store directory.
const (
	IndexFile    = "index.bin"
	ChunksFile   = "chunks.jsonl"
	ManifestFile = "manifest.json"
)

// maxChunkLine bounds a single chunk record on disk. Chunks are at
// most a few hundred words, so 1 MiB is generous.
const maxChunkLine = 1 << 20

// Store is a file-based implementation of driven.GenerationStore.
type Store struct {
	dir     string
	factory driven.IndexFactory
}

// NewStore creates a generation store rooted at dir. The directory is
// created if it does not exist.
func NewStore(dir string, factory driven.IndexFactory) (*Store, error) {
	if dir == "" {
		return nil, errors.New("storage: directory cannot be empty")
	}
	if factory == nil {
		return nil, errors.New("storage: index factory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}
	return &Store{dir: dir, factory: factory}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save persists the generation. Files are written to temporary names
// and renamed into place, data files before the manifest.
func (s *Store) Save(ctx context.Context, info domain.IndexGeneration, index driven.VectorIndex, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if index.Len() != len(chunks) {
		return fmt.Errorf("storage: %d vectors but %d chunk records", index.Len(), len(chunks))
	}
	if info.ChunkCount != len(chunks) {
		return fmt.Errorf("storage: manifest says %d chunks, got %d", info.ChunkCount, len(chunks))
	}

	indexTmp := filepath.Join(s.dir, IndexFile+".tmp")
	if err := index.Save(indexTmp); err != nil {
		return fmt.Errorf("storage: save index: %w", err)
	}
	if err := s.writeChunks(chunks); err != nil {
		os.Remove(indexTmp)
		return err
	}
	if err := os.Rename(indexTmp, filepath.Join(s.dir, IndexFile)); err != nil {
		return fmt.Errorf("storage: install index: %w", err)
	}
	if err := os.Rename(filepath.Join(s.dir, ChunksFile+".tmp"), filepath.Join(s.dir, ChunksFile)); err != nil {
		return fmt.Errorf("storage: install chunk records: %w", err)
	}

	if err := s.writeManifest(info); err != nil {
		return err
	}

	logger.Debug("storage: persisted generation %d (%d chunks) to %s", info.Number, len(chunks), s.dir)
	return nil
}

// Load restores the persisted generation. Returns an error wrapping
// fs.ErrNotExist when no manifest is present.
func (s *Store) Load(ctx context.Context) (domain.IndexGeneration, driven.VectorIndex, []domain.Chunk, error) {
	var none domain.IndexGeneration

	if err := ctx.Err(); err != nil {
		return none, nil, nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return none, nil, nil, fmt.Errorf("storage: no persisted generation: %w", err)
		}
		return none, nil, nil, fmt.Errorf("storage: read manifest: %w", err)
	}

	var info domain.IndexGeneration
	if err := json.Unmarshal(data, &info); err != nil {
		return none, nil, nil, fmt.Errorf("%w: manifest unreadable: %v", domain.ErrIndexCorrupt, err)
	}

	index, err := s.factory.Load(filepath.Join(s.dir, IndexFile))
	if err != nil {
		if errors.Is(err, domain.ErrIndexCorrupt) {
			return none, nil, nil, err
		}
		return none, nil, nil, fmt.Errorf("%w: index file: %v", domain.ErrIndexCorrupt, err)
	}

	chunks, err := s.readChunks()
	if err != nil {
		return none, nil, nil, err
	}

	if index.Len() != len(chunks) {
		return none, nil, nil, fmt.Errorf("%w: %d vectors but %d chunk records",
			domain.ErrIndexCorrupt, index.Len(), len(chunks))
	}
	if info.ChunkCount != len(chunks) {
		return none, nil, nil, fmt.Errorf("%w: manifest says %d chunks, found %d",
			domain.ErrIndexCorrupt, info.ChunkCount, len(chunks))
	}
	if info.Dimensions != index.Dimensions() {
		return none, nil, nil, fmt.Errorf("%w: manifest says %d dimensions, index has %d",
			domain.ErrIndexCorrupt, info.Dimensions, index.Dimensions())
	}

	logger.Debug("storage: loaded generation %d (%d chunks) from %s", info.Number, len(chunks), s.dir)
	return info, index, chunks, nil
}

func (s *Store) writeChunks(chunks []domain.Chunk) error {
	tmp := filepath.Join(s.dir, ChunksFile+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("storage: create chunk records: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range chunks {
		if err := enc.Encode(&chunks[i]); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("storage: encode chunk %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("storage: flush chunk records: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: close chunk records: %w", err)
	}
	return nil
}

func (s *Store) readChunks() ([]domain.Chunk, error) {
	f, err := os.Open(filepath.Join(s.dir, ChunksFile))
	if err != nil {
		return nil, fmt.Errorf("%w: chunk records: %v", domain.ErrIndexCorrupt, err)
	}
	defer f.Close()

	var chunks []domain.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxChunkLine)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var chunk domain.Chunk
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			return nil, fmt.Errorf("%w: chunk record %d unreadable: %v", domain.ErrIndexCorrupt, line, err)
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan chunk records: %v", domain.ErrIndexCorrupt, err)
	}
	return chunks, nil
}

func (s *Store) writeManifest(info domain.IndexGeneration) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode manifest: %w", err)
	}
	tmp := filepath.Join(s.dir, ManifestFile+".tmp")
	if err := os.WriteFile(tmp, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("storage: write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, ManifestFile)); err != nil {
		return fmt.Errorf("storage: install manifest: %w", err)
	}
	return nil
}
