package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	entity "github.com/goliatone/go-entities"
	"github.com/rs/zerolog"
)

const metaSuffix = ".meta"

// FileStore keeps one snapshot file per Ref under a directory:
// <dir>/main.config.json and <dir>/modules/<name>.config.json. Audit
// metadata lives in a sidecar file next to each snapshot.
type FileStore struct {
	dir    string
	format Format
	logger zerolog.Logger
	mu     sync.Mutex
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFormat selects the encoding used for snapshot files.
func WithFormat(format Format) FileStoreOption {
	return func(s *FileStore) {
		if format != "" {
			s.format = format
		}
	}
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger zerolog.Logger) FileStoreOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// NewFileStore constructs a store rooted at dir.
func NewFileStore(dir string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		dir:    dir,
		format: FormatJSON,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dir returns the root directory of the store.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the snapshot file backing ref.
func (s *FileStore) Path(ref Ref) (string, error) {
	key, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)+s.format.extension()), nil
}

func (s *FileStore) Load(ctx context.Context, ref Ref) (entity.Snapshot, Meta, bool, error) {
	if err := ctx.Err(); err != nil {
		return entity.Snapshot{}, Meta{}, false, err
	}
	path, err := s.Path(ref)
	if err != nil {
		return entity.Snapshot{}, Meta{}, false, err
	}
	payload, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return entity.Snapshot{}, Meta{}, false, nil
	}
	if err != nil {
		return entity.Snapshot{}, Meta{}, false, fmt.Errorf("state: read %s: %w", path, err)
	}
	snapshot, err := Decode(s.format, payload)
	if err != nil {
		return entity.Snapshot{}, Meta{}, false, fmt.Errorf("state: %s: %w", path, err)
	}

	meta := s.readMeta(path)
	meta.ETag = digest(payload)
	if meta.UpdatedAt.IsZero() {
		if info, err := os.Stat(path); err == nil {
			meta.UpdatedAt = info.ModTime().UTC()
		}
	}
	return snapshot, meta, true, nil
}

func (s *FileStore) Save(ctx context.Context, ref Ref, snapshot entity.Snapshot, meta Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	path, err := s.Path(ref)
	if err != nil {
		return Meta{}, err
	}
	payload, err := Encode(s.format, snapshot)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if meta.ETag != "" {
		current, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Meta{}, fmt.Errorf("state: read %s: %w", path, err)
		case digest(current) != meta.ETag:
			return Meta{}, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, digest(current))
		}
	}

	if err := writeFileAtomic(path, payload); err != nil {
		return Meta{}, err
	}
	stored := cloneMeta(meta)
	stored.ETag = digest(payload)
	if err := s.writeMeta(path, stored); err != nil {
		return Meta{}, err
	}
	s.logger.Debug().
		Str("path", path).
		Str("snapshot_id", stored.SnapshotID).
		Msg("snapshot saved")
	return stored, nil
}

// List returns the refs of every snapshot present in the store.
func (s *FileStore) List(ctx context.Context) ([]Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var refs []Ref
	if _, err := os.Stat(filepath.Join(s.dir, NamespaceMain+s.format.extension())); err == nil {
		refs = append(refs, MainRef())
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, NamespaceModules))
	if errors.Is(err, fs.ErrNotExist) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: list modules: %w", err)
	}
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), s.format.extension())
		if entry.IsDir() || !ok || name == "" {
			continue
		}
		refs = append(refs, ModuleRef(name))
	}
	return refs, nil
}

// refForPath maps a snapshot file path back onto its Ref.
func (s *FileStore) refForPath(path string) (Ref, bool) {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		return Ref{}, false
	}
	key, ok := strings.CutSuffix(filepath.ToSlash(rel), s.format.extension())
	if !ok {
		return Ref{}, false
	}
	if key == NamespaceMain {
		return MainRef(), true
	}
	name, ok := strings.CutPrefix(key, NamespaceModules+"/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return Ref{}, false
	}
	return ModuleRef(name), true
}

func (s *FileStore) readMeta(path string) Meta {
	payload, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		return Meta{}
	}
	var meta Meta
	if err := json.Unmarshal(payload, &meta); err != nil {
		s.logger.Warn().Err(err).Str("path", path+metaSuffix).Msg("ignoring unreadable snapshot metadata")
		return Meta{}
	}
	return meta
}

func (s *FileStore) writeMeta(path string, meta Meta) error {
	sidecar := meta
	sidecar.ETag = ""
	payload, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode metadata: %w", err)
	}
	return writeFileAtomic(path+metaSuffix, payload)
}

// writeFileAtomic writes payload to a temporary file in the target directory
// and renames it over path.
func writeFileAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("state: write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("state: sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("state: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return fmt.Errorf("state: rename %s: %w", path, err)
	}
	return nil
}
