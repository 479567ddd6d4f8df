// Package store persists journey records as marked-region markdown files.
//
// The store is snapshot-oriented: callers Load() an immutable view, mutate a
// journey, and Upsert() it back. Staleness is detected by comparing the
// on-disk file hash against the hash captured in the snapshot (optimistic
// concurrency); a stale writer gets ErrConflict and nothing is written.
// Files are always replaced wholesale via temp-write and atomic rename,
// never patched in place.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/journeykit/jk/internal/idgen"
	"github.com/journeykit/jk/internal/regions"
	"github.com/journeykit/jk/internal/types"
)

// ErrConflict is returned when a write detects that the store changed after
// the caller's snapshot was taken. The operation is aborted with no partial
// write; callers must reload and retry.
var ErrConflict = errors.New("store: snapshot is stale, concurrent modification detected")

// Layout constants for record placement under the store root.
const (
	LayoutFlat   = "flat"   // all records directly under the root
	LayoutStaged = "staged" // records nested under a per-tier directory
)

// Store is a file-backed journey registry rooted at one directory.
type Store struct {
	Root   string
	Layout string
	Schema types.SchemaOptions
}

// Record is one journey as loaded from disk.
type Record struct {
	Journey  *types.Journey
	Path     string // absolute file path
	FileHash string // sha256 of the file bytes at load time
	Body     string // markdown body, markers included
}

// Snapshot is an immutable view of the registry taken at load time.
type Snapshot struct {
	Records  map[string]*Record
	IDs      []string // ascending
	LoadedAt time.Time
}

// New returns a store over root. Layout defaults to flat.
func New(root, layout string) *Store {
	if layout == "" {
		layout = LayoutFlat
	}
	return &Store{Root: root, Layout: layout}
}

// recordPath decides where a journey record lives.
func (s *Store) recordPath(j *types.Journey) string {
	if s.Layout == LayoutStaged {
		return filepath.Join(s.Root, string(j.Tier), j.ID+".md")
	}
	return filepath.Join(s.Root, j.ID+".md")
}

// Load walks the root and parses every record into a snapshot. Records are
// found recursively regardless of layout, so switching layouts never loses
// journeys. Duplicate ids are an error: the registry invariant is one file
// per id.
func (s *Store) Load() (*Snapshot, error) {
	snap := &Snapshot{
		Records:  make(map[string]*Record),
		LoadedAt: time.Now().UTC(),
	}

	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d == nil && os.IsNotExist(walkErr) {
				return nil // empty registry
			}
			return walkErr
		}
		if d.IsDir() {
			name := d.Name()
			if name == "reports" || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		// Generated listings live next to records but are not records.
		if d.Name() == "BACKLOG.md" {
			return nil
		}

		data, err := os.ReadFile(path) // #nosec G304 - path comes from walking the configured root
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		header, body, err := SplitRecord(string(data))
		if err != nil {
			return fmt.Errorf("record %s: %w", path, err)
		}
		j, err := DecodeHeader(header)
		if err != nil {
			return fmt.Errorf("record %s: %w", path, err)
		}
		if _, err := regions.Parse(body); err != nil {
			return fmt.Errorf("record %s: %w", path, err)
		}
		if j.ID == "" {
			return fmt.Errorf("record %s has no id", path)
		}
		if prev, ok := snap.Records[j.ID]; ok {
			return fmt.Errorf("duplicate journey id %s in %s and %s", j.ID, prev.Path, path)
		}
		snap.Records[j.ID] = &Record{
			Journey:  j,
			Path:     path,
			FileHash: hashBytes(data),
			Body:     body,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.IDs = make([]string, 0, len(snap.Records))
	for id := range snap.Records {
		snap.IDs = append(snap.IDs, id)
	}
	sort.Strings(snap.IDs)
	return snap, nil
}

// AllocOptions configures id allocation for new records.
type AllocOptions struct {
	Prefix string
	Width  int
}

// Upsert validates the journey and writes it as a full-file replacement.
// New journeys (empty ID) get the next id allocated against the snapshot.
// For existing journeys the status transition from the snapshot's version is
// enforced and the machine regions of the body are refreshed; human prose is
// preserved byte for byte.
func (s *Store) Upsert(snap *Snapshot, j *types.Journey, alloc AllocOptions) (string, error) {
	isNew := j.ID == ""

	if isNew {
		id, err := idgen.Allocate(alloc.Prefix, alloc.Width, snap.IDs)
		if err != nil {
			return "", err
		}
		j.ID = id
	}

	var prev *Record
	if !isNew {
		prev = snap.Records[j.ID]
	}
	if prev != nil {
		if err := types.ValidateTransition(prev.Journey, j.Status); err != nil {
			return "", err
		}
	}
	if err := j.Validate(s.Schema); err != nil {
		return "", err
	}

	var doc *regions.Doc
	var path string
	if prev != nil {
		d, err := regions.Parse(prev.Body)
		if err != nil {
			return "", fmt.Errorf("record %s: %w", prev.Path, err)
		}
		SyncRegions(j, d)
		doc = d
		path = prev.Path // records never move once written; ids stay addressable
	} else {
		doc = NewBody(j)
		path = s.recordPath(j)
	}

	data, err := EncodeRecord(j, doc)
	if err != nil {
		return "", err
	}

	if err := s.checkStale(prev, path); err != nil {
		return "", err
	}
	if err := WriteAtomic(path, []byte(data)); err != nil {
		return "", err
	}
	return j.ID, nil
}

// UpdateRegion rewrites a single named region of a record, preserving the
// header bytes and all other body bytes exactly. Same staleness and atomic
// replacement discipline as Upsert.
func (s *Store) UpdateRegion(snap *Snapshot, id, region, content string) error {
	rec, ok := snap.Records[id]
	if !ok {
		return fmt.Errorf("no journey %s in registry", id)
	}

	current, err := os.ReadFile(rec.Path) // #nosec G304 - path from loaded snapshot
	if err != nil {
		return fmt.Errorf("reading %s: %w", rec.Path, err)
	}
	if hashBytes(current) != rec.FileHash {
		return fmt.Errorf("updating %s: %w", id, ErrConflict)
	}

	header, body, err := SplitRecord(string(current))
	if err != nil {
		return fmt.Errorf("record %s: %w", rec.Path, err)
	}
	doc, err := regions.Parse(body)
	if err != nil {
		return fmt.Errorf("record %s: %w", rec.Path, err)
	}
	doc.Ensure(region, content)

	out := headerFence + "\n" + header + "\n" + headerFence + "\n" + doc.Render()
	return WriteAtomic(rec.Path, []byte(out))
}

// checkStale compares the on-disk state against what the snapshot saw.
// A nil prev means the snapshot had no record at this path.
func (s *Store) checkStale(prev *Record, path string) error {
	current, err := os.ReadFile(path) // #nosec G304 - store-controlled path
	if os.IsNotExist(err) {
		if prev == nil {
			return nil
		}
		// File vanished after the snapshot: someone else touched the store.
		return fmt.Errorf("checking %s: %w", path, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if prev == nil {
		// Allocation race: another writer claimed the id first.
		return fmt.Errorf("id already on disk at %s: %w", path, ErrConflict)
	}
	if hashBytes(current) != prev.FileHash {
		return fmt.Errorf("checking %s: %w", path, ErrConflict)
	}
	return nil
}

// WriteAtomic writes data to path via a temp file and atomic rename.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()    // Best effort: may already be closed before rename
		_ = os.Remove(tempPath) // Best effort: may already be renamed
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	// Close before rename (required on Windows; double-close in defer is harmless)
	_ = tempFile.Close()

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
