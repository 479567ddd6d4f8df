// Package artifacts regenerates the derived listings of the registry: the
// human-readable backlog and the machine index.
//
// Both outputs are pure functions of a registry snapshot. Each carries a
// generated banner, a content hash over everything except the generated-at
// timestamp, and is skipped entirely when the computed content matches what
// is already on disk, so no-op runs produce no diffs.
package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/journeykit/jk/internal/store"
	"github.com/journeykit/jk/internal/types"
)

// Banner marks generated files; anything carrying it is fair game for
// regeneration.
const Banner = "generated by jk; do not hand-edit"

// BacklogFileName and IndexFileName are written into the store root.
const (
	BacklogFileName = "BACKLOG.md"
	IndexFileName   = "index.json"
)

// Options configures a generation run.
type Options struct {
	Root string    // output directory, normally the store root
	Now  time.Time // stamped as generated-at; zero means time.Now
}

// Result reports what a generation run did.
type Result struct {
	BacklogPath    string
	IndexPath      string
	BacklogWritten bool // false when the on-disk content was already current
	IndexWritten   bool
}

// IndexEntry is one record summary in the machine index.
type IndexEntry struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Status string   `json:"status"`
	Tier   string   `json:"tier"`
	Tests  []string `json:"tests,omitempty"`
}

// Index is the machine-readable registry listing.
type Index struct {
	Banner      string       `json:"banner"`
	GeneratedAt string       `json:"generated_at"`
	ContentHash string       `json:"content_hash"`
	Entries     []IndexEntry `json:"entries"`
}

// Generate recomputes both listings from the snapshot and writes whichever
// of them changed. Writes are atomic whole-file replacements.
func Generate(snap *store.Snapshot, opts Options) (*Result, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	now = now.UTC().Truncate(time.Second)

	res := &Result{
		BacklogPath: filepath.Join(opts.Root, BacklogFileName),
		IndexPath:   filepath.Join(opts.Root, IndexFileName),
	}

	journeys := sortedJourneys(snap)

	backlogBody := RenderBacklogBody(journeys)
	backlogHash := hashContent(backlogBody)
	backlog := renderBacklog(backlogBody, backlogHash, now)
	written, err := writeUnlessCurrent(res.BacklogPath, backlog, backlogHash, extractBacklogHash)
	if err != nil {
		return nil, err
	}
	res.BacklogWritten = written

	index, indexHash, err := renderIndex(journeys, now)
	if err != nil {
		return nil, err
	}
	written, err = writeUnlessCurrent(res.IndexPath, index, indexHash, extractIndexHash)
	if err != nil {
		return nil, err
	}
	res.IndexWritten = written

	return res, nil
}

// sortedJourneys orders records by tier, then status, then ascending id.
func sortedJourneys(snap *store.Snapshot) []*types.Journey {
	journeys := make([]*types.Journey, 0, len(snap.Records))
	for _, rec := range snap.Records {
		journeys = append(journeys, rec.Journey)
	}
	sort.Slice(journeys, func(i, k int) bool {
		a, b := journeys[i], journeys[k]
		if ra, rb := types.TierRank(a.Tier), types.TierRank(b.Tier); ra != rb {
			return ra < rb
		}
		if a.Tier != b.Tier { // custom tiers share a rank; order them by name
			return a.Tier < b.Tier
		}
		if ra, rb := types.StatusRank(a.Status), types.StatusRank(b.Status); ra != rb {
			return ra < rb
		}
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		return a.ID < b.ID
	})
	return journeys
}

// RenderBacklogBody renders the deterministic part of the backlog: records
// grouped by tier then status. Exported for golden tests; the banner block
// with hash and timestamp is layered on top by Generate.
func RenderBacklogBody(journeys []*types.Journey) string {
	var b strings.Builder
	b.WriteString("# Journey Backlog\n")

	if len(journeys) == 0 {
		b.WriteString("\nNo journeys registered.\n")
		return b.String()
	}

	var curTier types.Tier
	var curStatus types.Status
	started := false
	for _, j := range journeys {
		if !started || j.Tier != curTier {
			fmt.Fprintf(&b, "\n## %s\n", j.Tier)
			curTier = j.Tier
			curStatus = ""
		}
		if !started || j.Status != curStatus {
			fmt.Fprintf(&b, "\n### %s\n\n", j.Status)
			curStatus = j.Status
		}
		started = true
		fmt.Fprintf(&b, "- %s: %s (tests: %d)\n", j.ID, j.Title, len(j.Tests))
	}
	return b.String()
}

func renderBacklog(body, hash string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!-- %s -->\n", Banner)
	fmt.Fprintf(&b, "<!-- content-hash: %s -->\n", hash)
	fmt.Fprintf(&b, "<!-- generated-at: %s -->\n\n", now.Format(time.RFC3339))
	b.WriteString(body)
	return b.String()
}

func renderIndex(journeys []*types.Journey, now time.Time) (content, hash string, err error) {
	entries := make([]IndexEntry, 0, len(journeys))
	for _, j := range journeys {
		tests := make([]string, 0, len(j.Tests))
		for _, t := range j.Tests {
			tests = append(tests, t.String())
		}
		entries = append(entries, IndexEntry{
			ID:     j.ID,
			Title:  j.Title,
			Status: string(j.Status),
			Tier:   string(j.Tier),
			Tests:  tests,
		})
	}

	entryJSON, err := json.Marshal(entries)
	if err != nil {
		return "", "", fmt.Errorf("marshaling index entries: %w", err)
	}
	hash = hashContent(string(entryJSON))

	idx := Index{
		Banner:      Banner,
		GeneratedAt: now.Format(time.RFC3339),
		ContentHash: hash,
		Entries:     entries,
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshaling index: %w", err)
	}
	return string(data) + "\n", hash, nil
}

// writeUnlessCurrent writes content atomically unless the existing file
// already carries the same verified content hash. The timestamp is
// deliberately excluded from the comparison, so no-op regenerations leave
// mtimes and diffs alone. extract must return the embedded hash only when
// the file's actual content still hashes to it, so hand-corrupted output is
// always restored.
func writeUnlessCurrent(path, content, hash string, extract func([]byte) string) (bool, error) {
	existing, err := os.ReadFile(path) // #nosec G304 - output path under the configured root
	if err == nil && extract(existing) == hash {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := store.WriteAtomic(path, []byte(content)); err != nil {
		return false, err
	}
	return true, nil
}

// extractBacklogHash returns the embedded hash of a generated backlog, but
// only when the body below the banner block still matches it.
func extractBacklogHash(data []byte) string {
	text := string(data)
	embedded := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "<!-- content-hash: ") && strings.HasSuffix(line, " -->") {
			embedded = strings.TrimSuffix(strings.TrimPrefix(line, "<!-- content-hash: "), " -->")
			break
		}
	}
	if embedded == "" {
		return ""
	}
	_, body, found := strings.Cut(text, " -->\n\n") // end of the banner block
	if !found || hashContent(body) != embedded {
		return "" // body was tampered with; caller regenerates
	}
	return embedded
}

// extractIndexHash returns the embedded hash of a generated index, but only
// when its entries still marshal to that hash.
func extractIndexHash(data []byte) string {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return "" // corrupted index is simply regenerated
	}
	entryJSON, err := json.Marshal(idx.Entries)
	if err != nil || hashContent(string(entryJSON)) != idx.ContentHash {
		return ""
	}
	return idx.ContentHash
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "sha256:" + hex.EncodeToString(sum[:])
}
