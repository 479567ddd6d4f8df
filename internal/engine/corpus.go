package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultArtifactSuffixes are the file name suffixes treated as
// implementation artifacts when the project config does not override them.
var DefaultArtifactSuffixes = []string{
	".spec.ts", ".test.ts", ".spec.js", ".test.js", "_test.go",
}

// ArtifactFile is one implementation artifact held in memory for scanning.
type ArtifactFile struct {
	Path  string // absolute path
	Rel   string // path relative to the corpus dir, slash-separated
	Lines []string
}

// Contains reports whether any line contains the substring.
func (f *ArtifactFile) Contains(s string) bool {
	for _, line := range f.Lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// Corpus is the set of implementation artifacts a validation run inspects.
type Corpus struct {
	Dir   string
	Files []ArtifactFile
}

// LoadCorpus walks dir and loads every file matching one of the suffixes.
// A missing dir yields an empty corpus: a record with no artifacts yet is a
// traceability finding, not an I/O failure.
func LoadCorpus(dir string, suffixes []string) (*Corpus, error) {
	if len(suffixes) == 0 {
		suffixes = DefaultArtifactSuffixes
	}
	corpus := &Corpus{Dir: dir}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d == nil && os.IsNotExist(walkErr) {
				return filepath.SkipAll
			}
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		matched := false
		for _, suffix := range suffixes {
			if strings.HasSuffix(d.Name(), suffix) {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}

		data, err := os.ReadFile(path) // #nosec G304 - path from walking the configured artifact dir
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		corpus.Files = append(corpus.Files, ArtifactFile{
			Path:  path,
			Rel:   filepath.ToSlash(rel),
			Lines: strings.Split(string(data), "\n"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return corpus, nil
}

// File returns the artifact at the given corpus-relative path.
func (c *Corpus) File(rel string) (*ArtifactFile, bool) {
	for i := range c.Files {
		if c.Files[i].Rel == rel {
			return &c.Files[i], true
		}
	}
	return nil, false
}

// Tagged returns every artifact carrying the tag.
func (c *Corpus) Tagged(tag string) []*ArtifactFile {
	var out []*ArtifactFile
	for i := range c.Files {
		if c.Files[i].Contains(tag) {
			out = append(out, &c.Files[i])
		}
	}
	return out
}
