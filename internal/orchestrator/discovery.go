package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"trackrip/internal/job"
)

// recencyWindow bounds the newest-file fallback so stale artifacts from
// earlier runs are never claimed by an unrelated job.
const recencyWindow = time.Minute

type artifactInfo struct {
	path     string
	fileName string
}

type candidate struct {
	name    string
	modTime time.Time
}

// discoverArtifact locates the output file the conversion tool produced for
// record. The tool renames files after its own sanitization, so the expected
// name may not exist verbatim. Candidates are tried in order of confidence:
// combined artist and title, title alone, artist alone, job id prefix, and
// finally the newest matching file modified since the run started.
func discoverArtifact(dir string, record *job.Record, startedAt time.Time) (artifactInfo, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return artifactInfo{}, false
	}

	suffix := "." + record.TargetFormat
	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: name, modTime: info.ModTime()})
	}
	if len(candidates) == 0 {
		return artifactInfo{}, false
	}

	title := record.SanitizedTitle()
	artist := record.SanitizedArtist()

	var matchers []func(string) bool
	if artist != "" && title != "" {
		combined := artist + " - " + title
		matchers = append(matchers, func(name string) bool {
			return containsFold(name, combined)
		})
	}
	if title != "" {
		matchers = append(matchers, func(name string) bool {
			return containsFold(name, title)
		})
	}
	if artist != "" {
		matchers = append(matchers, func(name string) bool {
			return containsFold(name, artist)
		})
	}
	matchers = append(matchers, func(name string) bool {
		return strings.HasPrefix(name, record.ID)
	})

	for _, match := range matchers {
		if found, ok := newestMatching(candidates, match); ok {
			return artifactInfo{path: filepath.Join(dir, found), fileName: found}, true
		}
	}

	// Last resort: anything written since shortly before the run began.
	cutoff := startedAt.Add(-recencyWindow)
	if found, ok := newestMatching(candidates, nil); ok {
		for _, c := range candidates {
			if c.name == found && c.modTime.After(cutoff) {
				return artifactInfo{path: filepath.Join(dir, found), fileName: found}, true
			}
		}
	}
	return artifactInfo{}, false
}

func newestMatching(candidates []candidate, match func(string) bool) (string, bool) {
	var (
		best    string
		bestMod time.Time
		found   bool
	)
	for _, c := range candidates {
		if match != nil && !match(c.name) {
			continue
		}
		if !found || c.modTime.After(bestMod) {
			best = c.name
			bestMod = c.modTime
			found = true
		}
	}
	return best, found
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
