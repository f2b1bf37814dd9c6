package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/fcast/internal/source"
	"github.com/theirongolddev/fcast/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	Removed   int
}

// LoadWithCache discovers files, diffs them against the cache by mtime and
// size, parses only changed files, and returns the combined result set.
// Files that disappeared from disk are evicted from the cache.
func LoadWithCache(dataDir string, cache *store.DB, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{
			TotalFiles:   len(files),
			AccountCount: source.CountAccounts(files),
		},
	}

	present := make(map[string]struct{}, len(files))
	var toReparse []source.DiscoveredFile
	var unchanged []string

	for _, f := range files {
		present[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}

		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged = append(unchanged, f.Path)
		} else {
			toReparse = append(toReparse, f)
		}
	}

	for path := range tracked {
		if _, ok := present[path]; !ok {
			if err := cache.DeleteFile(path); err == nil {
				result.Removed++
			}
		}
	}

	result.CacheHits = len(unchanged)
	result.Reparsed = len(toReparse)

	if len(unchanged) > 0 {
		cached, err := cache.LoadFiles(unchanged)
		if err != nil {
			return nil, fmt.Errorf("loading cached files: %w", err)
		}
		for _, p := range unchanged {
			fd := cached[p]
			result.add(source.ParseResult{
				Records:     fd.Records,
				Points:      fd.Points,
				Income:      fd.Income,
				ParseErrors: fd.ParseErrors,
			})
		}
	}

	if len(toReparse) > 0 {
		results := parseAll(toReparse, func(n int) {
			if progressFn != nil {
				progressFn(n+result.CacheHits, result.TotalFiles)
			}
		})

		for i, pr := range results {
			result.add(pr)
			if pr.Err != nil {
				continue
			}
			info, err := os.Stat(toReparse[i].Path)
			if err == nil {
				_ = cache.SaveFile(toReparse[i].Path, store.FileData{
					Records:     pr.Records,
					Points:      pr.Points,
					Income:      pr.Income,
					ParseErrors: pr.ParseErrors,
				}, info.ModTime().UnixNano(), info.Size())
			}
		}
	}

	result.Points = SortPoints(result.Points)
	return result, nil
}

// DataHome returns the directory holding the database.
func DataHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fcast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fcast")
}

// DBPath returns the full path to the database holding scenarios, goals and
// the parsed-file cache.
func DBPath() string {
	return filepath.Join(DataHome(), "fcast.db")
}
