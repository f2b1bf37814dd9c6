package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var kindDirs = []Kind{KindSpending, KindForecast, KindIncome}

// ScanDir walks the data directory and discovers spending, forecast and income files.
//
// Layout:
//
//	<dataDir>/spending/<account>/*.jsonl|*.json|*.csv
//	<dataDir>/spending/*.csv            (account = file stem)
//	<dataDir>/forecast/*.json|*.jsonl
//	<dataDir>/income/*.json|*.jsonl
//
// A missing data directory is not an error; it yields no files.
func ScanDir(dataDir string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile

	for _, kind := range kindDirs {
		root := filepath.Join(dataDir, string(kind))
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if !info.IsDir() {
			continue
		}

		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // skip unreadable entries
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}

			format := formatOf(d.Name())
			if format == "" {
				return nil
			}
			if format == "csv" && kind != KindSpending {
				return nil
			}

			rel, _ := filepath.Rel(root, path)
			parts := strings.Split(rel, string(filepath.Separator))
			account := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
			if len(parts) >= 2 {
				account = parts[0]
			}

			files = append(files, DiscoveredFile{
				Path:    path,
				Kind:    kind,
				Account: account,
				Format:  format,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func formatOf(name string) string {
	if strings.HasPrefix(name, ".") {
		return ""
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".ndjson":
		return "jsonl"
	case ".json":
		return "json"
	case ".csv":
		return "csv"
	}
	return ""
}

// CountAccounts returns the number of distinct spending accounts in a set of files.
func CountAccounts(files []DiscoveredFile) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		if f.Kind == KindSpending {
			seen[f.Account] = struct{}{}
		}
	}
	return len(seen)
}

// FilterKind returns the files of one kind.
func FilterKind(files []DiscoveredFile, kind Kind) []DiscoveredFile {
	var out []DiscoveredFile
	for _, f := range files {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
