package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScriptSuffixes are the file name endings recognized as action scripts
var ScriptSuffixes = []string{".tv.yaml", ".tv.yml"}

// ScriptRef is a discovered action script
type ScriptRef struct {
	Name string // File name without the script suffix
	Path string
}

// IsScriptFile reports whether name carries a script suffix
func IsScriptFile(name string) bool {
	for _, s := range ScriptSuffixes {
		if strings.HasSuffix(name, s) && len(name) > len(s) {
			return true
		}
	}
	return false
}

// ScriptName strips the directory and script suffix from file
func ScriptName(file string) string {
	base := filepath.Base(file)
	for _, s := range ScriptSuffixes {
		if strings.HasSuffix(base, s) {
			return strings.TrimSuffix(base, s)
		}
	}
	return base
}

// DiscoverScripts scans the configured paths for action scripts, deduped
// by absolute path and sorted by name then path.
func DiscoverScripts(cfg Config) []ScriptRef {
	seen := make(map[string]bool)
	var result []ScriptRef

	maxDepth := cfg.Scripts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	for _, scanPath := range cfg.Scripts.ScanPaths {
		for _, f := range scanForScripts(scanPath, maxDepth) {
			abs, err := filepath.Abs(f)
			if err != nil {
				abs = f
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true
			result = append(result, ScriptRef{Name: ScriptName(f), Path: f})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Path < result[j].Path
	})
	return result
}

// scanForScripts walks root up to maxDepth directory levels, skipping hidden
// directories, and returns the script files found.
func scanForScripts(root string, maxDepth int) []string {
	root = expandHome(root)
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if depth > maxDepth {
				return filepath.SkipDir
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsScriptFile(d.Name()) {
			results = append(results, path)
		}
		return nil
	})

	return results
}
