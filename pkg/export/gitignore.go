package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const gitignoreComment = "# tv exports"

// EnsureIgnored lists outDir in projectDir/.gitignore so rendered files stay
// out of version control. It is idempotent and creates .gitignore when
// missing. outDir must be a subdirectory of projectDir; "." and paths
// outside the project are rejected.
func EnsureIgnored(projectDir, outDir string) error {
	if projectDir == "" {
		var err error
		if projectDir, err = os.Getwd(); err != nil {
			return err
		}
	}
	entry, err := ignoreEntry(projectDir, outDir)
	if err != nil {
		return err
	}

	path := filepath.Join(projectDir, ".gitignore")
	present, err := isIgnored(path, entry)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if present {
		return nil
	}
	return appendToGitignore(path, entry+"/")
}

// ignoreEntry turns outDir into a slash-separated path relative to projectDir
func ignoreEntry(projectDir, outDir string) (string, error) {
	abs := outDir
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(projectDir, outDir)
	}
	rel, err := filepath.Rel(projectDir, abs)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output dir %q is not inside %s", outDir, projectDir)
	}
	return filepath.ToSlash(rel), nil
}

func isIgnored(path, entry string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if matchesDir(line, entry) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// matchesDir reports whether a .gitignore line covers the directory entry
func matchesDir(line, entry string) bool {
	normalized := strings.TrimPrefix(line, "/")
	for _, suffix := range []string{"", "/", "/*", "/**", "/**/*"} {
		if normalized == entry+suffix {
			return true
		}
	}
	return false
}

func appendToGitignore(path, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n"
	}
	toWrite += gitignoreComment + "\n" + pattern + "\n"
	_, err = file.WriteString(toWrite)
	return err
}
