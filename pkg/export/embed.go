package export

import (
	"fmt"
	"os"
	"strings"
)

// Embedded diagrams live between a pair of HTML comments so that the
// surrounding document can be edited freely and re-rendering replaces
// only the block:
//
//	<!-- tv:family -->
//	```mermaid
//	...
//	```
//	<!-- /tv:family -->

func blockStart(name string) string { return "<!-- tv:" + name + " -->" }
func blockEnd(name string) string   { return "<!-- /tv:" + name + " -->" }

// ContainsBlock reports whether content holds a complete block called name
func ContainsBlock(content, name string) bool {
	start := strings.Index(content, blockStart(name))
	return start >= 0 && strings.Contains(content[start:], blockEnd(name))
}

// EmbedBlock places body inside the block called name, replacing an
// existing block in place or appending a new one at the end.
func EmbedBlock(content, name, body string) string {
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	block := blockStart(name) + "\n" + body + blockEnd(name)

	start := strings.Index(content, blockStart(name))
	if start >= 0 {
		if end := strings.Index(content[start:], blockEnd(name)); end >= 0 {
			end += start + len(blockEnd(name))
			return content[:start] + block + content[end:]
		}
	}

	if content != "" {
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += "\n"
	}
	return content + block + "\n"
}

// RemoveBlock deletes the block called name together with the blank lines
// that separated it from the previous content.
func RemoveBlock(content, name string) string {
	start := strings.Index(content, blockStart(name))
	if start == -1 {
		return content
	}
	end := strings.Index(content[start:], blockEnd(name))
	if end == -1 {
		return content
	}
	end += start + len(blockEnd(name))
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	for start > 0 && (content[start-1] == '\n' || content[start-1] == '\r') {
		start--
	}
	if start > 0 && end < len(content) {
		return content[:start] + "\n\n" + content[end:]
	}
	if start > 0 {
		return content[:start] + "\n"
	}
	return content[end:]
}

// EmbedMermaid writes the Mermaid diagram of doc into the markdown file at
// path, creating the file when it does not exist. replaced reports whether
// an existing block was updated rather than appended.
func EmbedMermaid(path, name string, doc *Document) (replaced bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	content := string(data)
	replaced = ContainsBlock(content, name)
	body := "```mermaid\n" + GenerateMermaid(doc) + "```\n"
	if err := os.WriteFile(path, []byte(EmbedBlock(content, name, body)), 0o644); err != nil {
		return false, fmt.Errorf("embed %s: %w", path, err)
	}
	return replaced, nil
}

// RemoveMermaid deletes the block called name from the markdown file at
// path. The file is left untouched when it holds no such block.
func RemoveMermaid(path, name string) (removed bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	content := string(data)
	if !ContainsBlock(content, name) {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(RemoveBlock(content, name)), 0o644); err != nil {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return true, nil
}
