package converter

import (
	"path/filepath"
	"regexp"
	"strings"
)

// langExt maps fence info strings to file extensions.
var langExt = map[string]string{
	"python":     "py",
	"javascript": "js",
	"typescript": "ts",
	"java":       "java",
	"c++":        "cpp",
	"c":          "c",
	"html":       "html",
	"css":        "css",
	"bash":       "sh",
	"shell":      "sh",
	"php":        "php",
	"markdown":   "md",
	"json":       "json",
	"yaml":       "yaml",
	"xml":        "xml",
	"dockerfile": "dockerfile",
	"toml":       "toml",
	"go":         "go",
	"ruby":       "rb",
	"rust":       "rs",
	"swift":      "swift",
	"kotlin":     "kt",
	"sql":        "sql",
	"jsx":        "jsx",
	"tsx":        "tsx",
}

var filenameRe = regexp.MustCompile(`[a-zA-Z0-9_\-.]+\.[a-zA-Z0-9]+`)

// knownExt holds the extensions a mentioned name must carry to count as a
// file name rather than, say, a method call.
var knownExt = func() map[string]bool {
	m := map[string]bool{"txt": true, "yml": true, "env": true, "ini": true, "cfg": true, "mod": true}
	for _, ext := range langExt {
		m[ext] = true
	}
	return m
}()

// Ext returns the file extension for a code block language, "txt" if
// unknown.
func Ext(language string) string {
	if ext, ok := langExt[strings.ToLower(language)]; ok {
		return ext
	}
	return "txt"
}

// Filename suggests a file name for a code block, for UIs that offer code
// as a download. A name mentioned in the first two lines wins, e.g. a
// "// main.go" comment; otherwise it is "snippet.<ext>".
func Filename(code, language string) string {
	lines := strings.SplitN(strings.TrimSpace(code), "\n", 3)
	if len(lines) > 2 {
		lines = lines[:2]
	}
	head := strings.ReplaceAll(strings.Join(lines, " "), `\`, "")
	ext := Ext(language)
	for _, name := range filenameRe.FindAllString(head, -1) {
		if !knownExt[strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))] {
			continue
		}
		if strings.HasSuffix(name, "."+ext) && len(name) <= 24 {
			return name
		}
		return name + "." + ext
	}
	return "snippet." + ext
}
