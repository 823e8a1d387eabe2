package workflow

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dougzen/zenflow/workflow/emit"
)

// codeExtensions is the allow-list of extensions that suppress the unusual
// extension warning. Everything outside the list is still accepted.
var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".java": true, ".c": true, ".cpp": true, ".h": true, ".hpp": true,
	".cs": true, ".php": true, ".rb": true, ".go": true, ".rs": true,
	".swift": true, ".kt": true, ".scala": true, ".clj": true,
	".html": true, ".css": true, ".scss": true, ".sass": true, ".less": true,
	".vue": true, ".svelte": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".cfg": true, ".conf": true,
	".md": true, ".rst": true, ".txt": true, ".xml": true,
	".sql": true, ".sh": true, ".bash": true, ".zsh": true,
}

// specialFilenames are extensionless files accepted without a warning.
// Matching is case-insensitive.
var specialFilenames = map[string]bool{
	"makefile":   true,
	"dockerfile": true,
	"readme":     true,
	"license":    true,
	"changelog":  true,
}

// ValidatePathValue checks a raw request value before it is treated as a
// file path. Request envelopes arrive as untyped JSON, so the string check
// happens here rather than in the type system.
func ValidatePathValue(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Message: fmt.Sprintf("File path must be string, got %T", v)}
	}
	return s, nil
}

// ValidatePath enforces the file path rules for relevant_files entries:
//
//   - empty or whitespace-only paths are rejected
//   - after normalization, a relative path containing parent-directory
//     segments is rejected as traversal
//   - unusual extensions are accepted with a warning event
//
// The emitter receives the warning for paths outside the code extension
// allow-list; pass a NullEmitter to suppress it.
func ValidatePath(path, toolName string, em emit.Emitter) error {
	if strings.TrimSpace(path) == "" {
		return &ValidationError{Message: "Empty or whitespace-only file paths are not allowed"}
	}

	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) && containsParentSegment(cleaned) {
		return &ValidationError{Message: fmt.Sprintf("Path traversal detected in path: %s", path)}
	}

	if !hasKnownExtension(path) {
		em.Emit(emit.Event{
			Tool: toolName,
			Msg:  fmt.Sprintf("Unusual file extension for code review: %s", path),
			Meta: map[string]interface{}{"path": path},
		})
	}

	return nil
}

// ValidatePaths validates every entry of a relevant_files list, failing on
// the first invalid path.
func ValidatePaths(paths []string, toolName string, em emit.Emitter) error {
	for _, p := range paths {
		if err := ValidatePath(p, toolName, em); err != nil {
			return err
		}
	}
	return nil
}

// containsParentSegment reports whether a cleaned relative path still
// escapes upward. Backslashes are checked too so Windows-style traversal
// is caught on any platform.
func containsParentSegment(cleaned string) bool {
	for _, seg := range strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// hasKnownExtension reports whether the path looks like code or
// documentation: either an allow-listed extension, a special filename, or
// a directory path.
func hasKnownExtension(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\") {
		return true
	}

	base := filepath.Base(path)
	if idx := strings.LastIndexByte(base, '\\'); idx >= 0 {
		base = base[idx+1:]
	}
	if specialFilenames[strings.ToLower(base)] {
		return true
	}

	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		return false
	}
	return codeExtensions[ext]
}
