package search

import (
	"fmt"
	"strings"

	"github.com/sandevgo/filepilot/internal/core"
)

// Categories assigned to search hits.
const (
	CategoryDev      = "Dev"
	CategoryTemp     = "Temp"
	CategorySystem   = "System"
	CategoryWork     = "Work"
	CategoryPersonal = "Personal"
	CategoryDocument = "Document"
	CategoryImage    = "Image"
	CategoryMedia    = "Media"
	CategoryOther    = "Other"
)

func convertResults(raw []core.BackendResult) []core.SearchResult {
	out := make([]core.SearchResult, 0, len(raw))
	for _, r := range raw {
		name := fileNameFromPath(r.Path)
		out = append(out, core.SearchResult{
			ID:       r.Path,
			Name:     name,
			Path:     r.Path,
			Size:     FormatFileSize(r.Size),
			Category: Categorize(r.Path, name),
			LastUsed: r.Modified,
			Score:    r.RelevanceScore,
			Source:   r.SourceEngine,
			Snippet:  r.Snippet,
			FileType: r.FileType,
		})
	}
	return out
}

// fileNameFromPath extracts the last path element, handling both Unix and
// Windows separators.
func fileNameFromPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// FormatFileSize renders a byte count with base-1024 units and one decimal
// place above bytes.
func FormatFileSize(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}

	units := []string{"KB", "MB", "GB"}
	v := float64(b)
	for i, u := range units {
		v /= 1024
		if v < 1024 || i == len(units)-1 {
			return fmt.Sprintf("%.1f %s", v, u)
		}
	}
	return fmt.Sprintf("%d B", b)
}

var (
	sourceExts = map[string]bool{
		"go": true, "js": true, "ts": true, "tsx": true, "jsx": true,
		"py": true, "java": true, "c": true, "cpp": true, "h": true,
		"rs": true, "rb": true, "php": true, "sh": true, "css": true,
		"html": true, "json": true, "yaml": true, "yml": true,
		"toml": true, "sql": true,
	}
	documentExts = map[string]bool{
		"pdf": true, "doc": true, "docx": true, "txt": true, "md": true,
		"rtf": true, "odt": true, "xls": true, "xlsx": true, "ppt": true,
		"pptx": true, "csv": true,
	}
	imageExts = map[string]bool{
		"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true,
		"svg": true, "webp": true, "ico": true, "heic": true,
	}
	mediaExts = map[string]bool{
		"mp3": true, "mp4": true, "wav": true, "avi": true, "mkv": true,
		"mov": true, "flac": true, "ogg": true, "webm": true,
	}
)

// Categorize assigns a category. Path substring signals are checked first
// and always win over the extension class.
func Categorize(path, name string) string {
	p := strings.ToLower(path)

	switch {
	case strings.Contains(p, "node_modules"), strings.Contains(p, "target"), strings.Contains(p, ".git"):
		return CategoryDev
	case strings.Contains(p, "temp"), strings.Contains(p, "cache"), strings.Contains(p, "tmp"):
		return CategoryTemp
	case strings.Contains(p, "system"), strings.Contains(p, "log"):
		return CategorySystem
	case strings.Contains(p, "document"), strings.Contains(p, "work"):
		return CategoryWork
	case strings.Contains(p, "picture"), strings.Contains(p, "photo"), strings.Contains(p, "image"):
		return CategoryPersonal
	}

	ext := extensionOf(name)
	switch {
	case sourceExts[ext]:
		return CategoryDev
	case documentExts[ext]:
		return CategoryDocument
	case imageExts[ext]:
		return CategoryImage
	case mediaExts[ext]:
		return CategoryMedia
	}
	return CategoryOther
}

func extensionOf(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 && idx < len(name)-1 {
		return strings.ToLower(name[idx+1:])
	}
	return ""
}

// filterByTypes keeps only results whose extension is in types. Types may
// be given with or without a leading dot. An empty filter keeps everything.
func filterByTypes(results []core.SearchResult, types []string) []core.SearchResult {
	if len(types) == 0 {
		return results
	}

	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[strings.ToLower(strings.TrimPrefix(t, "."))] = true
	}

	out := make([]core.SearchResult, 0, len(results))
	for _, r := range results {
		if allowed[extensionOf(r.Name)] {
			out = append(out, r)
		}
	}
	return out
}
