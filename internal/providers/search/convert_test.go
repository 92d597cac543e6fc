package search

import (
	"testing"

	"github.com/sandevgo/filepilot/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5242880, "5.0 MB"},
		{1073741824, "1.0 GB"},
		{1610612736, "1.5 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFileSize(tt.bytes))
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		// Path signals win over extension.
		{"manual.pdf", "/proj/node_modules/manual.pdf", CategoryDev},
		{"out.bin", "/build/target/out.bin", CategoryDev},
		{"cfg", "/repo/.git/cfg", CategoryDev},
		{"x.pdf", "/var/temp/x.pdf", CategoryTemp},
		{"y.doc", "/home/cache/y.doc", CategoryTemp},
		{"z", "/tmp/z", CategoryTemp},
		{"kern", "/system/kern", CategorySystem},
		{"app.txt", "/var/log/app.txt", CategorySystem},
		{"a.png", "/home/documents/a.png", CategoryWork},
		{"b.mp3", "/home/work/b.mp3", CategoryWork},
		{"c.txt", "/home/pictures/c.txt", CategoryPersonal},
		{"d.go", "/home/photos/d.go", CategoryPersonal},
		// Extension fallback.
		{"main.go", "/home/user/main.go", CategoryDev},
		{"report.pdf", "/home/user/report.pdf", CategoryDocument},
		{"selfie.jpg", "/home/user/selfie.jpg", CategoryImage},
		{"song.mp3", "/home/user/song.mp3", CategoryMedia},
		{"data.xyz", "/home/user/data.xyz", CategoryOther},
		{"noext", "/home/user/noext", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.path, tt.name))
		})
	}
}

func TestFileNameFromPath(t *testing.T) {
	assert.Equal(t, "a.txt", fileNameFromPath("/home/user/a.txt"))
	assert.Equal(t, "b.doc", fileNameFromPath(`C:\Users\me\b.doc`))
	assert.Equal(t, "mixed.md", fileNameFromPath(`C:\Users\me/notes/mixed.md`))
	assert.Equal(t, "bare", fileNameFromPath("bare"))
}

func TestConvertResults(t *testing.T) {
	raw := []core.BackendResult{
		{
			Path:           "/home/user/report.pdf",
			Size:           1536,
			Modified:       "2026-08-01T10:00:00Z",
			RelevanceScore: 0.8,
			SourceEngine:   "index",
			Snippet:        "quarterly numbers",
			FileType:       "pdf",
		},
	}

	got := convertResults(raw)
	assert.Len(t, got, 1)
	assert.Equal(t, "report.pdf", got[0].Name)
	assert.Equal(t, "1.5 KB", got[0].Size)
	assert.Equal(t, CategoryDocument, got[0].Category)
	assert.Equal(t, 0.8, got[0].Score)
	assert.Equal(t, "index", got[0].Source)
	assert.Nil(t, got[0].RelevanceScore)
}

func TestFilterByTypes(t *testing.T) {
	results := []core.SearchResult{
		{Name: "a.pdf"},
		{Name: "b.PDF"},
		{Name: "c.txt"},
		{Name: "noext"},
	}

	got := filterByTypes(results, []string{".pdf"})
	assert.Len(t, got, 2)

	got = filterByTypes(results, []string{"txt", "pdf"})
	assert.Len(t, got, 3)

	got = filterByTypes(results, nil)
	assert.Len(t, got, 4)
}
