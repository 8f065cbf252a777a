package stage

import (
	"path"
	"strings"
)

// File is one staged source file.
type File struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// NewFile builds a File from a batch-relative path and its decoded content.
// Name is derived from the last path segment, accepting either separator.
func NewFile(p, content string, size int64) File {
	return File{
		Name:    path.Base(strings.ReplaceAll(p, `\`, "/")),
		Path:    p,
		Content: content,
		Size:    size,
	}
}

// WithContent returns a copy of f carrying different content. Size keeps
// the originally read byte length.
func (f File) WithContent(content string) File {
	f.Content = content
	return f
}

// Set is an ordered collection of staged files keyed by path.
// It is not safe for concurrent use; the owning session serializes access.
type Set struct {
	files []File
	index map[string]int
	total int64
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Add appends files whose paths are not already present and returns how
// many were added.
func (s *Set) Add(files ...File) int {
	added := 0
	for _, f := range files {
		if _, ok := s.index[f.Path]; ok {
			continue
		}
		s.index[f.Path] = len(s.files)
		s.files = append(s.files, f)
		s.total += f.Size
		added++
	}
	return added
}

// Remove drops the file at path. It reports whether a file was removed.
func (s *Set) Remove(p string) bool {
	i, ok := s.index[p]
	if !ok {
		return false
	}
	s.total -= s.files[i].Size
	s.files = append(s.files[:i], s.files[i+1:]...)
	delete(s.index, p)
	for j := i; j < len(s.files); j++ {
		s.index[s.files[j].Path] = j
	}
	return true
}

// Clear removes every file.
func (s *Set) Clear() {
	s.files = nil
	s.index = make(map[string]int)
	s.total = 0
}

// Files returns a copy of the staged files in admission order.
func (s *Set) Files() []File {
	out := make([]File, len(s.files))
	copy(out, s.files)
	return out
}

// Paths returns the staged paths as a lookup set.
func (s *Set) Paths() map[string]struct{} {
	out := make(map[string]struct{}, len(s.files))
	for _, f := range s.files {
		out[f.Path] = struct{}{}
	}
	return out
}

// Has reports whether path is staged.
func (s *Set) Has(p string) bool {
	_, ok := s.index[p]
	return ok
}

// Len returns the number of staged files.
func (s *Set) Len() int { return len(s.files) }

// TotalSize returns the sum of staged file sizes.
func (s *Set) TotalSize() int64 { return s.total }
