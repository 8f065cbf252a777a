package source

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/redline/internal/admission"
	"github.com/dshills/redline/internal/stage"
)

// Options controls which files are collected.
type Options struct {
	// Include keeps only paths matching one of these globs.
	Include []string
	// Exclude drops paths matching one of these globs.
	Exclude []string
	// Git lists tracked and untracked-but-not-ignored files with
	// git ls-files instead of walking the directory.
	Git bool
}

// Collect lists candidate files under root in lexical path order. Paths are
// relative to root with forward slashes.
func Collect(root string, opts Options) ([]admission.RawFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return []admission.RawFile{fileCandidate(filepath.Dir(root), filepath.Base(root), info.Size())}, nil
	}

	var paths []string
	if opts.Git {
		paths, err = gitFiles(root)
	} else {
		paths, err = walkFiles(root)
	}
	if err != nil {
		return nil, err
	}

	var out []admission.RawFile
	for _, p := range paths {
		if len(opts.Include) > 0 && !MatchesAny(p, opts.Include) {
			continue
		}
		if len(opts.Exclude) > 0 && MatchesAny(p, opts.Exclude) {
			continue
		}
		fi, err := os.Lstat(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		out = append(out, fileCandidate(root, p, fi.Size()))
	}
	return out, nil
}

func fileCandidate(root, rel string, size int64) admission.RawFile {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	rel = filepath.ToSlash(rel)
	return admission.RawFile{
		Name: filepath.Base(abs),
		Path: rel,
		Size: size,
		Load: func() ([]byte, error) { return os.ReadFile(abs) },
	}
}

// walkFiles lists regular files below root. The .git directory holds
// repository internals rather than user files and is not descended into.
func walkFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable directories are skipped, not fatal
			if d != nil && d.IsDir() && p != root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return paths, nil
}

func gitFiles(root string) ([]string, error) {
	out, err := gitOutput(root, "ls-files", "-z", "--cached", "--others", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}
	seen := make(map[string]bool)
	var paths []string
	for _, p := range strings.Split(out, "\x00") {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}

// GitDir returns the git directory of the repository containing dir.
func GitDir(dir string) (string, error) {
	out, err := gitOutput(dir, "rev-parse", "--git-dir")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	gd := strings.TrimSpace(out)
	if !filepath.IsAbs(gd) {
		gd = filepath.Join(dir, gd)
	}
	return gd, nil
}

// Reader reads a single candidate from r, typically stdin.
func Reader(name string, r io.Reader) (admission.RawFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return admission.RawFile{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if data == nil {
		data = []byte{}
	}
	return admission.RawFile{
		Name: filepath.Base(name),
		Path: filepath.ToSlash(name),
		Size: int64(len(data)),
		Data: data,
	}, nil
}

// MatchesAny returns true if the path matches any of the given glob patterns.
// A leading "**/" also matches at the top level.
func MatchesAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, p)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(p))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, p)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Write stores files under dir at their relative paths. Paths that would
// escape dir are rejected.
func Write(dir string, files []stage.File) error {
	for _, f := range files {
		rel := filepath.FromSlash(f.Path)
		if filepath.IsAbs(rel) || !filepath.IsLocal(rel) {
			return fmt.Errorf("refusing to write %q outside %s", f.Path, dir)
		}
		dst := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dst, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Path, err)
		}
	}
	return nil
}
