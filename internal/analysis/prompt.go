package analysis

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dshills/redline/internal/gate"
)

const systemPrompt = `You are a strict, expert code reviewer. Your job is to review complete source files and produce structured findings in JSON format.

Rules:
1. Review the full source files provided. Look for bugs, security issues, performance problems, correctness issues, design flaws, and maintainability concerns.
2. Be concise and actionable. Every finding must include a concrete suggestion.
3. Reference line numbers from the source files.
4. Rate severity as "low", "medium", or "high".
5. Rate your confidence from 0.0 to 1.0.
6. Categorize each finding as one of: bug, security, performance, correctness, style, maintainability, testing, docs.
7. Text of the form [REDACTED:NAME] replaced a secret before the files were sent. Do not report it as a bug.

You MUST respond with ONLY a JSON array of findings. No markdown, no explanation, no preamble. Just the JSON array.

Each finding must have this exact structure:
{
  "severity": "low|medium|high",
  "category": "bug|security|performance|correctness|style|maintainability|testing|docs",
  "title": "Short descriptive title",
  "message": "What is wrong and why it matters",
  "suggestion": "How to fix it, with code if helpful",
  "confidence": 0.0-1.0,
  "path": "relative/file/path",
  "startLine": 1,
  "endLine": 1,
  "tags": ["optional", "tags"]
}

If there are no issues, respond with an empty array: []`

// SystemPrompt returns the system prompt for the LLM.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt frames every payload with its path and line numbers.
func BuildUserPrompt(payloads []gate.Payload, maxFindings int) string {
	var b strings.Builder

	b.WriteString("Review the following complete source files.\n\n")
	if maxFindings > 0 {
		fmt.Fprintf(&b, "Return at most %d findings total.\n", maxFindings)
	}

	paths := make([]string, len(payloads))
	for i, p := range payloads {
		paths[i] = p.Path
	}
	if langs := detectLanguages(paths); len(langs) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(langs, ", "))
	}

	b.WriteString("\n--- BEGIN SOURCE FILES ---\n")
	for _, p := range payloads {
		fmt.Fprintf(&b, "=== FILE: %s ===\n", p.Path)
		for i, line := range strings.Split(strings.TrimRight(p.Content, "\n"), "\n") {
			fmt.Fprintf(&b, "%5d| %s\n", i+1, line)
		}
	}
	b.WriteString("--- END SOURCE FILES ---\n")

	return b.String()
}

func repairPrompt(parseErr error, previous string) string {
	return fmt.Sprintf(
		"Your previous response was not valid JSON. The error was: %s\n\nPlease fix it and respond with ONLY a valid JSON array of findings.\n\nYour previous response was:\n%s",
		parseErr.Error(), previous,
	)
}

var langMap = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript/React",
	".jsx":   "JavaScript/React",
	".rs":    "Rust",
	".java":  "Java",
	".rb":    "Ruby",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".sql":   "SQL",
	".sh":    "Shell",
	".yaml":  "YAML",
	".yml":   "YAML",
	".json":  "JSON",
	".tf":    "Terraform",
}

// detectLanguages returns the sorted set of languages named by extension.
func detectLanguages(files []string) []string {
	seen := make(map[string]bool)
	var langs []string
	for _, f := range files {
		lang, ok := langMap[strings.ToLower(path.Ext(f))]
		if ok && !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}
