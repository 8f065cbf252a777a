package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/redline/internal/admission"
	"github.com/dshills/redline/internal/analysis"
	"github.com/dshills/redline/internal/gate"
	"github.com/dshills/redline/internal/redact"
	"github.com/dshills/redline/internal/stage"
)

func TestJSONWriter(t *testing.T) {
	doc := &Document{
		Tool:      "redline",
		Version:   "1.0",
		Admission: Admission{Accepted: 1, AcceptedBytes: 10},
		Gate: gate.Outcome{
			Redacted: true,
			Files:    []stage.File{stage.NewFile("main.go", "secret body", 11)},
			Summary:  redact.Summary{TotalMatches: 1, FilesWithMatches: 1, Patterns: []string{"JWT"}},
		},
		Report: &analysis.Report{
			RunID: "test-run",
			Findings: []analysis.Finding{
				{ID: "abc", Severity: analysis.SeverityHigh, Title: "Test"},
			},
		},
	}

	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, doc); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed Document
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.Tool != "redline" {
		t.Errorf("Tool = %q, want %q", parsed.Tool, "redline")
	}
	if parsed.Gate.Summary.TotalMatches != 1 {
		t.Errorf("TotalMatches = %d, want 1", parsed.Gate.Summary.TotalMatches)
	}
	if parsed.Report == nil || len(parsed.Report.Findings) != 1 {
		t.Fatalf("Report = %+v", parsed.Report)
	}
	if strings.Contains(buf.String(), "secret body") {
		t.Error("JSON output must not include file contents")
	}
}

func TestJSONWriter_BlockedOmitsReport(t *testing.T) {
	doc := &Document{Gate: gate.Block(gate.ReasonSecretsDetected, redact.Summary{Patterns: []string{}})}
	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, doc); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"reason": "secrets_detected"`) {
		t.Errorf("missing reason:\n%s", out)
	}
	if strings.Contains(out, `"report"`) {
		t.Error("blocked output should omit the report")
	}
}

func TestNewAdmission(t *testing.T) {
	o := admission.Outcome{
		Accepted:       []stage.File{stage.NewFile("a.go", "package a", 9)},
		AcceptedBytes:  9,
		SkippedIgnored: 2,
		LimitReached:   true,
	}
	got := NewAdmission(o)
	if got.Accepted != 1 || got.AcceptedBytes != 9 || got.SkippedIgnored != 2 || !got.LimitReached {
		t.Errorf("NewAdmission = %+v", got)
	}
	if got.Notice != "skipped 2 ignored, limit reached" {
		t.Errorf("Notice = %q", got.Notice)
	}
}

func TestGetWriter(t *testing.T) {
	for _, f := range []string{"text", "json", ""} {
		if _, err := GetWriter(f, false); err != nil {
			t.Errorf("GetWriter(%q) error: %v", f, err)
		}
	}
	if _, err := GetWriter("sarif", false); err == nil {
		t.Error("GetWriter(sarif) should fail")
	}
}

func TestWriteDocument_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteDocument(&Document{Tool: "redline"}, "json", path, true); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"tool": "redline"`) {
		t.Errorf("file content = %s", data)
	}
}
