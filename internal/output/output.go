package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/redline/internal/admission"
	"github.com/dshills/redline/internal/analysis"
	"github.com/dshills/redline/internal/gate"
)

// Writer writes a document in a specific format.
type Writer interface {
	Write(w io.Writer, doc *Document) error
}

// Admission is the content-free view of an admission outcome.
type Admission struct {
	Accepted         int    `json:"accepted"`
	AcceptedBytes    int64  `json:"acceptedBytes"`
	SkippedIgnored   int    `json:"skippedIgnored"`
	SkippedSensitive int    `json:"skippedSensitive"`
	SkippedLarge     int    `json:"skippedLarge"`
	SkippedDuplicate int    `json:"skippedDuplicate"`
	SkippedBinary    int    `json:"skippedBinary"`
	LimitReached     bool   `json:"limitReached"`
	Notice           string `json:"notice,omitempty"`
}

// NewAdmission summarizes o without file contents.
func NewAdmission(o admission.Outcome) Admission {
	return Admission{
		Accepted:         len(o.Accepted),
		AcceptedBytes:    o.AcceptedBytes,
		SkippedIgnored:   o.SkippedIgnored,
		SkippedSensitive: o.SkippedSensitive,
		SkippedLarge:     o.SkippedLarge,
		SkippedDuplicate: o.SkippedDuplicate,
		SkippedBinary:    o.SkippedBinary,
		LimitReached:     o.LimitReached,
		Notice:           o.Notice(),
	}
}

// Document is everything one run produced.
type Document struct {
	Tool      string           `json:"tool"`
	Version   string           `json:"version"`
	DryRun    bool             `json:"dryRun,omitempty"`
	Admission Admission        `json:"admission"`
	Gate      gate.Outcome     `json:"gate"`
	Report    *analysis.Report `json:"report,omitempty"`
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, colored bool) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{Color: colored}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteDocument writes doc to outPath, or to stdout when outPath is empty.
// Color is only used for text written to stdout.
func WriteDocument(doc *Document, format, outPath string, colored bool) error {
	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
		colored = false
	}

	writer, err := GetWriter(format, colored)
	if err != nil {
		return err
	}
	return writer.Write(w, doc)
}
