package gate

import (
	"go.uber.org/zap"

	"github.com/dshills/redline/internal/redact"
	"github.com/dshills/redline/internal/stage"
)

// Reason explains why a transmission was blocked.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonSecretsDetected   Reason = "secrets_detected"
	ReasonNoFiles           Reason = "no_files"
	ReasonMissingCredential Reason = "missing_credential"
)

// Message returns a human-readable explanation of the block.
func (r Reason) Message() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonSecretsDetected:
		return "secrets were detected and redaction is disabled; enable redaction or explicitly allow unredacted sending"
	case ReasonNoFiles:
		return "no files are staged"
	case ReasonMissingCredential:
		return "the analysis provider credential is not configured"
	default:
		return string(r)
	}
}

// Payload is one file as handed to the analysis provider.
type Payload struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Outcome is the gate decision for one analyze attempt. Summary is set in
// every case, including blocked ones.
type Outcome struct {
	Blocked  bool           `json:"blocked"`
	Reason   Reason         `json:"reason,omitempty"`
	Message  string         `json:"message,omitempty"`
	Files    []stage.File   `json:"-"`
	Summary  redact.Summary `json:"summary"`
	Redacted bool           `json:"redacted"`
	// Override is set when secrets were found and the caller explicitly
	// chose to send the originals. Callers must surface it to the user.
	Override bool `json:"override"`
}

// Payloads returns the ordered path/content pairs to transmit. It is empty
// when the outcome is blocked.
func (o Outcome) Payloads() []Payload {
	if o.Blocked {
		return nil
	}
	out := make([]Payload, len(o.Files))
	for i, f := range o.Files {
		out[i] = Payload{Path: f.Path, Content: f.Content}
	}
	return out
}

// Block returns a blocked outcome carrying summary and the reason's message.
func Block(reason Reason, summary redact.Summary) Outcome {
	return Outcome{Blocked: true, Reason: reason, Message: reason.Message(), Summary: summary}
}

// Gate applies a redaction catalog to staged files.
type Gate struct {
	catalog redact.Catalog
	logger  *zap.Logger
}

// New returns a Gate using catalog. An empty catalog means the default one.
func New(catalog redact.Catalog, logger *zap.Logger) *Gate {
	if len(catalog) == 0 {
		catalog = redact.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{catalog: catalog, logger: logger.Named("gate")}
}

// Prepare redacts staged and decides what to transmit.
//
// With redactEnabled the redacted copies are sent. Without it, originals
// are sent only when nothing matched, or when allowUnredacted explicitly
// overrides the block.
func (g *Gate) Prepare(staged []stage.File, redactEnabled, allowUnredacted bool) Outcome {
	redacted, summary := g.catalog.Scan(staged)
	fields := []zap.Field{
		zap.Int("files", len(staged)),
		zap.Int("matches", summary.TotalMatches),
		zap.Strings("patterns", summary.Patterns),
	}

	switch {
	case redactEnabled:
		g.logger.Debug("sending redacted files", fields...)
		return Outcome{Files: redacted, Summary: summary, Redacted: true}
	case !summary.HasMatches():
		g.logger.Debug("sending original files, nothing to redact", fields...)
		return Outcome{Files: copyFiles(staged), Summary: summary}
	case !allowUnredacted:
		g.logger.Info("blocked unredacted transmission", fields...)
		return Block(ReasonSecretsDetected, summary)
	default:
		g.logger.Warn("sending unredacted files containing secrets", fields...)
		return Outcome{Files: copyFiles(staged), Summary: summary, Override: true}
	}
}

// Prepare runs the default gate without logging.
func Prepare(staged []stage.File, redactEnabled, allowUnredacted bool) Outcome {
	return New(nil, nil).Prepare(staged, redactEnabled, allowUnredacted)
}

func copyFiles(files []stage.File) []stage.File {
	return append([]stage.File(nil), files...)
}
