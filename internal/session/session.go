package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/redline/internal/admission"
	"github.com/dshills/redline/internal/analysis"
	"github.com/dshills/redline/internal/gate"
	"github.com/dshills/redline/internal/providers"
	"github.com/dshills/redline/internal/redact"
	"github.com/dshills/redline/internal/stage"
)

var (
	// ErrAnalysisInFlight is returned when an analyze attempt is already
	// running for the session.
	ErrAnalysisInFlight = errors.New("analysis already in progress")
	// ErrNoAnalyzer is returned when the session was built without one.
	ErrNoAnalyzer = errors.New("no analyzer configured")
)

// Analyzer is the outbound collaborator. It receives the full payload in a
// single call.
type Analyzer interface {
	Analyze(ctx context.Context, payloads []gate.Payload) (*analysis.Report, error)
}

// Deps are shared by every session.
type Deps struct {
	Admission *admission.Controller
	Gate      *gate.Gate
	// NewAnalyzer is resolved on each analyze attempt so that a credential
	// added after startup is picked up.
	NewAnalyzer func() (Analyzer, error)
	Logger      *zap.Logger
}

// Options control one analyze attempt.
type Options struct {
	Redact          bool `json:"redact"`
	AllowUnredacted bool `json:"allowUnredacted"`
}

// Result is the outcome of one analyze attempt. Report is nil when the
// attempt was blocked.
type Result struct {
	Outcome gate.Outcome     `json:"outcome"`
	Report  *analysis.Report `json:"report,omitempty"`
}

// Session owns one staged set.
type Session struct {
	ID        string
	CreatedAt time.Time

	deps   Deps
	logger *zap.Logger

	mu  sync.Mutex
	set *stage.Set

	analyzing sync.Mutex
}

// New creates an empty session.
func New(deps Deps) *Session {
	if deps.Gate == nil {
		deps.Gate = gate.New(nil, deps.Logger)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		deps:      deps,
		logger:    logger.Named("session").With(zap.String("session", id)),
		set:       stage.NewSet(),
	}
}

// Stage admits candidates against the current set and merges the accepted
// files.
func (s *Session) Stage(candidates []admission.RawFile) admission.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.deps.Admission.Admit(candidates, s.set.Paths(), s.set.TotalSize())
	s.set.Add(out.Accepted...)
	if notice := out.Notice(); notice != "" {
		s.logger.Info("admission notice", zap.String("notice", notice))
	}
	return out
}

// Remove unstages one file.
func (s *Session) Remove(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Remove(p)
}

// Clear unstages everything.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set.Clear()
}

// Files returns a copy of the staged files in staging order.
func (s *Session) Files() []stage.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Files()
}

// FileInfo describes a staged file without its content.
type FileInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Info is a content-free view of a session.
type Info struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	Files     []FileInfo `json:"files"`
	Count     int        `json:"count"`
	TotalSize int64      `json:"totalSize"`
}

// Info returns the session's current state.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := s.set.Files()
	info := Info{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Files:     make([]FileInfo, len(files)),
		Count:     len(files),
		TotalSize: s.set.TotalSize(),
	}
	for i, f := range files {
		info.Files[i] = FileInfo{Name: f.Name, Path: f.Path, Size: f.Size}
	}
	return info
}

// Analyze runs one attempt over a snapshot of the staged set. Blocked
// outcomes are returned as results, not errors, and never reach the
// analyzer. A second call while one is running fails with
// ErrAnalysisInFlight.
func (s *Session) Analyze(ctx context.Context, opts Options) (Result, error) {
	if !s.analyzing.TryLock() {
		return Result{}, ErrAnalysisInFlight
	}
	defer s.analyzing.Unlock()

	files := s.Files()
	if len(files) == 0 {
		return Result{Outcome: gate.Block(gate.ReasonNoFiles, emptySummary())}, nil
	}

	// The gate runs before the credential check so every block after this
	// point still reports what redaction found.
	outcome := s.deps.Gate.Prepare(files, opts.Redact, opts.AllowUnredacted)
	if outcome.Blocked {
		return Result{Outcome: outcome}, nil
	}

	analyzer, err := s.resolveAnalyzer()
	if err != nil {
		if providers.IsMissingCredential(err) {
			s.logger.Info("analysis blocked", zap.String("reason", string(gate.ReasonMissingCredential)))
			return Result{Outcome: gate.Block(gate.ReasonMissingCredential, outcome.Summary)}, nil
		}
		return Result{}, err
	}

	report, err := analyzer.Analyze(ctx, outcome.Payloads())
	if err != nil {
		return Result{Outcome: outcome}, fmt.Errorf("analyzing session %s: %w", s.ID, err)
	}
	return Result{Outcome: outcome, Report: report}, nil
}

func (s *Session) resolveAnalyzer() (Analyzer, error) {
	if s.deps.NewAnalyzer == nil {
		return nil, ErrNoAnalyzer
	}
	a, err := s.deps.NewAnalyzer()
	if err != nil {
		return nil, fmt.Errorf("creating analyzer: %w", err)
	}
	return a, nil
}

func emptySummary() redact.Summary {
	return redact.Summary{Patterns: []string{}}
}
