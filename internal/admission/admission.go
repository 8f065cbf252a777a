package admission

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/redline/internal/stage"
)

// RawFile is a candidate descriptor from whatever selected the files.
// Content comes from Data, or from Load when Data is nil; Load is only
// called for candidates that pass every path and size check.
type RawFile struct {
	Name string
	Path string
	Size int64
	Data []byte
	Load func() ([]byte, error)
}

func (r RawFile) key() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Name
}

func (r RawFile) declaredSize() int64 {
	if r.Size > 0 || r.Data == nil {
		return r.Size
	}
	return int64(len(r.Data))
}

func (r RawFile) bytes() ([]byte, error) {
	if r.Data != nil || r.Load == nil {
		return r.Data, nil
	}
	return r.Load()
}

// Outcome is the result of admitting one batch.
type Outcome struct {
	Accepted         []stage.File `json:"accepted"`
	AcceptedBytes    int64        `json:"acceptedBytes"`
	SkippedIgnored   int          `json:"skippedIgnored"`
	SkippedSensitive int          `json:"skippedSensitive"`
	SkippedLarge     int          `json:"skippedLarge"`
	SkippedDuplicate int          `json:"skippedDuplicate"`
	SkippedBinary    int          `json:"skippedBinary"`
	LimitReached     bool         `json:"limitReached"`
}

// Skipped returns the number of rejected candidates. Candidates left
// unevaluated after the limit was reached are not included.
func (o Outcome) Skipped() int {
	return o.SkippedIgnored + o.SkippedSensitive + o.SkippedLarge + o.SkippedDuplicate + o.SkippedBinary
}

// Notice summarizes every non-zero skip counter and the limit flag in a
// fixed order. It returns "" when nothing was skipped.
func (o Outcome) Notice() string {
	var parts []string
	for _, c := range []struct {
		n     int
		label string
	}{
		{o.SkippedIgnored, "ignored"},
		{o.SkippedSensitive, "sensitive"},
		{o.SkippedLarge, "large"},
		{o.SkippedDuplicate, "duplicate"},
		{o.SkippedBinary, "binary"},
	} {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("skipped %d %s", c.n, c.label))
		}
	}
	if o.LimitReached {
		parts = append(parts, "limit reached")
	}
	return strings.Join(parts, ", ")
}

// Controller applies a validated Policy.
type Controller struct {
	policy    Policy
	ignored   segmentMatcher
	sensitive globMatcher
	logger    *zap.Logger
}

// New validates p and returns a Controller. A nil logger discards output.
func New(p Policy, logger *zap.Logger) (*Controller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		policy:    p,
		ignored:   newSegmentMatcher(p.IgnoredSegments),
		sensitive: newGlobMatcher(p.SensitivePatterns),
		logger:    logger.Named("admission"),
	}, nil
}

// Policy returns the controller's policy.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Admit evaluates candidates in order against the staged paths and byte
// total the caller already holds. It has no side effects beyond the
// returned Outcome.
func (c *Controller) Admit(candidates []RawFile, existingPaths map[string]struct{}, existingTotal int64) Outcome {
	var out Outcome
	pre := c.prefetch(candidates, existingPaths, existingTotal)
	accepted := make(map[string]struct{})
	count := len(existingPaths)
	total := existingTotal

	for i, cand := range candidates {
		p := cand.key()
		log := c.logger.With(zap.String("path", p))

		if c.ignored.match(p) {
			out.SkippedIgnored++
			continue
		}
		if c.sensitive.match(p) && !c.policy.AllowSensitive {
			out.SkippedSensitive++
			log.Debug("skipped sensitive file")
			continue
		}
		if _, ok := existingPaths[p]; ok {
			out.SkippedDuplicate++
			continue
		}
		if _, ok := accepted[p]; ok {
			out.SkippedDuplicate++
			continue
		}
		if count >= c.policy.MaxFileCount {
			out.LimitReached = true
			break
		}
		size := cand.declaredSize()
		if size > c.policy.MaxFileSizeBytes {
			out.SkippedLarge++
			log.Debug("skipped large file", zap.Int64("size", size))
			continue
		}
		if total+size > c.policy.MaxTotalSizeBytes {
			out.LimitReached = true
			break
		}

		var d decoded
		if pre != nil && pre[i] != nil {
			d = *pre[i]
		} else {
			d = decodeFile(cand)
		}
		// Declared sizes can be wrong; the bytes actually read decide.
		if !d.binary && d.size != size {
			if d.size > c.policy.MaxFileSizeBytes {
				out.SkippedLarge++
				continue
			}
			if total+d.size > c.policy.MaxTotalSizeBytes {
				out.LimitReached = true
				break
			}
		}
		if d.binary {
			out.SkippedBinary++
			log.Debug("skipped binary file")
			continue
		}

		out.Accepted = append(out.Accepted, stage.NewFile(p, d.text, d.size))
		out.AcceptedBytes += d.size
		accepted[p] = struct{}{}
		count++
		total += d.size
	}

	c.logger.Info("batch admitted",
		zap.Int("candidates", len(candidates)),
		zap.Int("accepted", len(out.Accepted)),
		zap.Int64("acceptedBytes", out.AcceptedBytes),
		zap.Int("skipped", out.Skipped()),
		zap.Bool("limitReached", out.LimitReached),
	)
	return out
}

// prefetch decodes, in parallel, the leading candidates that could still be
// accepted once the cheap checks pass. Anything outside that window is
// decoded lazily by Admit, so results never depend on prefetching.
func (c *Controller) prefetch(candidates []RawFile, existingPaths map[string]struct{}, existingTotal int64) []*decoded {
	if c.policy.Workers < 2 {
		return nil
	}
	results := make([]*decoded, len(candidates))
	slots := c.policy.MaxFileCount - len(existingPaths)
	budget := c.policy.MaxTotalSizeBytes - existingTotal

	// Only the first occurrence of a path is prefetched. A repeat is
	// decoded lazily if the earlier one turns out to be rejected.
	seen := make(map[string]struct{})

	var g errgroup.Group
	g.SetLimit(c.policy.Workers)
	for i, cand := range candidates {
		if slots <= 0 {
			break
		}
		p := cand.key()
		if c.ignored.match(p) || (c.sensitive.match(p) && !c.policy.AllowSensitive) {
			continue
		}
		if _, ok := existingPaths[p]; ok {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		size := cand.declaredSize()
		if size > c.policy.MaxFileSizeBytes {
			continue
		}
		if size > budget {
			break
		}
		slots--
		budget -= size
		g.Go(func() error {
			d := decodeFile(cand)
			results[i] = &d
			return nil
		})
	}
	_ = g.Wait()
	return results
}
