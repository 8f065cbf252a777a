package server

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dshills/redline/internal/admission"
	"github.com/dshills/redline/internal/output"
	"github.com/dshills/redline/internal/session"
)

// FileRequest is one candidate file. Exactly one of Data (base64 bytes) or
// Content (text) is expected.
type FileRequest struct {
	Path    string  `json:"path" validate:"required,max=4096"`
	Data    string  `json:"data,omitempty" validate:"omitempty,base64"`
	Content *string `json:"content,omitempty"`
}

// StageRequest adds a batch of candidates to a session.
type StageRequest struct {
	Files []FileRequest `json:"files" validate:"required,min=1,dive"`
}

// AnalyzeRequest runs one analyze attempt. Nil fields fall back to the
// server defaults.
type AnalyzeRequest struct {
	Redact          *bool `json:"redact"`
	AllowUnredacted *bool `json:"allowUnredacted"`
}

// StageResponse reports what admission did with a batch.
type StageResponse struct {
	Admission output.Admission `json:"admission"`
	Session   session.Info     `json:"session"`
}

// AnalyzeResponse is the result of an analyze attempt.
type AnalyzeResponse struct {
	session.Result
	Warning string `json:"warning,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

var validate = validator.New()

var errNoBody = errors.New("either data or content is required")

func validateRequest(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func (f FileRequest) rawFile() (admission.RawFile, error) {
	var data []byte
	switch {
	case f.Content != nil:
		data = []byte(*f.Content)
	case f.Data != "":
		b, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return admission.RawFile{}, fmt.Errorf("%s: %w", f.Path, err)
		}
		data = b
	default:
		return admission.RawFile{}, fmt.Errorf("%s: %w", f.Path, errNoBody)
	}
	return admission.RawFile{
		Path: f.Path,
		Size: int64(len(data)),
		Data: data,
	}, nil
}

func (r AnalyzeRequest) options(def session.Options) session.Options {
	opts := def
	if r.Redact != nil {
		opts.Redact = *r.Redact
	}
	if r.AllowUnredacted != nil {
		opts.AllowUnredacted = *r.AllowUnredacted
	}
	return opts
}
