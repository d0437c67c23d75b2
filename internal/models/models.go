package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies a conversion strategy
type Kind string

const (
	KindOffice      Kind = "office"
	KindImage       Kind = "image"
	KindHTMLFile    Kind = "html-file"
	KindHTMLString  Kind = "html-string"
	KindEmail       Kind = "email"
	KindPDFToOffice Kind = "pdf-to-office"
	KindPDFToImage  Kind = "pdf-to-image"
)

// AllKinds returns every conversion kind in a stable order
func AllKinds() []Kind {
	return []Kind{
		KindOffice,
		KindImage,
		KindHTMLFile,
		KindHTMLString,
		KindEmail,
		KindPDFToOffice,
		KindPDFToImage,
	}
}

// ParseKind converts a wire value into a Kind
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds() {
		if string(k) == strings.TrimSpace(s) {
			return k, nil
		}
	}
	return "", InvalidInput(fmt.Sprintf("unknown conversion type: %q", s), nil)
}

// ToPDF reports whether the kind produces a PDF
func (k Kind) ToPDF() bool {
	switch k {
	case KindOffice, KindImage, KindHTMLFile, KindHTMLString, KindEmail:
		return true
	}
	return false
}

// FromPDF reports whether the kind consumes a PDF
func (k Kind) FromPDF() bool {
	return k == KindPDFToOffice || k == KindPDFToImage
}

// Extension sets accepted per kind (lower case, with dot)
var (
	OfficeExtensions = []string{".docx", ".doc", ".odt", ".rtf", ".xlsx", ".xls", ".ods", ".pptx", ".ppt", ".odp"}
	ImageExtensions  = []string{".jpg", ".jpeg", ".png"}
	HTMLExtensions   = []string{".html", ".htm"}
	EmailExtensions  = []string{".eml"}
	PDFExtensions    = []string{".pdf"}
)

// Extensions returns the file extensions a kind accepts. Inline kinds return nil.
func (k Kind) Extensions() []string {
	switch k {
	case KindOffice:
		return OfficeExtensions
	case KindImage:
		return ImageExtensions
	case KindHTMLFile:
		return HTMLExtensions
	case KindEmail:
		return EmailExtensions
	case KindPDFToOffice, KindPDFToImage:
		return PDFExtensions
	}
	return nil
}

// AcceptsPath reports whether the file extension of path is valid for the kind
func (k Kind) AcceptsPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range k.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// KindForPath classifies a to-PDF input by extension
func KindForPath(path string) (Kind, error) {
	for _, k := range []Kind{KindOffice, KindImage, KindHTMLFile, KindEmail} {
		if k.AcceptsPath(path) {
			return k, nil
		}
	}
	return "", InvalidInput(fmt.Sprintf("unsupported file type: %s", filepath.Base(path)), nil)
}

// Options carries per-job tuning
type Options struct {
	Scale     float64 `json:"scale,omitempty"`
	PageRange string  `json:"pageRange,omitempty"`
}

// Descriptor is the immutable input to a conversion
type Descriptor struct {
	Kind       Kind    `json:"kind"`
	SourcePath string  `json:"inputPath,omitempty"`
	Content    string  `json:"htmlContent,omitempty"`
	Options    Options `json:"options"`
}

// Validate checks that exactly one of SourcePath/Content is populated for the kind
func (d Descriptor) Validate() error {
	if _, err := ParseKind(string(d.Kind)); err != nil {
		return err
	}
	if d.Kind == KindHTMLString {
		if strings.TrimSpace(d.Content) == "" {
			return InvalidInput("no HTML content provided", nil)
		}
		if d.SourcePath != "" {
			return InvalidInput("html-string jobs take inline content, not a path", nil)
		}
		return nil
	}
	if d.Content != "" {
		return InvalidInput(fmt.Sprintf("%s jobs take a path, not inline content", d.Kind), nil)
	}
	// pdf-to-image only asks for an output directory; the source is read by the caller
	if d.Kind == KindPDFToImage {
		return nil
	}
	if strings.TrimSpace(d.SourcePath) == "" {
		return InvalidInput("invalid file path", nil)
	}
	return nil
}

// Status represents the state of a job record
type Status string

const (
	StatusQueued     Status = "queued"
	StatusConverting Status = "converting"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// CanTransition reports whether moving from s to next is legal
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusConverting
	case StatusConverting:
		return next == StatusDone || next == StatusFailed
	}
	return false
}

// JobRecord is one entry in the job queue
type JobRecord struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Descriptor  Descriptor `json:"descriptor"`
	Status      Status     `json:"status"`
	OutputPath  string     `json:"outputPath,omitempty"`
	OutputDir   string     `json:"outputDir,omitempty"`
	Error       string     `json:"error,omitempty"`
	ErrorKind   ErrorKind  `json:"errorKind,omitempty"`
	StartedAt   time.Time  `json:"startedAt,omitempty"`
	FinishedAt  time.Time  `json:"finishedAt,omitempty"`
}

// Transition moves the record to next, rejecting illegal moves
func (r *JobRecord) Transition(next Status, now time.Time) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("job %s: illegal transition %s -> %s", r.ID, r.Status, next)
	}
	r.Status = next
	if next == StatusConverting {
		r.StartedAt = now
	}
	if next.Terminal() {
		r.FinishedAt = now
	}
	return nil
}

// Apply records a conversion outcome and moves the record to its terminal state
func (r *JobRecord) Apply(out Outcome, now time.Time) error {
	next := StatusFailed
	if out.Success {
		next = StatusDone
	}
	if err := r.Transition(next, now); err != nil {
		return err
	}
	r.OutputPath = out.OutputPath
	r.OutputDir = out.OutputDir
	r.Error = out.Error
	r.ErrorKind = out.ErrorKind
	return nil
}

// Duration returns how long the record spent converting
func (r JobRecord) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the structured result of a conversion attempt
type Outcome struct {
	Success    bool      `json:"success"`
	OutputPath string    `json:"outputPath,omitempty"`
	OutputDir  string    `json:"outputDir,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  ErrorKind `json:"errorKind,omitempty"`
}

// Succeeded builds a successful outcome for a produced file
func Succeeded(path string) Outcome {
	return Outcome{Success: true, OutputPath: path, OutputDir: filepath.Dir(path)}
}

// SucceededDir builds a successful outcome that only names a directory
func SucceededDir(dir string) Outcome {
	return Outcome{Success: true, OutputDir: dir}
}

// Failed builds a failure outcome from any error
func Failed(err error) Outcome {
	if err == nil {
		err = NewError(ErrorKindIO, "conversion failed", nil)
	}
	return Outcome{Error: err.Error(), ErrorKind: KindOf(err)}
}

// StatusUpdate is a message from the worker about task status
type StatusUpdate struct {
	TaskID   string
	Kind     Kind
	Status   Status
	Message  string
	Error    error
	Duration time.Duration
}

// Stats tracks queue statistics
type Stats struct {
	Total      int
	Queued     int
	Converting int
	Succeeded  int
	Failed     int
}
