package source

import "fmt"

// Span represents a range in the source text (rune offsets, end exclusive).
type Span struct {
	Start int
	End   int
}

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Start, s.End)
}

// DiagnosticLevel indicates severity.
type DiagnosticLevel int

const (
	DiagError DiagnosticLevel = iota
	DiagWarning
)

func (l DiagnosticLevel) String() string {
	if l == DiagWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic codes, one per pipeline stage.
const (
	CodeLex         = "LEX_ERROR"
	CodeParse       = "PARSE_ERROR"
	CodeRefine      = "REFINE_ERROR"
	CodeScope       = "SCOPE_ERROR"
	CodeUnsupported = "UNSUPPORTED"
	CodeInternal    = "INTERNAL"
)

// Diagnostic is a compiler message with source location. It doubles as the
// error value returned by every stage before execution.
type Diagnostic struct {
	Level   DiagnosticLevel
	Span    Span
	Message string
	Code    string
}

// Errorf builds an error-level diagnostic.
func Errorf(code string, span Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Level: DiagError, Span: span, Message: fmt.Sprintf(format, args...), Code: code}
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s %s at %s: %s", d.Level, d.Code, d.Span, d.Message)
}
