package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which bootstrap step produced the error
type Phase string

const (
	PhasePlatform    Phase = "platform"    // host detection
	PhaseConfig      Phase = "config"      // configuration loading
	PhaseExtract     Phase = "extract"     // bundle extraction
	PhaseProbe       Phase = "probe"       // instruction set resolution
	PhaseActivate    Phase = "activate"    // dynamic loading
	PhaseInitialize  Phase = "initialize"  // orchestration
	PhaseMaterialise Phase = "materialise" // engine invocation
)

// Kind names the failure condition
type Kind string

const (
	KindUnsupportedPlatform     Kind = "unsupported_platform"
	KindConfigUnavailable       Kind = "configuration_unavailable"
	KindResourceMissing         Kind = "resource_missing"
	KindExtractionFailed        Kind = "extraction_failed"
	KindInvalidInstructionSet   Kind = "invalid_instruction_set_override"
	KindLibraryNameUnresolvable Kind = "library_name_unresolvable"
	KindLibraryLoadFailed       Kind = "library_load_failed"
	KindProbeFailed             Kind = "probe_failed"
	KindSymbolMissing           Kind = "symbol_missing"
	KindNotInitialized          Kind = "not_initialized"
	KindInvalidInput            Kind = "invalid_input"
	KindEngineFailed            Kind = "engine_failed"
)

// Sentinels match any *Error of the same Kind.
var (
	ErrUnsupportedPlatform     = &Error{Kind: KindUnsupportedPlatform}
	ErrConfigUnavailable       = &Error{Kind: KindConfigUnavailable}
	ErrResourceMissing         = &Error{Kind: KindResourceMissing}
	ErrExtractionFailed        = &Error{Kind: KindExtractionFailed}
	ErrInvalidInstructionSet   = &Error{Kind: KindInvalidInstructionSet}
	ErrLibraryNameUnresolvable = &Error{Kind: KindLibraryNameUnresolvable}
	ErrLibraryLoadFailed       = &Error{Kind: KindLibraryLoadFailed}
	ErrProbeFailed             = &Error{Kind: KindProbeFailed}
	ErrSymbolMissing           = &Error{Kind: KindSymbolMissing}
	ErrNotInitialized          = &Error{Kind: KindNotInitialized}
	ErrInvalidInput            = &Error{Kind: KindInvalidInput}
	ErrEngineFailed            = &Error{Kind: KindEngineFailed}
)

// Error is the structured error type used throughout the bootstrap
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Library string
	Path    string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Library != "" {
		b.WriteString(" library ")
		b.WriteString(e.Library)
	}

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Library sets the library name
func (b *Builder) Library(name string) *Builder {
	b.err.Library = name
	return b
}

// Path sets the filesystem or bundle path
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the named conditions

// UnsupportedPlatform creates an unsupported platform error
func UnsupportedPlatform(detail string, value any) *Error {
	return &Error{
		Phase:  PhasePlatform,
		Kind:   KindUnsupportedPlatform,
		Detail: detail,
		Value:  value,
	}
}

// ConfigUnavailable creates a configuration loading error
func ConfigUnavailable(location string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindConfigUnavailable,
		Path:   location,
		Detail: "cannot load native library configuration",
		Cause:  cause,
	}
}

// ResourceMissing creates an error for an absent bundle entry
func ResourceMissing(library, bundlePath string) *Error {
	return &Error{
		Phase:   PhaseExtract,
		Kind:    KindResourceMissing,
		Library: library,
		Path:    bundlePath,
		Detail:  "resource not found in bundle",
	}
}

// ExtractionFailed creates an extraction error
func ExtractionFailed(library, path, detail string, cause error) *Error {
	return &Error{
		Phase:   PhaseExtract,
		Kind:    KindExtractionFailed,
		Library: library,
		Path:    path,
		Detail:  detail,
		Cause:   cause,
	}
}

// InvalidInstructionSet creates an error for an unknown tier override
func InvalidInstructionSet(value string) *Error {
	return &Error{
		Phase:  PhaseProbe,
		Kind:   KindInvalidInstructionSet,
		Detail: fmt.Sprintf("invalid instruction set %q", value),
		Value:  value,
	}
}

// ProbeFailed creates an error for a failed hardware probe
func ProbeFailed(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseProbe,
		Kind:   KindProbeFailed,
		Detail: detail,
		Cause:  cause,
	}
}

// NameUnresolvable creates an error for a library identifier without a logical name
func NameUnresolvable(library string) *Error {
	return &Error{
		Phase:   PhaseActivate,
		Kind:    KindLibraryNameUnresolvable,
		Library: library,
		Detail:  "could not extract system invariant library name",
	}
}

// LoadFailed creates a dynamic loading error
func LoadFailed(library, path string, cause error) *Error {
	return &Error{
		Phase:   PhaseActivate,
		Kind:    KindLibraryLoadFailed,
		Library: library,
		Path:    path,
		Detail:  "cannot load library",
		Cause:   cause,
	}
}

// SymbolMissing creates an error for an absent exported symbol
func SymbolMissing(phase Phase, library, symbol string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindSymbolMissing,
		Library: library,
		Detail:  fmt.Sprintf("symbol %q not exported", symbol),
		Value:   symbol,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// EngineFailed creates an error for a negative engine status
func EngineFailed(library, symbol string, status int64) *Error {
	return &Error{
		Phase:   PhaseMaterialise,
		Kind:    KindEngineFailed,
		Library: library,
		Detail:  fmt.Sprintf("%s returned status %d", symbol, status),
		Value:   status,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
