package trasse

import (
	"errors"
	"strconv"
)

// Logging errors
const (
	ErrEmptyPortFormat     = "Empty port format, using default port %s"
	ErrInvalidPortFormat   = "Invalid port format, using default port %s"
	ErrCacheCreationFailed = "Cache creation failed"
	ErrRecoveredFromError  = "Recovered from error"
	ErrTableBuildFailed    = "Routing table build failed"
)

// Route construction errors
var (
	// ErrPatternSyntax is wrapped by every *PatternSyntaxError
	ErrPatternSyntax = errors.New("invalid path pattern")

	// ErrIncompleteRoute reports a route finalized without a path,
	// method, or effect, or staged out of order
	ErrIncompleteRoute = errors.New("incomplete route definition")
)

// Rendering errors
var (
	ErrJSONMarshal           = errors.New("failed to marshal JSON")
	ErrYAMLMarshal           = errors.New("failed to marshal YAML")
	ErrTOMLMarshal           = errors.New("failed to marshal TOML")
	ErrProtoBufMarshal       = errors.New("failed to marshal ProtoBuf")
	ErrProtoMessageInterface = errors.New("data does not implement proto.Message interface")
)

// PatternSyntaxError describes why a path template failed to compile
type PatternSyntaxError struct {
	Template string
	Reason   string
}

func (e *PatternSyntaxError) Error() string {
	return "pattern " + strconv.Quote(e.Template) + ": " + e.Reason
}

// Unwrap makes errors.Is(err, ErrPatternSyntax) hold for every syntax error
func (e *PatternSyntaxError) Unwrap() error {
	return ErrPatternSyntax
}

func syntaxError(template, reason string) error {
	return &PatternSyntaxError{Template: template, Reason: reason}
}
