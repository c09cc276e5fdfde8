package output

import "errors"

// Error codes reported by the update commands
const (
	ErrCodeConfigInvalid       = "CONFIG_INVALID"
	ErrCodeInvalidOutputFormat = "INVALID_OUTPUT_FORMAT"
	ErrCodeUpdateCheckFailed   = "UPDATE_CHECK_FAILED"
	ErrCodeUpdateApplyFailed   = "UPDATE_APPLY_FAILED"
	ErrCodeNotARelease         = "NOT_A_RELEASE"
	ErrCodeNoAsset             = "NO_ASSET"
)

// StructuredError is a command failure in a shape scripts can match on.
type StructuredError struct {
	Code            string `json:"code" yaml:"code"`
	Message         string `json:"message" yaml:"message"`
	Guidance        string `json:"guidance,omitempty" yaml:"guidance,omitempty"`
	RecoveryCommand string `json:"recovery_command,omitempty" yaml:"recovery_command,omitempty"`
}

func (e StructuredError) Error() string {
	return e.Message
}

// NewStructuredError creates a StructuredError with the given code and message.
func NewStructuredError(code, message string) StructuredError {
	return StructuredError{Code: code, Message: message}
}

// WithGuidance explains what the user can do about the error.
func (e StructuredError) WithGuidance(guidance string) StructuredError {
	e.Guidance = guidance
	return e
}

// WithRecoveryCommand suggests a command to run next.
func (e StructuredError) WithRecoveryCommand(cmd string) StructuredError {
	e.RecoveryCommand = cmd
	return e
}

// FromError returns the StructuredError wrapped in err, or a new one with
// code and err's message.
func FromError(err error, code string) StructuredError {
	var se StructuredError
	if errors.As(err, &se) {
		return se
	}
	return StructuredError{Code: code, Message: err.Error()}
}
