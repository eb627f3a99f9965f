package engine

import (
	"errors"
	"fmt"
	"strings"
)

// RuntimeError represents an error detected while wiring or driving a
// module instance.
//
// Runtime errors include:
//   - Contract violations: descriptor fails validation, logic returns the wrong key set
//   - Logic panics during the single logic invocation
//   - Unbounded synchronous feedback
//   - Setter misuse: feedback-bound or unknown names, use after teardown
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Module names the affected module descriptor.
	Module string

	// InstanceID identifies the affected instance, when one exists.
	InstanceID string

	// Channel names the affected channel, when there is one.
	Channel string

	// Violations lists every individual contract violation found.
	Violations []string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeContractViolation indicates the descriptor failed validation.
	ErrCodeContractViolation RuntimeErrorCode = "CONTRACT_VIOLATION"

	// ErrCodeLogicOutputMismatch indicates logic returned a different key set
	// than PureFeedback ∪ OutputFeedback ∪ PureOutput, or a nil stream.
	ErrCodeLogicOutputMismatch RuntimeErrorCode = "LOGIC_OUTPUT_MISMATCH"

	// ErrCodeLogicPanic indicates logic panicked while being wired.
	ErrCodeLogicPanic RuntimeErrorCode = "LOGIC_PANIC"

	// ErrCodeFeedbackLoop indicates feedback re-entered itself past the depth limit.
	ErrCodeFeedbackLoop RuntimeErrorCode = "FEEDBACK_LOOP"

	// ErrCodeFeedbackSetter indicates a setter was requested for a feedback-bound name.
	ErrCodeFeedbackSetter RuntimeErrorCode = "FEEDBACK_SETTER"

	// ErrCodeUnknownChannel indicates a setter was requested for an undeclared name.
	ErrCodeUnknownChannel RuntimeErrorCode = "UNKNOWN_CHANNEL"

	// ErrCodeTornDown indicates the instance was used after Close.
	ErrCodeTornDown RuntimeErrorCode = "TORN_DOWN"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var ctx []string
	if e.Module != "" {
		ctx = append(ctx, "module="+e.Module)
	}
	if e.InstanceID != "" {
		ctx = append(ctx, "instance="+e.InstanceID)
	}
	if e.Channel != "" {
		ctx = append(ctx, "channel="+e.Channel)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	if len(e.Violations) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Violations, "; "))
	}
	return b.String()
}

// CodeOf returns the RuntimeErrorCode of err, or "" if err is not a RuntimeError.
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsContractError returns true for errors that reject a module at wiring
// time or reject a setter request.
// Uses errors.As to handle wrapped errors.
func IsContractError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeContractViolation, ErrCodeLogicOutputMismatch, ErrCodeLogicPanic,
		ErrCodeFeedbackSetter, ErrCodeUnknownChannel:
		return true
	}
	return false
}

// IsFeedbackLoopError returns true if the error reports unbounded feedback.
// Matches both RuntimeError with ErrCodeFeedbackLoop and DepthExceededError.
func IsFeedbackLoopError(err error) bool {
	if CodeOf(err) == ErrCodeFeedbackLoop {
		return true
	}
	var de *DepthExceededError
	return errors.As(err, &de)
}

// IsTornDownError returns true if the instance was used after Close.
func IsTornDownError(err error) bool {
	return CodeOf(err) == ErrCodeTornDown
}

// NewContractError creates a RuntimeError for a descriptor that failed validation.
func NewContractError(module string, violations []string) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeContractViolation,
		Message:    "module descriptor violates the wiring contract",
		Module:     module,
		Violations: violations,
	}
}

// NewFeedbackLoopError wraps a guard trip into a RuntimeError.
func NewFeedbackLoopError(module, instanceID string, de *DepthExceededError) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeFeedbackLoop,
		Message:    "feedback re-entered itself synchronously past the depth limit",
		Module:     module,
		InstanceID: instanceID,
		Channel:    de.Channel,
		Details: map[string]string{
			"depth":     fmt.Sprintf("%d", de.Depth),
			"max_depth": fmt.Sprintf("%d", de.Limit),
		},
	}
}

// NewSetterError creates the error returned for a name with no setter.
func NewSetterError(module, instanceID, channel string, feedback bool) *RuntimeError {
	if feedback {
		return &RuntimeError{
			Code:       ErrCodeFeedbackSetter,
			Message:    "feedback-bound channels are driven only by the feedback router",
			Module:     module,
			InstanceID: instanceID,
			Channel:    channel,
		}
	}
	return &RuntimeError{
		Code:       ErrCodeUnknownChannel,
		Message:    "no input channel with this name",
		Module:     module,
		InstanceID: instanceID,
		Channel:    channel,
	}
}

// NewTornDownError creates the error returned for use after Close.
func NewTornDownError(module, instanceID, channel string) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeTornDown,
		Message:    "instance has been torn down",
		Module:     module,
		InstanceID: instanceID,
		Channel:    channel,
	}
}
