package brick

import (
	"context"
	"errors"
)

// constructionError signals invalid brick parameters. Construction is the only
// place a brick fails fast; everything else surfaces as a typed runtime error.
type constructionError struct{ msg string }

func (e constructionError) Error() string { return "construction: " + e.msg }

// ErrConstruction constructs a constructionError.
func ErrConstruction(msg string) error { return constructionError{msg: msg} }

// IsConstruction reports whether err indicates invalid brick parameters.
func IsConstruction(err error) bool {
	var e constructionError
	return errors.As(err, &e)
}

// resourceError signals a missing external resource (model file, binary).
type resourceError struct{ msg string }

func (e resourceError) Error() string { return "resource: " + e.msg }

func ErrResource(msg string) error { return resourceError{msg: msg} }

// IsResource reports whether err indicates a missing model file or binary.
func IsResource(err error) bool {
	var e resourceError
	return errors.As(err, &e)
}

// serverStartError signals a failed llama-server launch or readiness timeout.
type serverStartError struct {
	msg   string
	cause error
}

func (e serverStartError) Error() string {
	if e.cause != nil {
		return "server start: " + e.msg + ": " + e.cause.Error()
	}
	return "server start: " + e.msg
}

func (e serverStartError) Unwrap() error { return e.cause }

func ErrServerStart(msg string, cause error) error { return serverStartError{msg: msg, cause: cause} }

func IsServerStart(err error) bool {
	var e serverStartError
	return errors.As(err, &e)
}

// serverStopError signals failed signal delivery during shutdown.
type serverStopError struct{ cause error }

func (e serverStopError) Error() string { return "server stop: " + e.cause.Error() }

func (e serverStopError) Unwrap() error { return e.cause }

func ErrServerStop(cause error) error { return serverStopError{cause: cause} }

func IsServerStop(err error) bool {
	var e serverStopError
	return errors.As(err, &e)
}

// invocationError signals a failed model call: non-zero exit, timeout, or a
// malformed response body.
type invocationError struct {
	brick string
	msg   string
	cause error
}

func (e invocationError) Error() string {
	s := "invoke " + e.brick + ": " + e.msg
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e invocationError) Unwrap() error { return e.cause }

func ErrInvocation(brick, msg string, cause error) error {
	return invocationError{brick: brick, msg: msg, cause: cause}
}

// IsInvocation reports whether err indicates a failed model invocation.
func IsInvocation(err error) bool {
	var e invocationError
	return errors.As(err, &e)
}

// invalidOperationError signals an unsupported brick operation name.
type invalidOperationError struct{ op string }

func (e invalidOperationError) Error() string { return "invalid operation: " + e.op }

func ErrInvalidOperation(op string) error { return invalidOperationError{op: op} }

func IsInvalidOperation(err error) bool {
	var e invalidOperationError
	return errors.As(err, &e)
}

// configLoadError / configSaveError cover the ConfigBrick file boundary.
type configLoadError struct{ cause error }

func (e configLoadError) Error() string { return "config load: " + e.cause.Error() }

func (e configLoadError) Unwrap() error { return e.cause }

func ErrConfigLoad(cause error) error { return configLoadError{cause: cause} }

func IsConfigLoad(err error) bool {
	var e configLoadError
	return errors.As(err, &e)
}

type configSaveError struct{ cause error }

func (e configSaveError) Error() string { return "config save: " + e.cause.Error() }

func (e configSaveError) Unwrap() error { return e.cause }

func ErrConfigSave(cause error) error { return configSaveError{cause: cause} }

func IsConfigSave(err error) bool {
	var e configSaveError
	return errors.As(err, &e)
}

// keyNotFoundError signals a get on an absent config key.
type keyNotFoundError struct{ key string }

func (e keyNotFoundError) Error() string { return "key not found: " + e.key }

func ErrKeyNotFound(key string) error { return keyNotFoundError{key: key} }

func IsKeyNotFound(err error) bool {
	var e keyNotFoundError
	return errors.As(err, &e)
}

// noMatchingConditionError signals a ConditionalChain run where no predicate
// matched and no default brick was configured.
type noMatchingConditionError struct{ chain string }

func (e noMatchingConditionError) Error() string { return "no matching condition in " + e.chain }

func ErrNoMatchingCondition(chain string) error { return noMatchingConditionError{chain: chain} }

func IsNoMatchingCondition(err error) bool {
	var e noMatchingConditionError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a runtime the binary was built without
// (e.g. the in-process llama backend without the 'llama' build tag).
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// IsCancelled reports whether err stems from caller cancellation or a
// deadline, either directly or wrapped.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
