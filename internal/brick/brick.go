// Package brick implements the building blocks wrapping llama.cpp calls.
// Each brick is one unit of work: a subprocess invocation, an HTTP round-trip
// against a llama-server, or a local key/value store action. Bricks share a
// single Invoke contract so chains can compose them without knowing which
// boundary they cross.
package brick

import (
	"context"

	"github.com/ericcurtin/llamanetes/pkg/types"
)

// Brick is a unit of work. Invoke accepts a free-form input map and returns a
// structured result. Expected failures (missing resource, malformed input,
// model errors) come back as typed errors from this package, never panics;
// only invalid construction parameters fail at constructor time.
type Brick interface {
	// Name identifies the brick in chain results and error messages.
	Name() string
	// Invoke runs the brick. Implementations must return promptly when ctx is
	// canceled and surface the cancellation via the returned error.
	Invoke(ctx context.Context, in types.Input) (types.Result, error)
}

// success builds a success result for the named brick.
func success(name string, data map[string]any) types.Result {
	return types.Result{Brick: name, Status: types.StatusSuccess, Data: data}
}

// Failure renders a typed brick error as a structured result. Chains use it
// to record per-brick failures instead of aborting with a bare error.
func Failure(name string, err error) types.Result {
	return types.Result{Brick: name, Status: types.StatusError, Error: err.Error()}
}
