package research

import (
	"context"
	"fmt"
)

// Stage is one pipeline step. Execute takes ownership of rc and returns the
// context the next step should receive. On error the returned context is nil
// and ownership of rc goes back to the caller unmodified.
type Stage interface {
	Name() string
	Execute(ctx context.Context, rc *RequestContext) (*RequestContext, error)
}

// StageError wraps a failure raised inside a stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }
