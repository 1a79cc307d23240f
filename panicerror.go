package async

import (
	"fmt"
	"runtime/debug"
)

// A panicError carries a panic recovered from a [Task] function, along with
// the stack trace captured at the panic site.
type panicError struct {
	value any
	stack []byte
}

func newPanicError(v any) *panicError {
	return &panicError{value: v, stack: debug.Stack()}
}

func (p *panicError) Error() string {
	return fmt.Sprintf("async: panic: %v\n\n%s", p.value, p.stack)
}

func (p *panicError) Unwrap() error {
	err, _ := p.value.(error)
	return err
}
