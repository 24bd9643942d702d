package viewmodel

import "fmt"

// HookError describes a DoUpdateView failure caught inside a cycle. It is
// handed to the logger and to the optional hook error handler; it is never
// returned to callers of RefreshView or RestoreOriginalValues.
type HookError struct {
	Cycle State
	Err   error
	// Panic holds the recovered value when the hook panicked.
	Panic any
}

func (e *HookError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("viewmodel: %s hook panicked: %v", e.Cycle, e.Panic)
	}
	return fmt.Sprintf("viewmodel: %s hook failed: %v", e.Cycle, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
