package interp

import "fmt"

// TypeError is raised when a runtime value's kind does not match what a
// special form or builtin expects (spec §7).
type TypeError struct {
	Expected string
	Found    string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("TypeError: expected %s, found %s", e.Expected, e.Found)
}

// ArgumentCountMismatchError is raised when a call supplies the wrong
// number of arguments.
type ArgumentCountMismatchError struct {
	Name     string
	Expected int
	Found    int
}

func (e *ArgumentCountMismatchError) Error() string {
	return fmt.Sprintf("ArgumentCountMismatch: %s expects %d argument(s), got %d", e.Name, e.Expected, e.Found)
}

// UndefinedFunctionError is raised when a list form's head names neither a
// special form, a defined function, nor a builtin.
type UndefinedFunctionError struct{ Name string }

func (e *UndefinedFunctionError) Error() string {
	return fmt.Sprintf("UndefinedFunction: %s", e.Name)
}

// UndefinedVariableError is raised by a bare Atom that names no binding.
type UndefinedVariableError struct{ Name string }

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("UndefinedVariable: %s", e.Name)
}

// RecursionDetectedError is raised when a function name is already on the
// call stack (spec §4.3: no tail-call optimization is required, recursion
// is rejected outright).
type RecursionDetectedError struct{ Name string }

func (e *RecursionDetectedError) Error() string {
	return fmt.Sprintf("RecursionDetected: %s", e.Name)
}

// ReadOnlyViolationError is raised when a mutating builtin runs under a
// read-only Environment (spec §4.3, §5).
type ReadOnlyViolationError struct{ Name string }

func (e *ReadOnlyViolationError) Error() string {
	return fmt.Sprintf("ReadOnlyViolation: %s", e.Name)
}

// UnknownSpecialFormError mirrors the analyzer's failure kind of the same
// name. The evaluator does not raise it: an `f` argument to filter/fold/map
// that names no function fails with UndefinedFunctionError.
type UnknownSpecialFormError struct{ Name string }

func (e *UnknownSpecialFormError) Error() string {
	return fmt.Sprintf("UnknownSpecialForm: %s", e.Name)
}

// ListConstructionError is raised when `list`'s elements fail to unify.
type ListConstructionError struct{ Detail string }

func (e *ListConstructionError) Error() string {
	return fmt.Sprintf("ListConstruction: %s", e.Detail)
}
