// Package semantic implements the static analyzer (spec §4.2): it walks a
// parsed program and produces a ContractAnalysis. It does not persist the
// analysis; the launch command stores it with Savepoint.PutAnalysis.
package semantic

import "fmt"

// UndefinedVariableError mirrors the evaluator's runtime error but is
// raised at analysis time against the declared type environment.
type UndefinedVariableError struct{ Name string }

func (e *UndefinedVariableError) Error() string { return fmt.Sprintf("UndefinedVariable: %s", e.Name) }

type UndefinedFunctionError struct{ Name string }

func (e *UndefinedFunctionError) Error() string { return fmt.Sprintf("UndefinedFunction: %s", e.Name) }

// TypeError is raised when an expression's inferred type does not match
// what its context requires, or when two branches fail to unify.
type TypeError struct {
	Expected string
	Found    string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("TypeError: expected %s, found %s", e.Expected, e.Found)
}

type ArgumentCountMismatchError struct {
	Name             string
	Expected, Found int
}

func (e *ArgumentCountMismatchError) Error() string {
	return fmt.Sprintf("ArgumentCountMismatch: %s expects %d argument(s), got %d", e.Name, e.Expected, e.Found)
}

// ReadOnlyViolationError is raised when a read-only function's body calls
// a mutating builtin (spec §4.2: "read-only functions must not call any
// mutating builtin").
type ReadOnlyViolationError struct {
	Function, Builtin string
}

func (e *ReadOnlyViolationError) Error() string {
	return fmt.Sprintf("ReadOnlyViolation: %s calls mutating builtin %s", e.Function, e.Builtin)
}

type UnknownSpecialFormError struct{ Name string }

func (e *UnknownSpecialFormError) Error() string {
	return fmt.Sprintf("UnknownSpecialForm: %s", e.Name)
}

// ListConstructionError mirrors the evaluator's runtime error, raised when a
// list's element types do not unify to one declared type.
type ListConstructionError struct{ Detail string }

func (e *ListConstructionError) Error() string {
	return fmt.Sprintf("ListConstructionError: %s", e.Detail)
}
