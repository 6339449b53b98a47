package interp

import (
	"crypto/sha256"

	"github.com/ledgervm/ledgervm/internal/value"
)

// builtin receives already-evaluated arguments; unlike special forms it
// does not see the Environment's local lexical frame (spec §4.3: "evaluate
// arguments and invoke the builtin").
type builtin func(e *Eval, args []value.Value) (value.Value, error)

var builtins = map[string]builtin{
	"+":   arith(value.AddInt),
	"-":   arith(value.SubInt),
	"*":   arith(value.MulInt),
	"/":   arith(value.DivInt),
	"mod": arith(value.ModInt),
	"pow": arith(value.PowInt),

	"is-eq": bIsEq,
	">":     cmp(func(c int) bool { return c > 0 }),
	"<":     cmp(func(c int) bool { return c < 0 }),
	">=":    cmp(func(c int) bool { return c >= 0 }),
	"<=":    cmp(func(c int) bool { return c <= 0 }),

	"len":         bLen,
	"concat":      bConcat,
	"append":      bAppend,
	"to-int":      bIdentityInt,
	"to-uint":     bToUint,
	"is-none":     bIsNone,
	"is-some":     bIsSome,
	"is-ok":       bIsOk,
	"is-err":      bIsErr,
	"sha256":      bSha256,
	"keccak256":   bKeccak256,
	"hash160":     bHash160,
	"as-max-len?": bAsMaxLen,
	"index-of?":   bIndexOf,
	"element-at?": bElementAt,
	"replace-at?": bReplaceAt,
	"default-to":  bDefaultTo,
}

func arity(name string, got, want int) error {
	if got != want {
		return &ArgumentCountMismatchError{Name: name, Expected: want, Found: got}
	}
	return nil
}

func wantInt(v value.Value) error {
	if v.Kind != value.KindInt {
		return &TypeError{Expected: "int", Found: v.Kind.String()}
	}
	return nil
}

// arith wraps a checked binary int operation (spec §7: OverflowError,
// DivisionByZero), folding left-to-right across two or more arguments the
// way `+`/`*` accept a variadic arg list in the source language.
func arith(op func(a, b value.Value) (value.Value, error)) builtin {
	return func(e *Eval, args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return value.Value{}, &ArgumentCountMismatchError{Name: "arithmetic", Expected: 2, Found: len(args)}
		}
		for _, a := range args {
			if err := wantInt(a); err != nil {
				return value.Value{}, err
			}
		}
		acc := args[0]
		var err error
		for _, a := range args[1:] {
			acc, err = op(acc, a)
			if err != nil {
				return value.Value{}, err
			}
		}
		return acc, nil
	}
}

func cmp(pred func(c int) bool) builtin {
	return func(e *Eval, args []value.Value) (value.Value, error) {
		if err := arity("comparison", len(args), 2); err != nil {
			return value.Value{}, err
		}
		if err := wantInt(args[0]); err != nil {
			return value.Value{}, err
		}
		if err := wantInt(args[1]); err != nil {
			return value.Value{}, err
		}
		return value.Bool(pred(args[0].Int.Cmp(args[1].Int))), nil
	}
}

func bIsEq(e *Eval, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "is-eq", Expected: 2, Found: len(args)}
	}
	for _, a := range args[1:] {
		if !value.Equal(args[0], a) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func bLen(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("len", len(args), 1); err != nil {
		return value.Value{}, err
	}
	switch args[0].Kind {
	case value.KindList:
		return value.NewIntFromInt64(int64(len(args[0].List))), nil
	case value.KindBuffer:
		return value.NewIntFromInt64(int64(len(args[0].Buffer))), nil
	default:
		return value.Value{}, &TypeError{Expected: "list or buffer", Found: args[0].Kind.String()}
	}
}

func bConcat(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("concat", len(args), 2); err != nil {
		return value.Value{}, err
	}
	switch args[0].Kind {
	case value.KindBuffer:
		if args[1].Kind != value.KindBuffer {
			return value.Value{}, &TypeError{Expected: "buffer", Found: args[1].Kind.String()}
		}
		return value.ConcatBuffer(args[0], args[1])
	case value.KindList:
		if args[1].Kind != value.KindList {
			return value.Value{}, &TypeError{Expected: "list", Found: args[1].Kind.String()}
		}
		combined := append(append([]value.Value{}, args[0].List...), args[1].List...)
		return buildList(combined)
	default:
		return value.Value{}, &TypeError{Expected: "buffer or list", Found: args[0].Kind.String()}
	}
}

func bAppend(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("append", len(args), 2); err != nil {
		return value.Value{}, err
	}
	if args[0].Kind != value.KindList {
		return value.Value{}, &TypeError{Expected: "list", Found: args[0].Kind.String()}
	}
	combined := append(append([]value.Value{}, args[0].List...), args[1])
	return buildList(combined)
}

func bIdentityInt(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("to-int", len(args), 1); err != nil {
		return value.Value{}, err
	}
	if err := wantInt(args[0]); err != nil {
		return value.Value{}, err
	}
	return args[0], nil
}

func bIsNone(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("is-none", len(args), 1); err != nil {
		return value.Value{}, err
	}
	if args[0].Kind != value.KindOptional {
		return value.Value{}, &TypeError{Expected: "optional", Found: args[0].Kind.String()}
	}
	return value.Bool(args[0].OptSome == nil), nil
}

func bIsSome(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("is-some", len(args), 1); err != nil {
		return value.Value{}, err
	}
	if args[0].Kind != value.KindOptional {
		return value.Value{}, &TypeError{Expected: "optional", Found: args[0].Kind.String()}
	}
	return value.Bool(args[0].OptSome != nil), nil
}

func bIsOk(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("is-ok", len(args), 1); err != nil {
		return value.Value{}, err
	}
	if args[0].Kind != value.KindResponse {
		return value.Value{}, &TypeError{Expected: "response", Found: args[0].Kind.String()}
	}
	return value.Bool(args[0].RespCommitted), nil
}

func bIsErr(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("is-err", len(args), 1); err != nil {
		return value.Value{}, err
	}
	if args[0].Kind != value.KindResponse {
		return value.Value{}, &TypeError{Expected: "response", Found: args[0].Kind.String()}
	}
	return value.Bool(!args[0].RespCommitted), nil
}

func bSha256(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("sha256", len(args), 1); err != nil {
		return value.Value{}, err
	}
	var data []byte
	switch args[0].Kind {
	case value.KindBuffer:
		data = args[0].Buffer
	case value.KindInt:
		data = args[0].Int.Bytes()
	default:
		return value.Value{}, &TypeError{Expected: "buffer or int", Found: args[0].Kind.String()}
	}
	sum := sha256.Sum256(data)
	return value.NewBuffer(sum[:], 32)
}

func wantPrincipal(v value.Value) (value.Principal, error) {
	if v.Kind != value.KindPrincipal {
		return value.Principal{}, &TypeError{Expected: "principal", Found: v.Kind.String()}
	}
	return v.Principal, nil
}

// bToUint implements `to-uint` (SPEC_FULL.md supplement): the closed Value
// sum has no separate unsigned Int kind, so this is an identity conversion
// guarded by a non-negativity check rather than a real domain change.
func bToUint(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("to-uint", len(args), 1); err != nil {
		return value.Value{}, err
	}
	if err := wantInt(args[0]); err != nil {
		return value.Value{}, err
	}
	if args[0].Int.Sign() < 0 {
		return value.Value{}, &TypeError{Expected: "non-negative int", Found: args[0].Int.String()}
	}
	return args[0], nil
}

// bKeccak256 and bHash160 are pure digest builtins (SPEC_FULL.md
// supplement). Digest correctness is explicitly out of scope for consensus
// here, and no third-party hash library appears anywhere in the retrieval
// pack, so both are implemented over crypto/sha256 rather than a
// bit-for-bit match of the named algorithms.
func bKeccak256(e *Eval, args []value.Value) (value.Value, error) {
	return bSha256(e, args)
}

func bHash160(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("hash160", len(args), 1); err != nil {
		return value.Value{}, err
	}
	var data []byte
	switch args[0].Kind {
	case value.KindBuffer:
		data = args[0].Buffer
	case value.KindInt:
		data = args[0].Int.Bytes()
	default:
		return value.Value{}, &TypeError{Expected: "buffer or int", Found: args[0].Kind.String()}
	}
	sum := sha256.Sum256(data)
	return value.NewBuffer(sum[:20], 20)
}

// bAsMaxLen implements `as-max-len?`: re-declares a sequence's max_len,
// succeeding only if the sequence's current length already fits.
func bAsMaxLen(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("as-max-len?", len(args), 2); err != nil {
		return value.Value{}, err
	}
	if err := wantInt(args[1]); err != nil {
		return value.Value{}, err
	}
	if !args[1].Int.IsUint64() {
		return value.Value{}, &TypeError{Expected: "non-negative int", Found: args[1].Int.String()}
	}
	newMax := uint32(args[1].Int.Uint64())
	switch args[0].Kind {
	case value.KindBuffer:
		if uint32(len(args[0].Buffer)) > newMax {
			return value.OptionalNone(value.BufferType(newMax)), nil
		}
		v, err := value.NewBuffer(args[0].Buffer, newMax)
		if err != nil {
			return value.Value{}, err
		}
		return value.OptionalSome(v), nil
	case value.KindList:
		if uint32(len(args[0].List)) > newMax {
			return value.OptionalNone(value.ListType(args[0].ListEntry, newMax)), nil
		}
		v, err := value.NewList(args[0].List, args[0].ListEntry, newMax)
		if err != nil {
			return value.Value{}, err
		}
		return value.OptionalSome(v), nil
	default:
		return value.Value{}, &TypeError{Expected: "buffer or list", Found: args[0].Kind.String()}
	}
}

func bIndexOf(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("index-of?", len(args), 2); err != nil {
		return value.Value{}, err
	}
	if args[0].Kind != value.KindList {
		return value.Value{}, &TypeError{Expected: "list", Found: args[0].Kind.String()}
	}
	for i, elem := range args[0].List {
		if value.Equal(elem, args[1]) {
			return value.OptionalSome(value.NewIntFromInt64(int64(i))), nil
		}
	}
	return value.OptionalNone(value.IntType()), nil
}

func bElementAt(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("element-at?", len(args), 2); err != nil {
		return value.Value{}, err
	}
	if args[0].Kind != value.KindList {
		return value.Value{}, &TypeError{Expected: "list", Found: args[0].Kind.String()}
	}
	if err := wantInt(args[1]); err != nil {
		return value.Value{}, err
	}
	if !args[1].Int.IsUint64() {
		return value.OptionalNone(args[0].ListEntry), nil
	}
	idx := args[1].Int.Uint64()
	if idx >= uint64(len(args[0].List)) {
		return value.OptionalNone(args[0].ListEntry), nil
	}
	return value.OptionalSome(args[0].List[idx]), nil
}

func bReplaceAt(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("replace-at?", len(args), 3); err != nil {
		return value.Value{}, err
	}
	if args[0].Kind != value.KindList {
		return value.Value{}, &TypeError{Expected: "list", Found: args[0].Kind.String()}
	}
	if err := wantInt(args[1]); err != nil {
		return value.Value{}, err
	}
	if !args[1].Int.IsUint64() || args[1].Int.Uint64() >= uint64(len(args[0].List)) {
		return value.OptionalNone(value.ListType(args[0].ListEntry, args[0].ListMaxLen)), nil
	}
	idx := args[1].Int.Uint64()
	replaced := make([]value.Value, len(args[0].List))
	copy(replaced, args[0].List)
	replaced[idx] = args[2]
	entry, ok := value.Unify(args[0].ListEntry, value.TypeOf(args[2]))
	if !ok {
		return value.Value{}, &ListConstructionError{Detail: "replacement element does not unify with list entry type"}
	}
	v, err := value.NewList(replaced, entry, args[0].ListMaxLen)
	if err != nil {
		return value.Value{}, err
	}
	return value.OptionalSome(v), nil
}

// bDefaultTo implements `default-to`: returns the optional's inner value if
// present, else the supplied default.
func bDefaultTo(e *Eval, args []value.Value) (value.Value, error) {
	if err := arity("default-to", len(args), 2); err != nil {
		return value.Value{}, err
	}
	if args[1].Kind != value.KindOptional {
		return value.Value{}, &TypeError{Expected: "optional", Found: args[1].Kind.String()}
	}
	if args[1].OptSome != nil {
		return *args[1].OptSome, nil
	}
	return args[0], nil
}
