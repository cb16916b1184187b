package psproto

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrParse marks recoverable parse failures. Combinator failures wrap it so
// callers can distinguish "did not match" from real faults with errors.Is.
var ErrParse = errors.New("psproto: no match")

// Result pairs a parsed value with the cursor position after it.
type Result[T any] struct {
	Value T
	Rest  Input
}

// Parser consumes tokens from an immutable cursor. On failure the returned
// error wraps ErrParse and the caller's cursor is untouched, which is what
// makes speculative parsing (Maybe, suffix probing) safe.
type Parser[T any] func(Input) (Result[T], error)

func failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// AnyWord consumes one word token.
func AnyWord(in Input) (Result[string], error) {
	tok, rest, ok := in.Next()
	if !ok || tok.Kind != TokenWord {
		return Result[string]{}, failf("expected word at %d", in.Pos())
	}
	return Result[string]{Value: tok.Text, Rest: rest}, nil
}

// Newline consumes a line-break token or succeeds at end of input, so a
// chunk's final line needs no trailing newline.
func Newline(in Input) (Result[struct{}], error) {
	tok, rest, ok := in.Next()
	if !ok {
		return Result[struct{}]{Rest: in}, nil
	}
	if tok.Kind != TokenNewline {
		return Result[struct{}]{}, failf("expected end of line at %d", in.Pos())
	}
	return Result[struct{}]{Rest: rest}, nil
}

// Literal matches one word token equal to any of the given alternatives.
func Literal(alts ...string) Parser[string] {
	return func(in Input) (Result[string], error) {
		tok, rest, ok := in.Next()
		if !ok || tok.Kind != TokenWord {
			return Result[string]{}, failf("expected literal at %d", in.Pos())
		}
		for _, a := range alts {
			if tok.Text == a {
				return Result[string]{Value: tok.Text, Rest: rest}, nil
			}
		}
		return Result[string]{}, failf("unexpected %q at %d", tok.Text, in.Pos())
	}
}

// Int consumes one word token holding a decimal integer.
func Int(in Input) (Result[int], error) {
	r, err := AnyWord(in)
	if err != nil {
		return Result[int]{}, err
	}
	n, err := strconv.Atoi(r.Value)
	if err != nil {
		return Result[int]{}, failf("bad integer %q at %d", r.Value, in.Pos())
	}
	return Result[int]{Value: n, Rest: r.Rest}, nil
}

// Transform maps f over p's result. Failure passes through unchanged.
func Transform[A, B any](p Parser[A], f func(A) B) Parser[B] {
	return func(in Input) (Result[B], error) {
		r, err := p(in)
		if err != nil {
			return Result[B]{}, err
		}
		return Result[B]{Value: f(r.Value), Rest: r.Rest}, nil
	}
}

// Maybe runs p; on failure it resets to the pre-call cursor and yields def.
func Maybe[A any](p Parser[A], def A) Parser[A] {
	return func(in Input) (Result[A], error) {
		r, err := p(in)
		if err != nil {
			return Result[A]{Value: def, Rest: in}, nil
		}
		return r, nil
	}
}

// Some repeats p until it fails, allowing zero matches.
func Some[A any](p Parser[A]) Parser[[]A] {
	return func(in Input) (Result[[]A], error) {
		var out []A
		cur := in
		for {
			r, err := p(cur)
			if err != nil {
				return Result[[]A]{Value: out, Rest: cur}, nil
			}
			out = append(out, r.Value)
			cur = r.Rest
		}
	}
}

// Many repeats p until it fails and requires at least one match.
func Many[A any](p Parser[A]) Parser[[]A] {
	return func(in Input) (Result[[]A], error) {
		r, err := Some(p)(in)
		if err != nil {
			return Result[[]A]{}, err
		}
		if len(r.Value) == 0 {
			return Result[[]A]{}, failf("expected at least one match at %d", in.Pos())
		}
		return r, nil
	}
}

// Chain runs p, then the parser built from its result, threading the cursor
// through both.
func Chain[A, B any](p Parser[A], f func(A) Parser[B]) Parser[B] {
	return func(in Input) (Result[B], error) {
		r, err := p(in)
		if err != nil {
			return Result[B]{}, err
		}
		return f(r.Value)(r.Rest)
	}
}

// Pair holds the results of a two-parser sequence.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Seq2 threads the cursor through two parsers in order. The first failure
// aborts with the caller's cursor untouched.
func Seq2[A, B any](pa Parser[A], pb Parser[B]) Parser[Pair[A, B]] {
	return func(in Input) (Result[Pair[A, B]], error) {
		ra, err := pa(in)
		if err != nil {
			return Result[Pair[A, B]]{}, err
		}
		rb, err := pb(ra.Rest)
		if err != nil {
			return Result[Pair[A, B]]{}, err
		}
		return Result[Pair[A, B]]{Value: Pair[A, B]{First: ra.Value, Second: rb.Value}, Rest: rb.Rest}, nil
	}
}

// Triple holds the results of a three-parser sequence.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Seq3 threads the cursor through three parsers in order.
func Seq3[A, B, C any](pa Parser[A], pb Parser[B], pc Parser[C]) Parser[Triple[A, B, C]] {
	return func(in Input) (Result[Triple[A, B, C]], error) {
		r, err := Seq2(Seq2(pa, pb), pc)(in)
		if err != nil {
			return Result[Triple[A, B, C]]{}, err
		}
		return Result[Triple[A, B, C]]{
			Value: Triple[A, B, C]{First: r.Value.First.First, Second: r.Value.First.Second, Third: r.Value.Second},
			Rest:  r.Rest,
		}, nil
	}
}
