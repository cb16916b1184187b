package psproto

import (
	"errors"
	"testing"
)

func input(s string) Input {
	_, in := Tokenize(s)
	return in
}

func TestLiteralBacktracks(t *testing.T) {
	in := input("|move|p1a: Ace")
	p := Literal("switch", "move")
	r, err := p(in)
	if err != nil {
		t.Fatal(err)
	}
	if r.Value != "move" {
		t.Fatalf("value = %q, want move", r.Value)
	}

	if _, err := Literal("turn")(in); !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	// The original cursor is untouched; a second parse still works.
	if r2, err := AnyWord(in); err != nil || r2.Value != "move" {
		t.Fatalf("reparse = %q, %v", r2.Value, err)
	}
}

func TestInt(t *testing.T) {
	r, err := Int(input("|42|x"))
	if err != nil || r.Value != 42 {
		t.Fatalf("Int = %d, %v", r.Value, err)
	}
	if _, err := Int(input("|abc")); !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestMaybeDefault(t *testing.T) {
	r, err := Maybe(Int, -1)(input("|notanint"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Value != -1 {
		t.Fatalf("value = %d, want default -1", r.Value)
	}
	if r.Rest.Pos() != input("|notanint").Pos() {
		t.Fatal("Maybe consumed input on failure")
	}
}

func TestSomeAndMany(t *testing.T) {
	r, err := Some(Int)(input("|1|2|3|x"))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Value) != 3 || r.Value[2] != 3 {
		t.Fatalf("Some = %v", r.Value)
	}

	if _, err := Many(Int)(input("|x")); !errors.Is(err, ErrParse) {
		t.Fatalf("Many on no match: err = %v, want ErrParse", err)
	}
	empty, err := Some(Int)(input("|x"))
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Value) != 0 {
		t.Fatalf("Some on no match = %v, want empty", empty.Value)
	}
}

func TestSeq2RewindsAsUnit(t *testing.T) {
	in := input("|move|notanint")
	p := Seq2(AnyWord, Int)
	if _, err := p(in); !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	// First element must still be readable from the original position.
	r, err := AnyWord(in)
	if err != nil || r.Value != "move" {
		t.Fatalf("reparse = %q, %v", r.Value, err)
	}
}

func TestTransformAndChain(t *testing.T) {
	double := Transform(Int, func(n int) int { return n * 2 })
	r, err := double(input("|21"))
	if err != nil || r.Value != 42 {
		t.Fatalf("Transform = %d, %v", r.Value, err)
	}

	// Chain makes the second parser depend on the first value.
	p := Chain(Int, func(n int) Parser[[]int] {
		out := make([]int, 0, n)
		var rec Parser[[]int]
		rec = func(in Input) (Result[[]int], error) {
			if len(out) == n {
				return Result[[]int]{Value: out, Rest: in}, nil
			}
			ri, err := Int(in)
			if err != nil {
				return Result[[]int]{}, err
			}
			out = append(out, ri.Value)
			return rec(ri.Rest)
		}
		return rec
	})
	rr, err := p(input("|2|7|9"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rr.Value) != 2 || rr.Value[1] != 9 {
		t.Fatalf("Chain = %v", rr.Value)
	}
}

func TestNewlineAtEOF(t *testing.T) {
	_, in := Tokenize("|upkeep")
	r, err := AnyWord(in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Newline(r.Rest); err != nil {
		t.Fatalf("Newline at EOF: %v", err)
	}
}
