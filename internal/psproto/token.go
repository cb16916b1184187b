package psproto

import "strings"

// TokenKind distinguishes word tokens from line breaks.
type TokenKind int

const (
	// TokenWord is a field between pipe separators.
	TokenWord TokenKind = iota
	// TokenNewline separates protocol lines.
	TokenNewline
)

// Token is one unit of the tokenized wire chunk.
type Token struct {
	Kind TokenKind
	Text string
}

// Input is an immutable cursor over a token slice. Advancing returns a new
// value and never mutates the backing slice, so parsers can backtrack by
// holding on to an earlier Input.
type Input struct {
	toks []Token
	pos  int
}

// Done reports whether the cursor is past the last token.
func (in Input) Done() bool { return in.pos >= len(in.toks) }

// Peek returns the token under the cursor without consuming it.
func (in Input) Peek() (Token, bool) {
	if in.Done() {
		return Token{}, false
	}
	return in.toks[in.pos], true
}

// Next returns the token under the cursor and a cursor advanced past it.
func (in Input) Next() (Token, Input, bool) {
	tok, ok := in.Peek()
	if !ok {
		return Token{}, in, false
	}
	return tok, Input{toks: in.toks, pos: in.pos + 1}, true
}

// Pos is the absolute token offset, used only for diagnostics.
func (in Input) Pos() int { return in.pos }

// AtLineEnd reports whether the cursor sits on a newline token or at the end
// of input. Suffix scans use this to bound their lookahead to one line.
func (in Input) AtLineEnd() bool {
	tok, ok := in.Peek()
	return !ok || tok.Kind == TokenNewline
}

// SkipLine advances past the remainder of the current line, including its
// newline token. Used by the dispatcher to drop unrecognized or malformed
// lines without disturbing the rest of the chunk.
func (in Input) SkipLine() Input {
	cur := in
	for {
		tok, rest, ok := cur.Next()
		if !ok {
			return cur
		}
		cur = rest
		if tok.Kind == TokenNewline {
			return cur
		}
	}
}

// Tokenize splits a raw server chunk into tokens, first stripping an optional
// leading ">roomname" line. A malformed leading marker simply yields an empty
// room name; tokenization itself cannot fail.
func Tokenize(chunk string) (room string, in Input) {
	chunk = strings.TrimSuffix(chunk, "\n")
	if strings.HasPrefix(chunk, ">") {
		if i := strings.IndexByte(chunk, '\n'); i >= 0 {
			room = chunk[1:i]
			chunk = chunk[i+1:]
		} else {
			return chunk[1:], Input{}
		}
	}
	if chunk == "" {
		return room, Input{}
	}

	var toks []Token
	for li, line := range strings.Split(chunk, "\n") {
		if li > 0 {
			toks = append(toks, Token{Kind: TokenNewline, Text: "\n"})
		}
		// Lines open with the separator ("|move|..."); an empty leading
		// field would otherwise appear before the type tag.
		line = strings.TrimPrefix(line, "|")
		if line == "" {
			continue
		}
		for _, f := range strings.Split(line, "|") {
			toks = append(toks, Token{Kind: TokenWord, Text: f})
		}
	}
	return room, Input{toks: toks}
}
