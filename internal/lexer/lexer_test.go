package lexer

import "testing"

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestScanTokensSimpleList(t *testing.T) {
	l := New("(+ 1 2)", "<test>")
	tokens := l.ScanTokens()
	got := tokenTypes(tokens)
	want := []TokenType{LPAREN, IDENT, INT, INT, RPAREN, EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanTokensQuoteAndBuffer(t *testing.T) {
	l := New("'x 0xabcd true false", "<test>")
	tokens := l.ScanTokens()
	got := tokenTypes(tokens)
	want := []TokenType{QUOTE, IDENT, BUFFER, BOOL, BOOL, EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanTokensTracksLineAndColumn(t *testing.T) {
	l := New("1\n  2", "<test>")
	tokens := l.ScanTokens()
	if len(tokens) < 2 {
		t.Fatalf("expected at least 2 tokens, got %d", len(tokens))
	}
	if tokens[0].Position.Line != 1 {
		t.Errorf("first token line = %d, want 1", tokens[0].Position.Line)
	}
	if tokens[1].Position.Line != 2 {
		t.Errorf("second token line = %d, want 2", tokens[1].Position.Line)
	}
}

func TestScanInvalidBufferReportsIllegal(t *testing.T) {
	l := New("0xzz", "<test>")
	tokens := l.ScanTokens()
	if tokens[0].Type != ILLEGAL {
		t.Errorf("got %s, want ILLEGAL for malformed hex buffer", tokens[0].Type)
	}
}
