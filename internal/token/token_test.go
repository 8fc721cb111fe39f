package token

import "testing"

func TestIsEOF(t *testing.T) {
	if !EndMarker(3, "", 10).IsEOF() {
		t.Fatal("EndMarker must report IsEOF")
	}
	if (Token{Kind: ID}).IsEOF() {
		t.Fatal("an ID token must not report IsEOF")
	}
}

func TestPos(t *testing.T) {
	if got := EndMarker(1, "", 0).Pos(); got != "EOF" {
		t.Fatalf("expected EOF, got %q", got)
	}
	if got := (Token{Kind: ID, ColBegin: 7}).Pos(); got != "7" {
		t.Fatalf("expected 7, got %q", got)
	}
}
