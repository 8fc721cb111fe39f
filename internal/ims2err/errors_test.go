package ims2err

import "testing"

func TestInstrumentInsertsMarkerAtColumn(t *testing.T) {
	got := Instrument("WAVEFORMX CM6", 10)
	want := "WAVEFORMX" + Marker + " CM6"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInstrumentOutOfRangeAppendsAtEnd(t *testing.T) {
	got := Instrument("SHORT", 0)
	if got != "SHORT"+Marker {
		t.Fatalf("got %q", got)
	}
	got = Instrument("SHORT", 99)
	if got != "SHORT"+Marker {
		t.Fatalf("got %q", got)
	}
}

func TestErrorFormatting(t *testing.T) {
	e := New(Syntax, 3, 5, "5", "some line", "expected a product")
	got := e.Error()
	want := "Error[line=3,pos=5]: expected a product."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestErrorFormattingAtEOF(t *testing.T) {
	e := New(Syntax, 3, -1, "EOF", "some line", "expected STOP but reached end of stream")
	got := e.Error()
	want := "Error[line=3,pos=EOF]: expected STOP but reached end of stream."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if e.Instrumented == "" {
		t.Fatal("expected an instrumented line even at EOF")
	}
}
