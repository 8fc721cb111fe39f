package render_test

import (
	"strings"
	"testing"

	"github.com/ctbto-nms/ims2parser/internal/parser"
	"github.com/ctbto-nms/ims2parser/internal/render"
	"github.com/ctbto-nms/ims2parser/internal/semantic"
)

func TestTextRenderingIncludesClassificationAndConstraints(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM IMS2.0:CM6\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	text := render.Text(out)
	for _, want := range []string{
		"Product Classification", "TECHNOLOGYFAMILY: SHI", "PRODUCTTYPE:      WAVEFORM",
		"Product Constraints", "DATE: {START:", "LOC: {TYPE: STALIST, STATIONS: [ABC]}",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered text missing %q; got:\n%s", want, text)
		}
	}
}

func TestTextRenderingIncludesAdvisories(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\nE-MAIL a@b.c\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nLOC_CONF 0.9\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	text := render.Text(out)
	if !strings.Contains(text, "Advisory:") || !strings.Contains(text, "LOC_CONF") {
		t.Errorf("expected an advisory line, got:\n%s", text)
	}
}

func TestTextRenderingIncludesCommands(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1\nUNSUBSCRIBE\nSUBSCR_LIST 1,2\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.ValidateSubscription(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	text := render.Text(out)
	if !strings.Contains(text, "Command: UNSUBSCRIBE") {
		t.Errorf("expected a command section, got:\n%s", text)
	}
}

func TestXMLRenderingIsWellFormed(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM IMS2.0:CM6\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	xmlOut := render.XML(out)
	if !strings.Contains(xmlOut, `<message msgId="1">`) {
		t.Errorf("expected a message root element with msgId, got:\n%s", xmlOut)
	}
	if !strings.Contains(xmlOut, `technologyFamily="SHI"`) {
		t.Errorf("expected technologyFamily attribute, got:\n%s", xmlOut)
	}
}
