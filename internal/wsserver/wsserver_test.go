package wsserver

import (
	"strings"
	"testing"

	"github.com/ctbto-nms/ims2parser/internal/subscriptions"
)

func TestHandleRequestValidMessage(t *testing.T) {
	s := New(":0", subscriptions.NewRegistry())
	req := Request{
		CorrelationID: "abc",
		Message: "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
			"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nSTOP\n",
	}
	resp := s.handleRequest(req)
	if !resp.OK {
		t.Fatalf("expected OK, got error %q", resp.Error)
	}
	if resp.CorrelationID != "abc" {
		t.Errorf("CorrelationID = %q", resp.CorrelationID)
	}
	if !strings.Contains(resp.Rendered, "WAVEFORM") {
		t.Errorf("rendered = %q", resp.Rendered)
	}
}

func TestHandleRequestAssignsCorrelationIDWhenAbsent(t *testing.T) {
	s := New(":0", subscriptions.NewRegistry())
	resp := s.handleRequest(Request{Message: "garbage"})
	if resp.OK {
		t.Fatal("expected a parse failure for garbage input")
	}
	if resp.CorrelationID == "" {
		t.Error("expected a server-assigned correlation id")
	}
	if resp.Error == "" {
		t.Error("expected an error message")
	}
}

func TestHandleRequestAppliesSubscriptionToRegistry(t *testing.T) {
	reg := subscriptions.NewRegistry()
	s := New(":0", reg)
	req := Request{Message: "BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1 src1\nARR RMS2.0\nFREQ IMMEDIATE\nSTOP\n"}
	resp := s.handleRequest(req)
	if !resp.OK {
		t.Fatalf("expected OK, got error %q", resp.Error)
	}
	subs := reg.OwnerSubscriptions("src1")
	if len(subs) != 1 || subs[0].ProductType != "ARR" {
		t.Fatalf("expected the subscription to be registered, got %+v", subs)
	}
}
