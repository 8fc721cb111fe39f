package subscriptions

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ctbto-nms/ims2parser/internal/parser"
	"github.com/ctbto-nms/ims2parser/internal/semantic"
)

func TestApplyMessageSubscribesAndListsOwner(t *testing.T) {
	reg := NewRegistry()
	msg, err := parser.Parse([]byte("BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1 src1\nARR RMS2.0\nFREQ IMMEDIATE\nSTOP\n"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.ValidateSubscription(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if err := reg.ApplyMessage(out); err != nil {
		t.Fatalf("ApplyMessage error: %v", err)
	}
	subs := reg.OwnerSubscriptions("src1")
	if len(subs) != 1 || subs[0].ProductType != "ARR" || subs[0].Frequency != "IMMEDIATE" {
		t.Fatalf("subscriptions = %+v", subs)
	}
	owners := reg.Owners()
	if len(owners) != 1 || owners[0] != "src1" {
		t.Fatalf("owners = %v", owners)
	}
}

func TestApplyMessageFallsBackToMsgIDWhenSourceAbsent(t *testing.T) {
	reg := NewRegistry()
	msg, err := parser.Parse([]byte("BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 77\nARR RMS2.0\nFREQ DAILY\nSTOP\n"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.ValidateSubscription(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if err := reg.ApplyMessage(out); err != nil {
		t.Fatalf("ApplyMessage error: %v", err)
	}
	if subs := reg.OwnerSubscriptions("77"); len(subs) != 1 {
		t.Fatalf("expected MSG_ID to be used as the owner key, got %+v", subs)
	}
}

func TestApplyMessageUnsubscribeByList(t *testing.T) {
	reg := NewRegistry()
	subMsg, err := parser.Parse([]byte("BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1 src1\nARR RMS2.0\nFREQ IMMEDIATE\nSTOP\n"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	subOut, err := semantic.ValidateSubscription(subMsg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if err := reg.ApplyMessage(subOut); err != nil {
		t.Fatalf("ApplyMessage error: %v", err)
	}
	id := reg.OwnerSubscriptions("src1")[0].ID

	unsubMsg, err := parser.Parse([]byte("BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 2 src1\nUNSUBSCRIBE\nSUBSCR_LIST " + strconv.Itoa(id) + "\nSTOP\n"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	unsubOut, err := semantic.ValidateSubscription(unsubMsg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if err := reg.ApplyMessage(unsubOut); err != nil {
		t.Fatalf("ApplyMessage error: %v", err)
	}
	if subs := reg.OwnerSubscriptions("src1"); len(subs) != 0 {
		t.Fatalf("expected the subscription to be removed, got %+v", subs)
	}
	owners := reg.Owners()
	if len(owners) != 0 {
		t.Fatalf("expected no owners once their last subscription is removed, got %v", owners)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subs.json")

	reg := NewRegistry()
	reg.SetPersistenceFile(path)
	defer reg.Close()

	msg, err := parser.Parse([]byte("BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1 src1\nARR RMS2.0\nFREQ CONTINUOUS\nSTOP\n"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.ValidateSubscription(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if err := reg.ApplyMessage(out); err != nil {
		t.Fatalf("ApplyMessage error: %v", err)
	}
	if err := reg.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	reg2 := NewRegistry()
	reg2.SetPersistenceFile(path)
	defer reg2.Close()
	if err := reg2.Load(); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	subs := reg2.OwnerSubscriptions("src1")
	if len(subs) != 1 || subs[0].ProductType != "ARR" || subs[0].Frequency != "CONTINUOUS" {
		t.Fatalf("subs after reload = %+v", subs)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	reg := NewRegistry()
	reg.filePath = filepath.Join(t.TempDir(), "does-not-exist.json")
	if err := reg.Load(); err != nil {
		t.Fatalf("Load of a missing file must not error, got %v", err)
	}
}
