package semantic_test

import (
	"strings"
	"testing"

	"github.com/ctbto-nms/ims2parser/internal/parser"
	"github.com/ctbto-nms/ims2parser/internal/semantic"
)

func TestScenario1MinimalRequest(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 42 any_ndc\nE-MAIL a@b.c\n" +
		"WAVEFORM IMS2.0:CM6\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	p := out.ProductList[0]
	if p.Classification.TechnologyFamily != "SHI" {
		t.Errorf("TECHNOLOGYFAMILY = %q", p.Classification.TechnologyFamily)
	}
	if p.Classification.ProductFamily != "DATA" {
		t.Errorf("PRODUCTFAMILY = %q", p.Classification.ProductFamily)
	}
	if p.Classification.ProductType != "WAVEFORM" {
		t.Errorf("PRODUCTTYPE = %q", p.Classification.ProductType)
	}
	if p.Format != "IMS2.0" || p.SubFormat != "CM6" {
		t.Errorf("FORMAT/SUBFORMAT = %q/%q", p.Format, p.SubFormat)
	}
	if p.Type != "" {
		t.Errorf("TYPE must be cleared after validation, got %q", p.Type)
	}
	if p.Loc == nil || p.Loc.Type != "STALIST" || len(p.Loc.Stations) != 1 || p.Loc.Stations[0] != "ABC" {
		t.Errorf("LOC = %+v", p.Loc)
	}
	if p.Date.Start.(interface{ Year() int }).Year() != 2020 {
		t.Errorf("DATE.START not a usable time.Time: %+v", p.Date.Start)
	}
}

func TestScenario2LatLonSentinels(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"BULLETIN IMS2.0:SHORT\nBULL_TYPE REB\nTIME 2021-06-01 TO 2021-06-02\n" +
		"LAT TO\nLON -180 TO 0\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	p := out.ProductList[0]
	if p.Loc == nil || p.Loc.Type != "GEO" {
		t.Fatalf("LOC = %+v", p.Loc)
	}
	if p.Loc.Lat.Start.(float64) != -90 || p.Loc.Lat.End.(float64) != 90 {
		t.Errorf("LAT = %+v", p.Loc.Lat)
	}
	if p.Loc.Lon.Start.(float64) != -180 || p.Loc.Lon.End.(float64) != 0 {
		t.Errorf("LON = %+v", p.Loc.Lon)
	}
	if p.Classification.ProductType != "REB" {
		t.Errorf("PRODUCTTYPE = %q", p.Classification.ProductType)
	}
}

func TestScenario3LatStaListConflict(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 42 any_ndc\nE-MAIL a@b.c\n" +
		"WAVEFORM IMS2.0:CM6\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nLAT 0 TO 10\nLON 0 TO 10\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = semantic.Validate(msg, nil)
	if err == nil {
		t.Fatal("expected a semantic error for LAT/LON + STA_LIST conflict")
	}
	if !strings.Contains(err.Error(), "sta_list") {
		t.Errorf("expected the sta_list conflict message, got %v", err)
	}
}

func TestScenario4IgnoredNSEBVariable(t *testing.T) {
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
	found := false
	for _, adv := range out.ErrorMessages {
		if strings.Contains(adv, "LOC_CONF") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an advisory mentioning LOC_CONF, got %v", out.ErrorMessages)
	}
	if _, stillPresent := out.ProductList[0].Env["LOC_CONF"]; stillPresent {
		t.Error("LOC_CONF must be stripped from the product")
	}
}

func TestScenario5SubscriptionFreqCustom(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1\nARR RMS2.0\nFREQ CUSTOM HOURLY\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.ValidateSubscription(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	p := out.ProductList[0]
	if p.Frequency == nil || p.Frequency.Policy != "CUSTOM" || p.Frequency.Value != "HOURLY" {
		t.Errorf("FREQUENCY = %+v", p.Frequency)
	}
	if !strings.Contains(p.SubProductDesc, "ARR") {
		t.Errorf("SUB_PRODUCT_DESC = %q", p.SubProductDesc)
	}
}

func TestScenario6UnsubscribeCommand(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1\nUNSUBSCRIBE\nSUBSCR_LIST 1,2,3\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.ValidateSubscription(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if len(out.ProductList) != 0 {
		t.Fatalf("expected no products, got %d", len(out.ProductList))
	}
	if len(out.CommandList) != 1 {
		t.Fatalf("expected 1 command, got %d", len(out.CommandList))
	}
	c := out.CommandList[0]
	if c.Command != "UNSUBSCRIBE" {
		t.Errorf("COMMAND = %q", c.Command)
	}
	list, _ := c.Env["SUBSCRLIST"].([]int)
	if len(list) != 3 || list[0] != 1 || list[2] != 3 {
		t.Errorf("SUBSCRLIST = %v", list)
	}
}

func TestSubscriptionProductRequiresFrequency(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1\nARR RMS2.0\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.ValidateSubscription(msg, nil); err == nil {
		t.Fatal("expected an error: subscription product without FREQ")
	}
}

func TestUnsubscribeRequiresListOrName(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1\nUNSUBSCRIBE\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.ValidateSubscription(msg, nil); err == nil {
		t.Fatal("expected an error: UNSUBSCRIBE needs SUBSCR_LIST or SUBSCR_NAME")
	}
}

func TestUnsubscribeForbidsProdidList(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE SUBSCRIPTION\nMSG_ID 1\nUNSUBSCRIBE\nPRODID_LIST 1,2\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.ValidateSubscription(msg, nil); err == nil {
		t.Fatal("expected PRODID_LIST to be forbidden on a subscription command")
	}
}

func TestMagTypeSiblingInvariant(t *testing.T) {
	withoutMagType := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nMAG 1 TO 5\nSTOP\n"
	msg, err := parser.Parse([]byte(withoutMagType))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.Validate(msg, nil); err == nil {
		t.Fatal("expected MAG without MAGTYPE to be rejected")
	}

	withBoth := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nMAG 1 TO 5\nMAG_TYPE mb,ms\nSTOP\n"
	msg2, err := parser.Parse([]byte(withBoth))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg2, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	magType, _ := out.ProductList[0].Env["MAGTYPE"].([]string)
	if len(magType) != 2 || magType[0] != "MB" || magType[1] != "MS" {
		t.Errorf("MAGTYPE = %v, want uppercased [MB MS]", magType)
	}
}

func TestLatLonBoundaryValues(t *testing.T) {
	ok := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nLAT -90 TO 90\nLON -180 TO 180\nSTOP\n"
	msg, err := parser.Parse([]byte(ok))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.Validate(msg, nil); err != nil {
		t.Fatalf("boundary LAT/LON values must be accepted: %v", err)
	}
}

func TestLatOutOfRangeRejected(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nLAT -90 TO 90.0001\nLON -180 TO 180\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.Validate(msg, nil); err == nil {
		t.Fatal("expected LAT 90.0001 to be rejected")
	}
}

func TestDepthBoundaryValues(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nDEPTH 0 TO 4000\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.Validate(msg, nil); err != nil {
		t.Fatalf("DEPTH 0..4000 must be accepted: %v", err)
	}
}

func TestDepthOutOfRangeRejected(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nDEPTH -0.0001 TO 4000\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.Validate(msg, nil); err == nil {
		t.Fatal("expected DEPTH -0.0001 to be rejected")
	}
}

func TestDateOrderingEnforced(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-02 TO 2020-01-01\nSTA_LIST ABC\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.Validate(msg, nil); err == nil {
		t.Fatal("expected END before START to be rejected")
	}
}

func TestUnsupportedKeywordRejected(t *testing.T) {
	// MIN_MB is not in WAVEFORM's required or optional tables only if it
	// weren't a commonOptional member; use a genuinely foreign keyword
	// instead by attaching a BULL_TYPE to a product that never asks for one.
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nBULL_TYPE REB\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := semantic.Validate(msg, nil); err == nil {
		t.Fatal("expected BULL_TYPE on a WAVEFORM to be rejected as unsupported")
	}
}

func TestBullTypeCaseInsensitiveUppercased(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"BULLETIN\nBULL_TYPE reb\nTIME 2020-01-01 TO 2020-01-02\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if out.ProductList[0].Classification.ProductType != "REB" {
		t.Errorf("PRODUCTTYPE = %q, want uppercased REB", out.ProductList[0].Classification.ProductType)
	}
	if _, ok := out.ProductList[0].Env["BULLTYPE"]; ok {
		t.Error("BULLTYPE must be removed from the product once promoted into PRODUCTTYPE")
	}
}

func TestRadionuclideClassification(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"BLANKPHD\nTIME 2020-01-01 TO 2020-01-02\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	c := out.ProductList[0].Classification
	if c.TechnologyFamily != "RAD" || c.ProductFamily != "DATA" || c.ProductType != "BLANKPHD" {
		t.Errorf("classification = %+v", c)
	}
	if out.ProductList[0].Format != "RMS2.0" {
		t.Errorf("FORMAT = %q, want the RMS2.0 default", out.ProductList[0].Format)
	}
}

func TestTestProductClassification(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\nTEST_PRODUCT\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	c := out.ProductList[0].Classification
	if c.TechnologyFamily != "TEST" || c.TechnologyType != "TEST" || c.ProductFamily != "TEST" {
		t.Errorf("classification = %+v", c)
	}
}

func TestFilteredWaveformSetsFilterAndArrivalSubtype(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"ARRIVAL:reviewed\nBULL_TYPE REB\nTIME 2020-01-01 TO 2020-01-02\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	p := out.ProductList[0]
	if !p.Classification.HasFilter || p.Classification.Filter != "ARRIVAL" {
		t.Errorf("classification = %+v", p.Classification)
	}
	if p.SubType != "REVIEWED" {
		t.Errorf("SUBTYPE = %q, want uppercased REVIEWED", p.SubType)
	}
}

func TestFloatRuleWritesBackScalarValue(t *testing.T) {
	// Scalar (not range) float fields must have their parsed value
	// written back onto the product, not just validated and discarded.
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nDEPTH_CONF 0.75\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := semantic.Validate(msg, nil)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	v, ok := out.ProductList[0].Env["DEPTH_CONF"].(float64)
	if !ok || v != 0.75 {
		t.Errorf("DEPTH_CONF = %#v, want float64(0.75)", out.ProductList[0].Env["DEPTH_CONF"])
	}
}

func TestValidateDoesNotMutateInputOnFailure(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\n" +
		"WAVEFORM\nTIME 2020-01-02 TO 2020-01-01\nSTA_LIST ABC\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	originalType := msg.ProductList[0].Type
	if _, err := semantic.Validate(msg, nil); err == nil {
		t.Fatal("expected a validation error")
	}
	if msg.ProductList[0].Type != originalType {
		t.Errorf("the caller's original message must be untouched on failure; TYPE changed to %q", msg.ProductList[0].Type)
	}
	if msg.ProductList[0].Classification.ProductFamily != "" {
		t.Error("the caller's original message must not have classification written onto it")
	}
}

type logSpy struct{ msgs []string }

func (l *logSpy) Info(msg string) { l.msgs = append(l.msgs, msg) }

func TestLoggerReceivesAdvisory(t *testing.T) {
	src := "BEGIN IMS2.0\nMSG_TYPE REQUEST\nMSG_ID 1\nE-MAIL a@b.c\n" +
		"WAVEFORM\nTIME 2020-01-01 TO 2020-01-02\nSTA_LIST ABC\nLOC_CONF 0.9\nSTOP\n"
	msg, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	spy := &logSpy{}
	if _, err := semantic.Validate(msg, spy); err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if len(spy.msgs) != 1 || !strings.Contains(spy.msgs[0], "LOC_CONF") {
		t.Errorf("logger spy received %v", spy.msgs)
	}
}
