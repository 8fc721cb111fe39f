// Package catalog is the process-wide, read-only registry of token kinds:
// their names, their matching regular expressions, and the family/precedence
// order the tokenizer tries them in.
package catalog

import (
	"regexp"

	"github.com/ctbto-nms/ims2parser/internal/token"
)

// Family groups token kinds that share a precedence band and, for some
// families, a shared context-sensitive terminator veto.
type Family int

const (
	FamilyHead Family = iota
	FamilyKeyword
	FamilyShiProduct
	FamilyRadProduct
	FamilyTestProduct
	FamilySubscriptionCommand
	FamilyTail
)

// Entry is one registered token kind.
type Entry struct {
	Kind   token.Kind
	Family Family
	Regexp *regexp.Regexp
}

// literal builds a case-insensitive, anchored regexp matching name exactly.
func literal(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(name))
}

// RequiresWordTerminator reports whether a family's matches must be
// followed by a terminator character (space, tab, colon, newline) so e.g.
// WAVEFORMX is not shredded into WAVEFORM + X.
func (f Family) RequiresWordTerminator() bool {
	switch f {
	case FamilyKeyword, FamilyShiProduct, FamilyRadProduct, FamilyTestProduct, FamilySubscriptionCommand:
		return true
	}
	return false
}

// RequiresNumberTerminator reports whether this kind belongs to the
// NUMBER/DATETIME terminator class (space, tab, newline, comma).
func RequiresNumberTerminator(k token.Kind) bool {
	return k == KindDatetime || k == KindNumber
}

const (
	KindDatetime token.Kind = "DATETIME"

	// Keyword family.
	KindBegin          token.Kind = "BEGIN"
	KindStop           token.Kind = "STOP"
	KindMsgType        token.Kind = "MSG_TYPE"
	KindMsgID          token.Kind = "MSG_ID"
	KindTime           token.Kind = "TIME"
	KindLat            token.Kind = "LAT"
	KindLon            token.Kind = "LON"
	KindBullType       token.Kind = "BULL_TYPE"
	KindMag            token.Kind = "MAG"
	KindMagType        token.Kind = "MAG_TYPE"
	KindRelativeTo     token.Kind = "RELATIVE_TO"
	KindStaList        token.Kind = "STA_LIST"
	KindChanList       token.Kind = "CHAN_LIST"
	KindEventList      token.Kind = "EVENT_LIST"
	KindBeamList       token.Kind = "BEAM_LIST"
	KindAuxList        token.Kind = "AUX_LIST"
	KindFreq           token.Kind = "FREQ"
	KindImmediate      token.Kind = "IMMEDIATE"
	KindDaily          token.Kind = "DAILY"
	KindContinuous     token.Kind = "CONTINUOUS"
	KindCustom         token.Kind = "CUSTOM"
	KindSubscrList     token.Kind = "SUBSCR_LIST"
	KindSubscrName     token.Kind = "SUBSCR_NAME"
	KindProdidList     token.Kind = "PRODID_LIST"
	KindAck            token.Kind = "ACK"
	KindPart           token.Kind = "PART"
	KindOf             token.Kind = "OF"
	KindRefID          token.Kind = "REF_ID"
	KindProdID         token.Kind = "PROD_ID"
	KindApplication    token.Kind = "APPLICATION"
	KindEmailKw        token.Kind = "E-MAIL"
	KindFtp            token.Kind = "FTP"
	KindTimeStamp      token.Kind = "TIME_STAMP"
	KindTo             token.Kind = "TO"
	KindBoolean        token.Kind = "BOOLEAN"
	KindDepth          token.Kind = "DEPTH"
	KindDepthMinusErr  token.Kind = "DEPTHMINUSERROR"
	KindMbMinusMs      token.Kind = "MBMINUSMS"
	KindEventStaDist   token.Kind = "EVENTSTADIST"
	KindMagprefMb      token.Kind = "MAGPREF_MB"
	KindMagprefMs      token.Kind = "MAGPREF_MS"
	KindDepthConf      token.Kind = "DEPTH_CONF"
	KindLocConf        token.Kind = "LOC_CONF"
	KindMinMb          token.Kind = "MIN_MB"

	// SHI_PRODUCT family.
	KindArrival    token.Kind = "ARRIVAL"
	KindSlsd       token.Kind = "SLSD"
	KindWaveform   token.Kind = "WAVEFORM"
	KindBulletin   token.Kind = "BULLETIN"
	KindOrigin     token.Kind = "ORIGIN"
	KindEvent      token.Kind = "EVENT"
	KindChannel    token.Kind = "CHANNEL"
	KindChanStatus token.Kind = "CHAN_STATUS"
	KindStation    token.Kind = "STATION"
	KindStaStatus  token.Kind = "STA_STATUS"
	KindExecsum    token.Kind = "EXECSUM"
	KindOutage     token.Kind = "OUTAGE"
	KindResponse   token.Kind = "RESPONSE"
	KindNetwork    token.Kind = "NETWORK"
	KindComment    token.Kind = "COMMENT"
	KindCommStatus token.Kind = "COMM_STATUS"
	KindDetection  token.Kind = "DETECTION"

	// RAD_PRODUCT family.
	KindArr         token.Kind = "ARR"
	KindRrr         token.Kind = "RRR"
	KindRlr         token.Kind = "RLR"
	KindRnps        token.Kind = "RNPS"
	KindSsreb       token.Kind = "SSREB"
	KindMet         token.Kind = "MET"
	KindRmssoh      token.Kind = "RMSSOH"
	KindBlankphd    token.Kind = "BLANKPHD"
	KindCalibphd    token.Kind = "CALIBPHD"
	KindDetbkphd    token.Kind = "DETBKPHD"
	KindGasbkphd    token.Kind = "GASBKPHD"
	KindQcphd       token.Kind = "QCPHD"
	KindSphdp       token.Kind = "SPHDP"
	KindSphdf       token.Kind = "SPHDF"
	KindAlertFlow   token.Kind = "ALERT_FLOW"
	KindAlertSystem token.Kind = "ALERT_SYSTEM"
	KindAlertTemp   token.Kind = "ALERT_TEMP"
	KindAlertUps    token.Kind = "ALERT_UPS"
	KindHelp        token.Kind = "HELP"

	// TEST_PRODUCT family.
	KindTestProduct token.Kind = "TEST_PRODUCT"

	// SUBSCRIPTION_COMMAND family.
	KindSubscrProd  token.Kind = "SUBSCR_PROD"
	KindUnsubscribe token.Kind = "UNSUBSCRIBE"

	// TAIL family.
	KindMsgFormat token.Kind = "MSGFORMAT"
	KindEmailAddr token.Kind = "EMAILADDR"
	KindNumber    token.Kind = "NUMBER"
	KindComma     token.Kind = "COMMA"
	KindColon     token.Kind = "COLON"
	KindMinus     token.Kind = "MINUS"
	// KindNewline is synthesized by internal/lexer at the end of every
	// non-blank line; it has no regexp entry in Ordered below.
	KindNewline token.Kind = "NEWLINE"
)

// datetimeRegexp accepts YYYY[-/.]MM[-/.]DD(T| )HH[:MM[:SS[.fraction]]] with
// an optional time-of-day part, year 1700-5999. This is the lexical
// recognizer only; internal/imsdate owns full semantic parsing.
var datetimeRegexp = regexp.MustCompile(
	`^(1[7-9]\d\d|[2-5]\d\d\d)[-/.](0[1-9]|1[0-2]|[1-9])[-/.](0[1-9]|[12]\d|3[01]|[1-9])` +
		`([T ]\d{1,2}(:\d{1,2}(:\d{1,2}(\.\d+)?)?)?)?`)

var numberRegexp = regexp.MustCompile(
	`^[+-]?(0[xX][0-9a-fA-F]+|0[oO][0-7]+|` +
		`(\d+\.\d*|\.\d+|\d+)([eE][+-]?\d+)?)[jJ]?`)

var msgFormatRegexp = regexp.MustCompile(`^[A-Za-z]{3}\d+\.\d+`)

var emailRegexp = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]+`)

// idRegexp must not start with ":" "-" or "," so that a bare separator
// never accidentally matches as a 1-character ID and shadows
// COLON/MINUS/COMMA in the TAIL family's internal precedence.
var idRegexp = regexp.MustCompile(`^[A-Za-z0-9_*/+=()<>][A-Za-z0-9_/=<>:().@*+-]*`)

// Ordered is the full lexical catalog in precedence order: family by family,
// and within a family in the order listed here. The tokenizer tries each
// entry's regexp at the current column and takes the first match that also
// survives the context-sensitive veto (see internal/lexer).
var Ordered = buildOrdered()

func buildOrdered() []Entry {
	e := func(k token.Kind, fam Family, re *regexp.Regexp) Entry {
		return Entry{Kind: k, Family: fam, Regexp: re}
	}
	kw := func(k token.Kind) Entry { return e(k, FamilyKeyword, literal(string(k))) }
	shi := func(k token.Kind) Entry { return e(k, FamilyShiProduct, literal(string(k))) }
	rad := func(k token.Kind) Entry { return e(k, FamilyRadProduct, literal(string(k))) }

	list := []Entry{
		e(KindDatetime, FamilyHead, datetimeRegexp),

		kw(KindBegin), kw(KindStop), kw(KindMsgType), kw(KindMsgID),
		kw(KindTime), kw(KindLat), kw(KindLon), kw(KindBullType),
		kw(KindMagType), kw(KindMag), kw(KindRelativeTo),
		kw(KindStaList), kw(KindChanList), kw(KindEventList),
		kw(KindBeamList), kw(KindAuxList), kw(KindFreq),
		kw(KindImmediate), kw(KindDaily), kw(KindContinuous), kw(KindCustom),
		kw(KindSubscrList), kw(KindSubscrName), kw(KindProdidList),
		kw(KindAck), kw(KindPart), kw(KindOf), kw(KindRefID),
		kw(KindProdID), kw(KindApplication),
		e(KindEmailKw, FamilyKeyword, literal("E-MAIL")),
		kw(KindFtp), kw(KindTimeStamp), kw(KindTo),
		e(KindBoolean, FamilyKeyword, regexp.MustCompile(`(?i)^(true|false)`)),
		kw(KindDepthMinusErr), kw(KindDepthConf), kw(KindDepth),
		kw(KindMbMinusMs), kw(KindEventStaDist),
		kw(KindMagprefMb), kw(KindMagprefMs), kw(KindLocConf), kw(KindMinMb),

		shi(KindArrival), shi(KindSlsd), shi(KindWaveform), shi(KindBulletin),
		shi(KindOrigin), shi(KindEvent), shi(KindChanStatus), shi(KindChannel),
		shi(KindStaStatus), shi(KindStation), shi(KindExecsum), shi(KindOutage),
		shi(KindResponse), shi(KindNetwork), shi(KindCommStatus), shi(KindComment),
		shi(KindDetection),

		rad(KindSsreb), rad(KindRmssoh), rad(KindRnps), rad(KindArr),
		rad(KindRrr), rad(KindRlr), rad(KindMet),
		rad(KindBlankphd), rad(KindCalibphd), rad(KindDetbkphd), rad(KindGasbkphd),
		rad(KindQcphd), rad(KindSphdp), rad(KindSphdf),
		rad(KindAlertFlow), rad(KindAlertSystem), rad(KindAlertTemp), rad(KindAlertUps),
		rad(KindHelp),

		e(KindTestProduct, FamilyTestProduct, literal("TEST_PRODUCT")),

		e(KindSubscrProd, FamilySubscriptionCommand, literal("SUBSCR_PROD")),
		e(KindUnsubscribe, FamilySubscriptionCommand, literal("UNSUBSCRIBE")),

		e(KindMsgFormat, FamilyTail, msgFormatRegexp),
		e(KindEmailAddr, FamilyTail, emailRegexp),
		e(KindNumber, FamilyTail, numberRegexp),
		e(token.ID, FamilyTail, idRegexp),
		e(KindComma, FamilyTail, regexp.MustCompile(`^,`)),
		e(KindColon, FamilyTail, regexp.MustCompile(`^:`)),
		e(KindMinus, FamilyTail, regexp.MustCompile(`^-`)),
	}
	return list
}
