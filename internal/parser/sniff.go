package parser

import (
	"regexp"
	"strings"
)

// msgIDRegexp and beginRegexp scan raw text directly, independent of the
// tokenizer, so a header can be attributed even when the message is too
// malformed to lex.
var (
	msgIDRegexp = regexp.MustCompile(`(?i)MSG_ID\s+(\S+)(?:\s+(\S+))?`)
	beginRegexp = regexp.MustCompile(`(?i)BEGIN\s+(\S+)`)
)

// SniffedHeader is the best-effort result of scanning raw text for a header
// when a full parse has already failed.
type SniffedHeader struct {
	MsgID  string
	Source string
	Format string
}

// SniffHeader scans raw for MSG_ID and BEGIN regardless of overall
// well-formedness.
func SniffHeader(raw []byte) SniffedHeader {
	var h SniffedHeader
	s := string(raw)
	if m := msgIDRegexp.FindStringSubmatch(s); m != nil {
		h.MsgID = m[1]
		h.Source = m[2]
	}
	if m := beginRegexp.FindStringSubmatch(s); m != nil {
		h.Format = m[1]
	}
	return h
}

// Sniff is the lightweight confidence heuristic supplemented from
// original_source (is_parsable/get_message_type): it reports whether raw
// looks like an IMS2.0 control message at all, and if so, which MSG_TYPE it
// declares, without running the full tokenizer/parser. Callers such as a
// directory-scan CLI mode use this to skip non-IMS files cheaply.
func Sniff(raw []byte) (looksLikeIMS bool, kind string) {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(strings.ToUpper(s), "BEGIN") {
		return false, ""
	}
	idx := strings.Index(strings.ToUpper(s), "MSG_TYPE")
	if idx < 0 {
		return true, ""
	}
	rest := strings.TrimSpace(s[idx+len("MSG_TYPE"):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return true, ""
	}
	return true, strings.ToLower(fields[0])
}
