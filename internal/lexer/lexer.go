// Package lexer turns a byte stream into the IMS2.0 token sequence. The
// whole stream is buffered in memory up front (messages are small control
// documents, not data payloads) so that Slice can return exact substrings by
// absolute byte offset without a real seek.
package lexer

import (
	"strconv"
	"strings"

	"github.com/ctbto-nms/ims2parser/internal/catalog"
	"github.com/ctbto-nms/ims2parser/internal/ims2err"
	"github.com/ctbto-nms/ims2parser/internal/token"
)

const ignoredWhitespace = " \t\v\f"

// physLine is one line of the original stream, split on \n, with the
// trailing \r (if any, for \r\n streams) stripped from the stored text but
// counted in the byte offsets so Slice stays exact.
type physLine struct {
	text       string // without line terminator
	startOff   int    // absolute byte offset of text[0]
	termLen    int    // length of the line terminator that followed (0 at EOF)
}

// Lexer tokenizes an IMS2.0 message stream.
type Lexer struct {
	data  []byte
	lines []physLine

	lineIdx int // index into lines of the line currently being scanned
	col     int // 0-based byte offset into the current line's text

	current  token.Token
	produced bool // true once any token (including ENDMARKER) has been returned
}

// New builds a Lexer over the full contents of data.
func New(data []byte) *Lexer {
	l := &Lexer{data: data}
	l.splitLines()
	return l
}

func (l *Lexer) splitLines() {
	s := string(l.data)
	off := 0
	for {
		nl := strings.IndexByte(s[off:], '\n')
		if nl < 0 {
			if off < len(s) || len(l.lines) == 0 {
				l.lines = append(l.lines, physLine{text: s[off:], startOff: off, termLen: 0})
			}
			break
		}
		end := off + nl
		text := s[off:end]
		term := 1
		if strings.HasSuffix(text, "\r") {
			text = text[:len(text)-1]
			term = 2 // the \r plus the \n, for byte-offset accounting
		}
		l.lines = append(l.lines, physLine{text: text, startOff: off, termLen: term})
		off = end + 1
	}
}

func (l *Lexer) curLine() physLine {
	if l.lineIdx < len(l.lines) {
		return l.lines[l.lineIdx]
	}
	return physLine{}
}

// byteOffsetAt returns the absolute offset of position col within the
// current line.
func (l *Lexer) byteOffsetAt(col int) int {
	return l.curLine().startOff + col
}

// Current returns the last token returned by Next.
func (l *Lexer) Current() token.Token { return l.current }

// Next returns the next token, or the synthetic ENDMARKER at end of stream.
func (l *Lexer) Next() (token.Token, error) {
	for {
		if l.lineIdx >= len(l.lines) {
			l.current = token.EndMarker(len(l.lines)+1, "", len(l.data))
			l.produced = true
			return l.current, nil
		}
		line := l.curLine()
		// Skip ignored whitespace.
		for l.col < len(line.text) && strings.ContainsRune(ignoredWhitespace, rune(line.text[l.col])) {
			l.col++
		}
		if l.col >= len(line.text) {
			// End of line: emit NEWLINE, then advance to the next line.
			tok := token.Token{
				Kind:       catalog.KindNewline,
				Literal:    "\n",
				Line:       l.lineIdx + 1,
				ColBegin:   l.col + 1,
				ColEnd:     l.col + 1,
				LineText:   line.text,
				ByteOffset: line.startOff + len(line.text) + line.termLen,
			}
			l.lineIdx++
			l.col = 0
			l.current = tok
			l.produced = true
			return tok, nil
		}

		remainder := line.text[l.col:]
		matched, kind, ok := l.matchAt(remainder)
		if !ok {
			return token.Token{}, l.illegalCharacter(line)
		}
		begin := l.col + 1
		l.col += len(matched)
		end := l.col
		tok := token.Token{
			Kind:       kind,
			Literal:    matched,
			Line:       l.lineIdx + 1,
			ColBegin:   begin,
			ColEnd:     end,
			LineText:   line.text,
			ByteOffset: l.byteOffsetAt(l.col),
		}
		if kind == token.ID {
			tok.Kind = classifyID(matched)
		}
		l.current = tok
		l.produced = true
		return tok, nil
	}
}

// matchAt tries every catalog entry, in precedence order, at the start of
// remainder, applying the context-sensitive veto for keyword/number/datetime
// matches. On a veto failure it proceeds to the next kind rather than
// stopping.
func (l *Lexer) matchAt(remainder string) (matched string, kind token.Kind, ok bool) {
	for _, entry := range catalog.Ordered {
		loc := entry.Regexp.FindStringIndex(remainder)
		if loc == nil || loc[0] != 0 {
			continue
		}
		text := remainder[:loc[1]]
		if !l.passesVeto(entry, remainder, len(text)) {
			continue
		}
		return text, entry.Kind, true
	}
	return "", "", false
}

func (l *Lexer) passesVeto(entry catalog.Entry, remainder string, matchLen int) bool {
	var terminators string
	switch {
	case entry.Family.RequiresWordTerminator():
		terminators = " \t:\n"
	case catalog.RequiresNumberTerminator(entry.Kind):
		terminators = " \t\n,"
	default:
		return true
	}
	if matchLen >= len(remainder) {
		return true // end of line counts as a terminator
	}
	next := remainder[matchLen]
	return strings.ContainsRune(terminators, rune(next))
}

// classifyID derives the virtual WCID/DATA/ID subkind from a raw ID match.
func classifyID(literal string) token.Kind {
	if strings.ContainsRune(literal, '*') {
		return token.WCID
	}
	if len(literal) > 50 || strings.ContainsAny(literal, ":/=+<>()") {
		return token.DATA
	}
	return token.ID
}

func (l *Lexer) illegalCharacter(line physLine) error {
	col := l.col + 1
	pos := strconv.Itoa(col)
	return ims2err.New(ims2err.Lexical, l.lineIdx+1, col, pos, line.text,
		"illegal character at column "+pos)
}

// Expect requires the next token to be of kind k.
func (l *Lexer) Expect(k token.Kind) (token.Token, error) {
	return l.ExpectOneOf(k)
}

// ExpectOneOf requires the next token's kind to be one of kinds.
func (l *Lexer) ExpectOneOf(kinds ...token.Kind) (token.Token, error) {
	tok, err := l.Next()
	if err != nil {
		return token.Token{}, err
	}
	if containsKind(kinds, tok.Kind) {
		return tok, nil
	}
	return token.Token{}, l.unexpected(tok, kinds)
}

func (l *Lexer) unexpected(tok token.Token, want []token.Kind) error {
	msg := "expected " + joinKinds(want) + " but found " + string(tok.Kind)
	return ims2err.New(ims2err.Syntax, tok.Line, tok.ColBegin, tok.Pos(), tok.LineText, msg)
}

// ConsumeWhileNextIn requires at least one upcoming token to match kinds,
// keeps consuming while it matches, and returns the first non-matching
// token (without having consumed it past Current()).
func (l *Lexer) ConsumeWhileNextIn(kinds ...token.Kind) (token.Token, error) {
	first, err := l.Next()
	if err != nil {
		return token.Token{}, err
	}
	if !containsKind(kinds, first.Kind) {
		return token.Token{}, l.unexpected(first, kinds)
	}
	return l.ConsumeWhileCurrentIn(kinds...)
}

// ConsumeWhileCurrentIn consumes tokens starting from Current() while its
// kind is in kinds (no minimum), returning the first non-matching token.
func (l *Lexer) ConsumeWhileCurrentIn(kinds ...token.Kind) (token.Token, error) {
	for containsKind(kinds, l.current.Kind) {
		tok, err := l.Next()
		if err != nil {
			return token.Token{}, err
		}
		l.current = tok
	}
	return l.current, nil
}

// AdvanceUntil scans forward, line by line, for any of kinds appearing
// anywhere on a line, repositioning the cursor just past the match. It
// raises if none is found, unless ENDMARKER is among kinds.
func (l *Lexer) AdvanceUntil(kinds ...token.Kind) (token.Token, error) {
	wantsEOF := containsKind(kinds, token.ENDMARKER)
	for {
		tok, err := l.Next()
		if err != nil {
			return token.Token{}, err
		}
		if tok.IsEOF() {
			if wantsEOF {
				return tok, nil
			}
			return token.Token{}, ims2err.New(ims2err.Syntax, tok.Line, -1, "EOF", tok.LineText,
				"reached end of stream while scanning for "+joinKinds(kinds))
		}
		if containsKind(kinds, tok.Kind) {
			return tok, nil
		}
	}
}

// Slice returns the raw substring of the original stream between two byte
// offsets previously recorded on tokens.
func (l *Lexer) Slice(begin, end int) string {
	if begin < 0 {
		begin = 0
	}
	if end > len(l.data) {
		end = len(l.data)
	}
	if begin >= end {
		return ""
	}
	return string(l.data[begin:end])
}

func containsKind(kinds []token.Kind, k token.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

func joinKinds(kinds []token.Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, " or ")
}
