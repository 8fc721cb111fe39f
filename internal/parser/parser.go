// Package parser implements the recursive-descent grammar for IMS2.0
// request and subscription messages.
package parser

import (
	"strings"

	"github.com/ctbto-nms/ims2parser/internal/catalog"
	"github.com/ctbto-nms/ims2parser/internal/dictionary"
	"github.com/ctbto-nms/ims2parser/internal/ims2err"
	"github.com/ctbto-nms/ims2parser/internal/lexer"
	"github.com/ctbto-nms/ims2parser/internal/token"
)

// Parser consumes a lexer.Lexer against the message grammar.
type Parser struct {
	lex *lexer.Lexer
	tok token.Token

	descStart  int
	descTarget *dictionary.Product
}

// Parse parses a full message: header followed by a request, subscription,
// or data body (message := header (request_body | subscription_body |
// data_body)).
func Parse(data []byte) (*dictionary.Message, error) {
	p := &Parser{lex: lexer.New(data)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	msg := &dictionary.Message{Ack: true}
	if err := p.parseHeader(msg); err != nil {
		return nil, err
	}

	switch msg.MsgInfo.Type {
	case "request":
		if err := p.parseStatements(msg, false); err != nil {
			return nil, err
		}
	case "subscription":
		if err := p.parseStatements(msg, true); err != nil {
			return nil, err
		}
	case "data":
		return nil, p.syntaxErr("data message bodies are not implemented by this parser")
	default:
		return nil, p.syntaxErr("unrecognized MSG_TYPE " + msg.MsgInfo.Type)
	}
	return msg, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) skipBlank() error {
	for p.tok.Kind == catalog.KindNewline {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) beginOffset(t token.Token) int {
	return t.ByteOffset - len(t.Literal)
}

func (p *Parser) syntaxErr(msg string) error {
	return ims2err.New(ims2err.Syntax, p.tok.Line, p.tok.ColBegin, p.tok.Pos(), p.tok.LineText, msg)
}

func (p *Parser) expectKind(k token.Kind, what string) (token.Token, error) {
	if p.tok.Kind != k {
		return token.Token{}, p.syntaxErr("expected " + what + " but found " + string(p.tok.Kind))
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

func (p *Parser) expectIDLike(what string) (token.Token, error) {
	if !isIDLike(p.tok.Kind) {
		return token.Token{}, p.syntaxErr("expected " + what + " but found " + string(p.tok.Kind))
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

// ---- header --------------------------------------------------------------

func (p *Parser) parseHeader(msg *dictionary.Message) error {
	msg.MsgInfo.Language = "IMS2.0"

	if err := p.skipBlank(); err != nil {
		return err
	}
	if _, err := p.expectKind(catalog.KindBegin, "BEGIN"); err != nil {
		return err
	}
	fmtTok, err := p.expectKind(catalog.KindMsgFormat, "a message format")
	if err != nil {
		return err
	}
	msg.MsgInfo.Format = strings.ToLower(fmtTok.Literal)
	if err := p.skipBlank(); err != nil {
		return err
	}

	if _, err := p.expectKind(catalog.KindMsgType, "MSG_TYPE"); err != nil {
		return err
	}
	typeTok, err := p.expectIDLike("a message type")
	if err != nil {
		return err
	}
	msg.MsgInfo.Type = strings.ToLower(typeTok.Literal)
	switch msg.MsgInfo.Type {
	case "request", "subscription", "data":
	default:
		return p.syntaxErr("MSG_TYPE must be REQUEST, SUBSCRIPTION or DATA")
	}
	if err := p.skipBlank(); err != nil {
		return err
	}

	if _, err := p.expectKind(catalog.KindMsgID, "MSG_ID"); err != nil {
		return err
	}
	idTok, err := p.expectIDLike("a message id")
	if err != nil {
		return err
	}
	msg.MsgInfo.ID = idTok.Literal
	if isIDLike(p.tok.Kind) {
		srcTok, err := p.expectIDLike("a message source")
		if err != nil {
			return err
		}
		msg.MsgInfo.Source = srcTok.Literal
	}
	if err := p.skipBlank(); err != nil {
		return err
	}

	if p.tok.Kind == catalog.KindRefID {
		if err := p.advance(); err != nil {
			return err
		}
		refStrTok, err := p.expectIDLike("a reference string")
		if err != nil {
			return err
		}
		ref := &dictionary.RefID{RefStr: refStrTok.Literal}
		if isIDLike(p.tok.Kind) && p.tok.Kind != catalog.KindPart {
			srcTok, err := p.expectIDLike("a reference source")
			if err != nil {
				return err
			}
			ref.RefSrc = srcTok.Literal
		}
		if p.tok.Kind == catalog.KindPart {
			if err := p.advance(); err != nil {
				return err
			}
			seqTok, err := p.expectKind(catalog.KindNumber, "a sequence number")
			if err != nil {
				return err
			}
			ref.SeqNum = atoi(seqTok.Literal)
			ref.HasSeq = true
			if p.tok.Kind == catalog.KindOf {
				if err := p.advance(); err != nil {
					return err
				}
				totTok, err := p.expectKind(catalog.KindNumber, "a total part count")
				if err != nil {
					return err
				}
				ref.TotNum = atoi(totTok.Literal)
				ref.HasTot = true
			}
		}
		msg.MsgInfo.RefID = ref
		if err := p.skipBlank(); err != nil {
			return err
		}
	}

	if p.tok.Kind == catalog.KindProdID {
		if err := p.advance(); err != nil {
			return err
		}
		prodTok, err := p.expectKind(catalog.KindNumber, "a product id number")
		if err != nil {
			return err
		}
		delivTok, err := p.expectKind(catalog.KindNumber, "a delivery id number")
		if err != nil {
			return err
		}
		msg.MsgInfo.ProdID = &dictionary.ProdID{ProdID: prodTok.Literal, DeliveryID: delivTok.Literal}
		if err := p.skipBlank(); err != nil {
			return err
		}
	}

	if p.tok.Kind == catalog.KindApplication {
		if err := p.advance(); err != nil {
			return err
		}
		appTok, err := p.expectIDLike("an application id")
		if err != nil {
			return err
		}
		msg.MsgInfo.Application = appTok.Literal
		if err := p.skipBlank(); err != nil {
			return err
		}
	}

	if p.tok.Kind == catalog.KindEmailKw || p.tok.Kind == catalog.KindFtp {
		kind := "EMAIL"
		if p.tok.Kind == catalog.KindFtp {
			kind = "FTP"
		}
		if err := p.advance(); err != nil {
			return err
		}
		addrTok, err := p.expectKind(catalog.KindEmailAddr, "an address")
		if err != nil {
			return err
		}
		msg.TargetInfo = &dictionary.TargetInfo{Type: kind, Data: map[string]string{"EMAILADDR": addrTok.Literal}}
		if err := p.skipBlank(); err != nil {
			return err
		}
	}

	if p.tok.Kind == catalog.KindAck {
		if err := p.advance(); err != nil {
			return err
		}
		// ACK takes whatever literal follows; anything not normalizing to
		// false/no/0 counts as true.
		if p.tok.Kind != catalog.KindBoolean && !isIDLike(p.tok.Kind) {
			return p.syntaxErr("expected a boolean but found " + string(p.tok.Kind))
		}
		msg.Ack = toBoolean(p.tok.Literal)
		if err := p.advance(); err != nil {
			return err
		}
		if err := p.skipBlank(); err != nil {
			return err
		}
	}

	return nil
}

func toBoolean(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "no", "0":
		return false
	}
	return true
}

func atoi(s string) int {
	n := 0
	neg := false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}

// ---- request / subscription bodies ---------------------------------------

// parseStatements handles both request_body and subscription_body, which
// share the same statement grammar; subscription adds command statements
// and FREQ.
func (p *Parser) parseStatements(msg *dictionary.Message, isSubscription bool) error {
	// current receives parameter statements; seed is the last completed
	// product, deep-copied into the next one so shared constraints
	// propagate. A command statement resets the seed: products after a
	// command start from scratch.
	var current, seed *dictionary.Product
	reachedStop := false

	closeDesc := func() {
		if isSubscription && p.descTarget != nil {
			end := p.beginOffset(p.tok)
			p.descTarget.SubProductDesc = strings.TrimSpace(p.lex.Slice(p.descStart, end))
			p.descTarget = nil
		}
	}

	for {
		if err := p.skipBlank(); err != nil {
			return err
		}
		if p.tok.IsEOF() {
			break
		}
		if p.tok.Kind == catalog.KindStop {
			closeDesc()
			reachedStop = true
			if err := p.advance(); err != nil {
				return err
			}
			break
		}

		if productKinds[p.tok.Kind] {
			closeDesc()
			np := seed.Clone()
			np.Type = string(p.tok.Kind)
			startTok := p.tok
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.Kind == catalog.KindColon {
				if err := p.advance(); err != nil {
					return err
				}
				subTok, err := p.expectIDLike("a product subtype")
				if err != nil {
					return err
				}
				np.SubType = subTok.Literal
			}
			if p.tok.Kind == catalog.KindMsgFormat {
				np.Format = p.tok.Literal
				if err := p.advance(); err != nil {
					return err
				}
				if p.tok.Kind == catalog.KindColon {
					if err := p.advance(); err != nil {
						return err
					}
					subfTok, err := p.expectIDLike("a product subformat")
					if err != nil {
						return err
					}
					np.SubFormat = subfTok.Literal
				}
			}
			msg.ProductList = append(msg.ProductList, np)
			current = np
			seed = np
			if isSubscription {
				p.descStart = p.beginOffset(startTok)
				p.descTarget = np
			}
			continue
		}

		if isSubscription && commandKinds[p.tok.Kind] {
			closeDesc()
			cmd := dictionary.NewProduct()
			cmd.IsCommand = true
			cmd.Command = string(p.tok.Kind)
			startTok := p.tok
			if err := p.advance(); err != nil {
				return err
			}
			msg.CommandList = append(msg.CommandList, cmd)
			current = cmd
			seed = nil
			p.descStart = p.beginOffset(startTok)
			p.descTarget = cmd
			continue
		}

		if isSubscription && p.tok.Kind == catalog.KindFreq {
			if current == nil {
				return p.syntaxErr("FREQ must follow a product or command statement")
			}
			if err := p.advance(); err != nil {
				return err
			}
			policyTok, err := p.expectKind4(catalog.KindImmediate, catalog.KindDaily, catalog.KindContinuous, catalog.KindCustom)
			if err != nil {
				return err
			}
			freq := &dictionary.Frequency{Policy: string(policyTok.Kind)}
			if policyTok.Kind == catalog.KindCustom {
				nameTok, err := p.expectIDLike("a custom frequency name")
				if err != nil {
					return err
				}
				freq.Value = nameTok.Literal
			}
			current.Frequency = freq
			continue
		}

		if current == nil {
			return p.syntaxErr("expected a product statement before parameters")
		}
		if err := p.parseParameter(current); err != nil {
			return err
		}
	}

	if !reachedStop {
		return ims2err.New(ims2err.Syntax, p.tok.Line, -1, "EOF", p.tok.LineText, "expected STOP but reached end of stream")
	}
	return nil
}

func (p *Parser) expectKind4(a, b, c, d token.Kind) (token.Token, error) {
	if p.tok.Kind != a && p.tok.Kind != b && p.tok.Kind != c && p.tok.Kind != d {
		return token.Token{}, p.syntaxErr("expected a frequency policy but found " + string(p.tok.Kind))
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

// parseParameter parses one environment-variable statement and writes it
// onto product.
func (p *Parser) parseParameter(product *dictionary.Product) error {
	switch {
	case p.tok.Kind == catalog.KindTime:
		if err := p.advance(); err != nil {
			return err
		}
		start, err := p.parseDatetimeLiteral()
		if err != nil {
			return err
		}
		if _, err := p.expectKind(catalog.KindTo, "TO"); err != nil {
			return err
		}
		end, err := p.parseDatetimeLiteral()
		if err != nil {
			return err
		}
		product.Date = &dictionary.Range{Start: start, End: end}
		return nil

	case p.tok.Kind == catalog.KindLat || p.tok.Kind == catalog.KindLon:
		name := "LAT"
		if p.tok.Kind == catalog.KindLon {
			name = "LON"
		}
		if err := p.advance(); err != nil {
			return err
		}
		r, err := p.parseLatLon()
		if err != nil {
			return err
		}
		product.Set(name, r)
		return nil

	case rangeKeywords[p.tok.Kind] != "":
		name := rangeKeywords[p.tok.Kind]
		if err := p.advance(); err != nil {
			return err
		}
		r, err := p.parseRange()
		if err != nil {
			return err
		}
		product.Set(name, r)
		return nil

	case idKeywords[p.tok.Kind] != "":
		name := idKeywords[p.tok.Kind]
		if err := p.advance(); err != nil {
			return err
		}
		t, err := p.expectIDLike("a value for " + name)
		if err != nil {
			return err
		}
		product.Set(name, t.Literal)
		return nil

	case enumKeywords[p.tok.Kind] != "":
		name := enumKeywords[p.tok.Kind]
		if err := p.advance(); err != nil {
			return err
		}
		t, err := p.expectIDLike("a value for " + name)
		if err != nil {
			return err
		}
		product.Set(name, strings.ToUpper(t.Literal))
		return nil

	case listKeywords[p.tok.Kind] != "":
		kind := p.tok.Kind
		name := listKeywords[kind]
		if err := p.advance(); err != nil {
			return err
		}
		elems, err := p.parseList(numericOnlyLists[kind])
		if err != nil {
			return err
		}
		product.Set(name, elems)
		return nil

	case simpleNumberKeywords[p.tok.Kind] != "":
		name := simpleNumberKeywords[p.tok.Kind]
		if err := p.advance(); err != nil {
			return err
		}
		t, err := p.expectKind(catalog.KindNumber, "a number for "+name)
		if err != nil {
			return err
		}
		product.Set(name, t.Literal)
		return nil

	case p.tok.Kind == catalog.KindTimeStamp:
		if err := p.advance(); err != nil {
			return err
		}
		product.Set("TIMESTAMP", true)
		return nil

	default:
		return p.syntaxErr("unsupported keyword " + string(p.tok.Kind))
	}
}

func (p *Parser) parseDatetimeLiteral() (string, error) {
	if p.tok.Kind != catalog.KindDatetime {
		return "", p.syntaxErr("expected a datetime but found " + string(p.tok.Kind))
	}
	lit := p.tok.Literal
	if err := p.advance(); err != nil {
		return "", err
	}
	return lit, nil
}

// parseRange parses "<num> TO <num>" where either endpoint may be elided;
// an elided endpoint is left nil and resolved to the field's MIN/MAX bound
// by the semantic layer.
func (p *Parser) parseRange() (*dictionary.Range, error) {
	r := &dictionary.Range{}
	if p.tok.Kind != catalog.KindTo {
		t, err := p.expectKind(catalog.KindNumber, "a number")
		if err != nil {
			return nil, err
		}
		r.Start = t.Literal
	}
	if _, err := p.expectKind(catalog.KindTo, "TO"); err != nil {
		return nil, err
	}
	if p.tok.Kind != catalog.KindNewline && !p.tok.IsEOF() {
		t, err := p.expectKind(catalog.KindNumber, "a number")
		if err != nil {
			return nil, err
		}
		r.End = t.Literal
	}
	return r, nil
}

// parseLatLon handles the LAT/LON grammar, which unlike parseRange admits
// a sign written as a separate MINUS token: "[-]<num> TO [-]<num>", either
// side elidable.
func (p *Parser) parseLatLon() (*dictionary.Range, error) {
	r := &dictionary.Range{}
	if p.tok.Kind != catalog.KindTo {
		v, err := p.parseSignedNumber()
		if err != nil {
			return nil, err
		}
		r.Start = v
	}
	if _, err := p.expectKind(catalog.KindTo, "TO"); err != nil {
		return nil, err
	}
	if p.tok.Kind != catalog.KindNewline && !p.tok.IsEOF() {
		v, err := p.parseSignedNumber()
		if err != nil {
			return nil, err
		}
		r.End = v
	}
	return r, nil
}

func (p *Parser) parseSignedNumber() (string, error) {
	neg := false
	if p.tok.Kind == catalog.KindMinus {
		neg = true
		if err := p.advance(); err != nil {
			return "", err
		}
	}
	numTok, err := p.expectKind(catalog.KindNumber, "a number")
	if err != nil {
		return "", err
	}
	if neg && !strings.HasPrefix(numTok.Literal, "-") {
		return "-" + numTok.Literal, nil
	}
	return numTok.Literal, nil
}

// parseList parses "<elem>(, <elem>)*" until a non-comma terminator.
func (p *Parser) parseList(numericOnly bool) ([]string, error) {
	var out []string
	for {
		t, err := p.expectIDLikeOrNumber()
		if err != nil {
			return nil, err
		}
		if numericOnly && !isAllDigits(t.Literal) {
			return nil, ims2err.New(ims2err.Syntax, t.Line, t.ColBegin, t.Pos(), t.LineText,
				"expected a numeric list element but found "+t.Literal)
		}
		out = append(out, t.Literal)
		if p.tok.Kind != catalog.KindComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Parser) expectIDLikeOrNumber() (token.Token, error) {
	if p.tok.Kind == catalog.KindNumber || isIDLike(p.tok.Kind) {
		t := p.tok
		if err := p.advance(); err != nil {
			return token.Token{}, err
		}
		return t, nil
	}
	return token.Token{}, p.syntaxErr("expected a list element but found " + string(p.tok.Kind))
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
