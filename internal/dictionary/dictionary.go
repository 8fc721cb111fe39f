// Package dictionary defines the structured, untyped-but-shaped message
// dictionary produced by internal/parser and consumed by internal/semantic.
package dictionary

import "time"

// Range is a {START, END} pair. Before validation the bounds are raw
// strings (numeric literal text), or nil for an elided endpoint, which the
// semantic rule resolves to the field's MIN/MAX bound; after the matching
// semantic rule runs they hold float64, or time.Time for dates.
type Range struct {
	Start any
	End   any
}

// RefID is MSGINFO's optional REF_ID sub-mapping.
type RefID struct {
	RefStr string
	RefSrc string
	SeqNum int
	TotNum int
	HasSeq bool
	HasTot bool
}

// ProdID is MSGINFO's optional PROD_ID sub-mapping.
type ProdID struct {
	ProdID     string
	DeliveryID string
}

// MsgInfo is the header-derived MSGINFO mapping.
type MsgInfo struct {
	Language    string
	Format      string
	Type        string // "request", "subscription", "data"
	ID          string
	Source      string
	RefID       *RefID
	ProdID      *ProdID
	Application string
}

// TargetInfo is the optional E-MAIL/FTP delivery target.
type TargetInfo struct {
	Type string // "EMAIL" or "FTP"
	Data map[string]string
}

// Location is the post-validation LOC sub-mapping: either a GEO box or a
// station list, never both.
type Location struct {
	Type     string // "GEO" or "STALIST"
	Lat      *Range
	Lon      *Range
	Stations []string
}

// Classification is written onto a product by its product rule, replacing
// TYPE.
type Classification struct {
	TechnologyFamily string // SHI, RAD, TEST
	TechnologyType   string // usually UNKNOWN
	ProductFamily    string // DATA, BULLETIN, ALERT, TEST, UNKNOWN
	ProductType      string
	Filter           string // only for filtered-waveform products
	HasFilter        bool
}

// Product is one product or command sub-mapping. Before validation Type
// holds the raw product keyword and Classification is zero; Env holds every
// other environment-variable key keyed by its canonical name, with values
// that are raw strings, []string, *Range, or bool depending on the
// parameter's grammar. After validation, LAT/LON and STALIST are removed
// from Env and folded into Loc, and BULLTYPE is removed and promoted into
// Classification; the other claimed keys stay in Env with their normalized
// values.
type Product struct {
	Type           string
	SubType        string
	Format         string
	SubFormat      string
	Env            map[string]any
	// EnvOrder records the order keys were first written to Env, since Go
	// map iteration order is unspecified and the rule engine's worklist
	// must be processed in source order.
	EnvOrder       []string
	Classification Classification
	Loc            *Location
	Date           *Range
	SubProductDesc string // subscriptions only: verbatim source slice

	// IsCommand marks entries that belong to COMMANDLIST rather than
	// PRODUCTLIST (SUBSCR_PROD / UNSUBSCRIBE commands).
	IsCommand bool
	Command   string
	Frequency *Frequency
}

// Frequency is the subscription FREQ statement's stored form.
type Frequency struct {
	Policy string // IMMEDIATE, DAILY, CONTINUOUS, CUSTOM
	Value  string // only set when Policy == CUSTOM
}

// Message is the top-level parsed-message dictionary.
type Message struct {
	MsgInfo       MsgInfo
	TargetInfo    *TargetInfo
	Ack           bool
	ProductList   []*Product
	CommandList   []*Product
	ErrorMessages []string
}

// NewProduct returns a Product seeded with an empty Env map.
func NewProduct() *Product {
	return &Product{Env: make(map[string]any)}
}

// Set writes key onto the product's Env, recording insertion order the
// first time key appears.
func (p *Product) Set(key string, val any) {
	if _, exists := p.Env[key]; !exists {
		p.EnvOrder = append(p.EnvOrder, key)
	}
	p.Env[key] = val
}

// Delete removes key from Env and from EnvOrder.
func (p *Product) Delete(key string) {
	delete(p.Env, key)
	for i, k := range p.EnvOrder {
		if k == key {
			p.EnvOrder = append(p.EnvOrder[:i], p.EnvOrder[i+1:]...)
			break
		}
	}
}

// Clone deep-copies a Product so cross-product inheritance never lets two
// products alias the same Env map or Range pointers.
func (p *Product) Clone() *Product {
	if p == nil {
		return NewProduct()
	}
	c := *p
	c.Env = make(map[string]any, len(p.Env))
	for k, v := range p.Env {
		c.Env[k] = cloneValue(v)
	}
	c.EnvOrder = append([]string(nil), p.EnvOrder...)
	if p.Date != nil {
		d := *p.Date
		c.Date = &d
	}
	if p.Loc != nil {
		l := *p.Loc
		if p.Loc.Lat != nil {
			lat := *p.Loc.Lat
			l.Lat = &lat
		}
		if p.Loc.Lon != nil {
			lon := *p.Loc.Lon
			l.Lon = &lon
		}
		l.Stations = append([]string(nil), p.Loc.Stations...)
		c.Loc = &l
	}
	if p.Frequency != nil {
		f := *p.Frequency
		c.Frequency = &f
	}
	return &c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Range:
		r := *t
		return &r
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// CloneMessage deep-copies a Message, used by the semantic validator so
// that the caller's parsed dictionary is untouched if validation fails
// partway.
func CloneMessage(m *Message) *Message {
	out := *m
	out.ProductList = make([]*Product, len(m.ProductList))
	for i, p := range m.ProductList {
		out.ProductList[i] = p.Clone()
	}
	out.CommandList = make([]*Product, len(m.CommandList))
	for i, p := range m.CommandList {
		out.CommandList[i] = p.Clone()
	}
	out.ErrorMessages = append([]string(nil), m.ErrorMessages...)
	if m.TargetInfo != nil {
		ti := *m.TargetInfo
		ti.Data = make(map[string]string, len(m.TargetInfo.Data))
		for k, v := range m.TargetInfo.Data {
			ti.Data[k] = v
		}
		out.TargetInfo = &ti
	}
	return &out
}

// AsTime asserts a range's already-validated datetime endpoint.
func AsTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}
