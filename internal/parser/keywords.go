package parser

import "github.com/ctbto-nms/ims2parser/internal/catalog"
import "github.com/ctbto-nms/ims2parser/internal/token"

// Keyword groupings for the parameter-statement grammar: which canonical
// environment-variable name each keyword token maps to, and how its value
// should be parsed.

var rangeKeywords = map[token.Kind]string{
	catalog.KindMag:           "MAG",
	catalog.KindDepth:         "DEPTH",
	catalog.KindDepthMinusErr: "DEPTHMINUSERROR",
	catalog.KindMbMinusMs:     "MBMINUSMS",
	catalog.KindEventStaDist:  "EVENTSTADIST",
}

var idKeywords = map[token.Kind]string{
	catalog.KindBullType:   "BULLTYPE",
	catalog.KindMagprefMb:  "MAGPREF_MB",
	catalog.KindMagprefMs:  "MAGPREF_MS",
	catalog.KindSubscrName: "SUBSCR_NAME",
}

var enumKeywords = map[token.Kind]string{
	catalog.KindRelativeTo: "RELATIVETO",
}

var listKeywords = map[token.Kind]string{
	catalog.KindStaList:    "STALIST",
	catalog.KindChanList:   "CHANLIST",
	catalog.KindEventList:  "EVENTLIST",
	catalog.KindBeamList:   "BEAMLIST",
	catalog.KindAuxList:    "AUXLIST",
	catalog.KindMagType:    "MAGTYPE",
	catalog.KindSubscrList: "SUBSCRLIST",
	catalog.KindProdidList: "PRODIDLIST",
}

// numericOnlyLists must have every element validated as all-digit at parse
// time (DESIGN.md decision 2), so the semantic validator's integer coercion
// can never fail on well-formed input.
var numericOnlyLists = map[token.Kind]bool{
	catalog.KindSubscrList: true,
	catalog.KindProdidList: true,
}

var simpleNumberKeywords = map[token.Kind]string{
	catalog.KindDepthConf: "DEPTH_CONF",
	catalog.KindLocConf:   "LOC_CONF",
	catalog.KindMinMb:     "MIN_MB",
}

// productKinds is every token kind whose family is a product family
// (SHI_PRODUCT, RAD_PRODUCT, TEST_PRODUCT); membership starts a new product
// statement.
var productKinds = buildProductKinds()

func buildProductKinds() map[token.Kind]bool {
	m := make(map[token.Kind]bool)
	for _, e := range catalog.Ordered {
		switch e.Family {
		case catalog.FamilyShiProduct, catalog.FamilyRadProduct, catalog.FamilyTestProduct:
			m[e.Kind] = true
		}
	}
	return m
}

var commandKinds = map[token.Kind]bool{
	catalog.KindSubscrProd:  true,
	catalog.KindUnsubscribe: true,
}

// isIDLike reports whether k is a token kind the grammar accepts wherever
// "an identifier" is called for (MSG_ID, APPLICATION value, subtype, etc.):
// plain ID, its WCID/DATA subkinds, and bare NUMBER/EMAILADDR/DATETIME/
// MSGFORMAT, since many header fields accept
// "id-or-number-or-email-or-datetime-or-data".
func isIDLike(k token.Kind) bool {
	switch k {
	case token.ID, token.WCID, token.DATA,
		catalog.KindNumber, catalog.KindEmailAddr, catalog.KindDatetime, catalog.KindMsgFormat:
		return true
	}
	// A product or subscription-command family token (but not a KEYWORD
	// family token) can also stand in for a generic
	// identifier in a few grammar slots (e.g. RELATIVE_TO ORIGIN, where
	// ORIGIN also happens to be a registered SHI_PRODUCT keyword).
	return productKinds[k] || commandKinds[k]
}
