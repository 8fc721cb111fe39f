// Package classify holds the static lookup tables the semantic validator
// consults to turn a raw product keyword into the canonical
// TECHNOLOGYFAMILY/PRODUCTFAMILY classification: a table of entries plus a
// lookup function for the radionuclide family table and the recognized
// bulletin/magnitude code sets.
package classify

// RadFamily looks up the PRODUCTFAMILY for a radionuclide product keyword.
func RadFamily(productType string) (family string, ok bool) {
	for fam, members := range radFamilyTable {
		for _, m := range members {
			if m == productType {
				return fam, true
			}
		}
	}
	return "", false
}

var radFamilyTable = map[string][]string{
	"DATA":     {"BLANKPHD", "CALIBPHD", "DETBKPHD", "GASBKPHD", "QCPHD", "SPHDP", "SPHDF"},
	"BULLETIN": {"ARR", "RRR", "RLR", "RNPS", "SSREB", "MET", "RMSSOH"},
	"ALERT":    {"ALERT_FLOW", "ALERT_SYSTEM", "ALERT_TEMP", "ALERT_UPS"},
}

// BulletinCodes is the fixed set of recognized BULLTYPE values, compared
// case-insensitively on input and always stored uppercased (DESIGN.md
// decision 4).
var BulletinCodes = map[string]bool{
	"SEL1": true, "SEL2": true, "SEL3": true,
	"REB": true, "LEB": true,
	"SEB": true, "SSEB": true, "NEB": true, "NSEB": true,
	"IDC_SEL1": true, "IDC_SEL2": true, "IDC_SEL3": true,
	"IDC_REB": true, "IDC_SEB": true, "IDC_SSEB": true,
	"IDC_NEB": true, "IDC_NSEB": true,
}

// MagnitudeCodes is the fixed set of recognized MAG_TYPE elements.
var MagnitudeCodes = map[string]bool{
	"MB": true, "MS": true, "ML": true,
}

// RelativeToValues is the fixed enum for RELATIVE_TO.
var RelativeToValues = map[string]bool{
	"BULLETIN": true, "EVENT": true, "ORIGIN": true,
}

// ArrivalSubtypes is the enum SLSD/ARRIVAL's optional ARRIVALSUBTYPE accepts.
var ArrivalSubtypes = map[string]bool{
	"AUTOMATIC": true, "REVIEWED": true, "GROUPED": true,
	"ASSOCIATED": true, "UNASSOCIATED": true,
}

// FloatBounds gives the [min, max] a ranged float field resolves its
// MIN/MAX sentinels to, and the hard range its values must lie in.
type FloatBound struct{ Min, Max float64 }

var FloatBounds = map[string]FloatBound{
	"DEPTH":           {Min: 0, Max: 4000},
	"MAG":             {Min: 0, Max: 12},
	"MBMINUSMS":       {Min: 0, Max: 12},
	"DEPTHMINUSERROR": {Min: 0, Max: 4000},
}
