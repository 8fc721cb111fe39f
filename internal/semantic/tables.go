package semantic

// Three static tables drive the engine, keyed by product TYPE: required
// environment variables (an ordered list; the product's own TYPE name
// dispatches to that product's product rule, and BULLTYPE is listed ahead
// of it for bulletin-shaped products so the bulletin code is uppercased
// before the product rule promotes it into PRODUCTTYPE, DESIGN.md decision
// 4), optional environment variables (a set, walked after required rules
// have run), and the environment variables silently ignored as NSEB-only
// (DESIGN.md decision 6).

var waveformProducts = []string{"WAVEFORM"}
var bulletinProducts = []string{"BULLETIN"}
var filteredWaveformProducts = []string{"ARRIVAL", "SLSD", "ORIGIN", "EVENT"}
var simpleWaveformProducts = []string{
	"CHANNEL", "COMMENT", "NETWORK", "CHAN_STATUS", "STATION",
	"STA_STATUS", "EXECSUM", "OUTAGE", "RESPONSE", "COMM_STATUS", "DETECTION",
}
var radionuclideProducts = []string{
	"ARR", "RRR", "RLR", "RNPS", "SSREB", "MET", "RMSSOH",
	"BLANKPHD", "CALIBPHD", "DETBKPHD", "GASBKPHD", "QCPHD", "SPHDP", "SPHDF",
	"ALERT_FLOW", "ALERT_SYSTEM", "ALERT_TEMP", "ALERT_UPS", "HELP",
}
var testProducts = []string{"TEST_PRODUCT"}

// commonOptional is the optional-environment-variable surface shared by
// every non-test product: location (as either LAT+LON or STALIST, mutually
// exclusive), magnitude (as MAG+MAGTYPE siblings), and the remaining list
// and simple-number keywords.
var commonOptional = []string{
	"LAT", "LON", "STALIST",
	"MAG", "MAGTYPE",
	"RELATIVETO",
	"CHANLIST", "EVENTLIST", "BEAMLIST", "AUXLIST",
	"TIMESTAMP",
	"MAGPREF_MB", "MAGPREF_MS",
	"DEPTH", "DEPTHMINUSERROR", "MBMINUSMS", "EVENTSTADIST",
	"DEPTH_CONF", "LOC_CONF", "MIN_MB",
}

// Tables is one required/optional/ignored ruleset. Two flavors share the
// engine: RequestTables and SubscriptionTables.
type Tables struct {
	Required map[string][]string
	Optional map[string]map[string]bool
	Ignored  map[string]bool
}

// IgnoredEnvVars is the fixed NSEB-only set (DESIGN.md decision 6 spells
// the source's MINDEF/MINND_SP as MINNDEF/MINNDPSP). The lexical catalog has
// no keyword for MINNDEF or MINNDPSP, so the parser rejects a statement
// using either before this set is consulted; LOC_CONF is the only entry
// that reaches it.
var IgnoredEnvVars = map[string]bool{
	"LOC_CONF": true,
	"MINNDEF":  true,
	"MINNDPSP": true,
}

func optionalSet(extra ...string) map[string]bool {
	m := make(map[string]bool, len(commonOptional)+len(extra))
	for _, k := range commonOptional {
		m[k] = true
	}
	for _, k := range extra {
		m[k] = true
	}
	return m
}

// RequestTables drives validation of PRODUCTLIST entries in a request
// message.
var RequestTables = buildRequestTables()

func buildRequestTables() Tables {
	t := Tables{
		Required: make(map[string][]string),
		Optional: make(map[string]map[string]bool),
		Ignored:  IgnoredEnvVars,
	}
	for _, p := range waveformProducts {
		t.Required[p] = []string{p, "DATE"}
		t.Optional[p] = optionalSet()
	}
	for _, p := range bulletinProducts {
		t.Required[p] = []string{"BULLTYPE", p, "DATE"}
		t.Optional[p] = optionalSet()
	}
	for _, p := range filteredWaveformProducts {
		t.Required[p] = []string{"BULLTYPE", p, "DATE"}
		t.Optional[p] = optionalSet()
	}
	for _, p := range simpleWaveformProducts {
		t.Required[p] = []string{p, "DATE"}
		t.Optional[p] = optionalSet()
	}
	for _, p := range radionuclideProducts {
		t.Required[p] = []string{p, "DATE"}
		t.Optional[p] = optionalSet()
	}
	for _, p := range testProducts {
		t.Required[p] = []string{p}
		t.Optional[p] = optionalSet()
	}
	return t
}

// SubscriptionTables drives validation of PRODUCTLIST entries within a
// subscription message: it relaxes the DATE requirement (a subscription
// describes an ongoing interest, not a bounded time window) and the product
// is expected to carry a FREQUENCY policy instead.
var SubscriptionTables = buildSubscriptionTables()

func buildSubscriptionTables() Tables {
	base := buildRequestTables()
	t := Tables{Required: make(map[string][]string), Optional: base.Optional, Ignored: IgnoredEnvVars}
	for product, req := range base.Required {
		out := make([]string, 0, len(req)+1)
		for _, r := range req {
			if r == "DATE" {
				continue
			}
			out = append(out, r)
		}
		out = append(out, "FREQUENCY")
		t.Required[product] = out
	}
	return t
}

// CommandOptional is the optional set for COMMANDLIST entries. Both
// commands share the same surface; UNSUBSCRIBE additionally requires at
// least one of SUBSCR_LIST / SUBSCR_NAME, enforced by validateCommand.
var CommandOptional = map[string]bool{
	"SUBSCRLIST":  true,
	"SUBSCR_NAME": true,
	"PRODIDLIST":  true, // present only to be rejected, see DESIGN.md decision 3
}
