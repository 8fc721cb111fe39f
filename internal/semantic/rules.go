package semantic

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ctbto-nms/ims2parser/internal/classify"
	"github.com/ctbto-nms/ims2parser/internal/dictionary"
	"github.com/ctbto-nms/ims2parser/internal/ims2err"
	"github.com/ctbto-nms/ims2parser/internal/imsdate"
)

// RuleFunc is the single interface every rule implements: validate env on
// product, normalize it in place, and remove env (and anything else it
// claims) from wl.
type RuleFunc func(env string, wl *worklist, product *dictionary.Product, msg *dictionary.Message) error

func semanticErr(format string, args ...any) error {
	return &ims2err.Error{Kind: ims2err.Semantic, Line: 0, Pos: "", Msg: fmt.Sprintf(format, args...)}
}

// Rules is the global registry from environment-variable name to rule,
// built once at package init.
var Rules = map[string]RuleFunc{
	"BULLTYPE":        bullTypeRule,
	"LAT":             latLonRule,
	"LON":             latLonRule,
	"STALIST":         staListRule,
	"MAG":             magSibblingsRule,
	"MAGTYPE":         magSibblingsRule,
	"RELATIVETO":      relativeToRule,
	"DEPTH":           floatRuleFor("DEPTH"),
	"DEPTHMINUSERROR": floatRuleFor("DEPTHMINUSERROR"),
	"MBMINUSMS":       floatRuleFor("MBMINUSMS"),
	"EVENTSTADIST":    removeEnvRule,
	"CHANLIST":        removeEnvRule,
	"EVENTLIST":       removeEnvRule,
	"BEAMLIST":        removeEnvRule,
	"AUXLIST":         removeEnvRule,
	"TIMESTAMP":       removeEnvRule,
	"MAGPREF_MB":      removeEnvRule,
	"MAGPREF_MS":      removeEnvRule,
	"DEPTH_CONF":      simpleFloatRule,
	"LOC_CONF":        simpleFloatRule,
	"MIN_MB":          simpleFloatRule,
	"SUBSCRLIST":      subscrListRule,
	"SUBSCR_NAME":     removeEnvRule,
	"PRODIDLIST":      forbiddenRule,
}

func init() {
	for _, p := range waveformProducts {
		Rules[p] = waveformRule
	}
	for _, p := range bulletinProducts {
		Rules[p] = bulletinRule
	}
	for _, p := range filteredWaveformProducts {
		Rules[p] = filteredWaveformRule
	}
	for _, p := range simpleWaveformProducts {
		Rules[p] = simpleWaveformProductRule
	}
	for _, p := range radionuclideProducts {
		Rules[p] = radionuclideProductRule
	}
	for _, p := range testProducts {
		Rules[p] = testProductRule
	}
}

// ---- cross-field rules -----------------------------------------------------

// bullTypeRule validates and uppercases BULLTYPE before any product rule
// reads it (DESIGN.md decision 4), then removes it from the worklist; the
// product rule later promotes the value into PRODUCTTYPE and deletes the
// key from the product.
func bullTypeRule(env string, wl *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	raw, _ := p.Env["BULLTYPE"].(string)
	upper := strings.ToUpper(raw)
	if !classify.BulletinCodes[upper] {
		return semanticErr("BULLTYPE %q is not a recognized bulletin code", raw)
	}
	p.Set("BULLTYPE", upper)
	wl.remove("BULLTYPE")
	return nil
}

// latLonRule requires both LAT and LON, forbids a concurrent STALIST,
// resolves MIN/MAX sentinels, and folds the pair into Loc.
func latLonRule(env string, wl *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	if wl.contains("STALIST") || p.Loc != nil && p.Loc.Type == "STALIST" {
		return semanticErr("cannot have sta_list and a lat or lon")
	}
	latRaw, hasLat := p.Env["LAT"].(*dictionary.Range)
	lonRaw, hasLon := p.Env["LON"].(*dictionary.Range)
	if !hasLat || !hasLon {
		return semanticErr("LAT and LON must both be present")
	}
	lat, err := resolveFloatRange(latRaw, -90, 90)
	if err != nil {
		return err
	}
	lon, err := resolveFloatRange(lonRaw, -180, 180)
	if err != nil {
		return err
	}
	p.Loc = &dictionary.Location{Type: "GEO", Lat: lat, Lon: lon}
	p.Delete("LAT")
	p.Delete("LON")
	wl.remove("LAT")
	wl.remove("LON")
	return nil
}

// staListRule requires STALIST, forbids a concurrent LAT/LON, and folds it
// into Loc.
func staListRule(env string, wl *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	if wl.contains("LAT") || wl.contains("LON") {
		return semanticErr("cannot have sta_list and a lat or lon")
	}
	elems, _ := p.Env["STALIST"].([]string)
	if len(elems) == 0 {
		return semanticErr("STALIST must not be empty")
	}
	p.Loc = &dictionary.Location{Type: "STALIST", Stations: elems}
	p.Delete("STALIST")
	wl.remove("STALIST")
	return nil
}

// magSibblingsRule requires MAG and MAGTYPE together, uppercases and
// validates each MAGTYPE element, then runs the float rule on MAG.
func magSibblingsRule(env string, wl *worklist, p *dictionary.Product, msg *dictionary.Message) error {
	if !wl.contains("MAG") || !wl.contains("MAGTYPE") {
		return semanticErr("MAG and MAGTYPE must be present together")
	}
	elems, _ := p.Env["MAGTYPE"].([]string)
	upper := make([]string, len(elems))
	for i, e := range elems {
		u := strings.ToUpper(e)
		if !classify.MagnitudeCodes[u] {
			return semanticErr("MAGTYPE %q is not a recognized magnitude code", e)
		}
		upper[i] = u
	}
	p.Set("MAGTYPE", upper)
	wl.remove("MAGTYPE")
	return floatRuleFor("MAG")("MAG", wl, p, msg)
}

func relativeToRule(env string, wl *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	v, _ := p.Env["RELATIVETO"].(string)
	if !classify.RelativeToValues[v] {
		return semanticErr("RELATIVE_TO %q must be BULLETIN, EVENT or ORIGIN", v)
	}
	wl.remove("RELATIVETO")
	return nil
}

// removeEnvRule is used for fields that require only presence: CHAN_LIST,
// BEAM_LIST, AUX_LIST, TIMESTAMP, etc.
func removeEnvRule(env string, wl *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	wl.remove(env)
	return nil
}

func forbiddenRule(env string, wl *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	return semanticErr("%s is not permitted", env)
}

// floatRuleFor builds a rule for a ranged float field: resolve MIN/MAX
// sentinels from classify.FloatBounds, otherwise parse as float and reject
// out of range.
func floatRuleFor(field string) RuleFunc {
	return func(env string, wl *worklist, p *dictionary.Product, _ *dictionary.Message) error {
		bound, ok := classify.FloatBounds[field]
		if !ok {
			return semanticErr("no bounds registered for %s", field)
		}
		raw, _ := p.Env[field].(*dictionary.Range)
		if raw == nil {
			wl.remove(field)
			return nil
		}
		r, err := resolveFloatRange(raw, bound.Min, bound.Max)
		if err != nil {
			return err
		}
		p.Set(field, r)
		wl.remove(field)
		return nil
	}
}

// simpleFloatRule validates a scalar (non-range) numeric field and writes
// the parsed float64 back onto the product (DESIGN.md decision 1).
func simpleFloatRule(env string, wl *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	raw, _ := p.Env[env].(string)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return semanticErr("%s must be a number, got %q", env, raw)
	}
	p.Set(env, v)
	wl.remove(env)
	return nil
}

// subscrListRule coerces each SUBSCRLIST element to an integer. The parser
// already guaranteed every element is all-digit (DESIGN.md decision 2), so
// this coercion cannot fail on well-formed input.
func subscrListRule(env string, wl *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	elems, _ := p.Env["SUBSCRLIST"].([]string)
	out := make([]int, len(elems))
	for i, e := range elems {
		n, err := strconv.Atoi(e)
		if err != nil {
			return semanticErr("SUBSCRLIST element %q is not an integer", e)
		}
		out[i] = n
	}
	p.Set("SUBSCRLIST", out)
	wl.remove("SUBSCRLIST")
	return nil
}

func resolveFloatRange(r *dictionary.Range, min, max float64) (*dictionary.Range, error) {
	start, err := resolveEndpoint(r.Start, min)
	if err != nil {
		return nil, err
	}
	end, err := resolveEndpoint(r.End, max)
	if err != nil {
		return nil, err
	}
	startF := start.(float64)
	endF := end.(float64)
	if startF > endF {
		return nil, semanticErr("range start %v must be <= end %v", startF, endF)
	}
	if startF < min || startF > max || endF < min || endF > max {
		return nil, semanticErr("range [%v,%v] out of bounds [%v,%v]", startF, endF, min, max)
	}
	return &dictionary.Range{Start: startF, End: endF}, nil
}

func resolveEndpoint(v any, sentinel float64) (any, error) {
	switch t := v.(type) {
	case nil:
		return sentinel, nil
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, semanticErr("expected a number, got %q", t)
		}
		return f, nil
	default:
		return nil, semanticErr("unsupported range endpoint type %T", v)
	}
}

// ---- DATE -------------------------------------------------------------

// validateDate parses product.Date's raw string endpoints through the IMS
// datetime grammar (year 1700-5999) and requires END >= START. Endpoints
// that already hold parsed datetimes pass through unchanged, so validating
// an already-validated product is a no-op.
func validateDate(p *dictionary.Product) error {
	start, err := dateEndpoint(p.Date.Start, "start")
	if err != nil {
		return err
	}
	end, err := dateEndpoint(p.Date.End, "end")
	if err != nil {
		return err
	}
	if end.Before(start) {
		return semanticErr("DATE end %v is before start %v", end, start)
	}
	p.Date = &dictionary.Range{Start: start, End: end}
	return nil
}

func dateEndpoint(v any, which string) (time.Time, error) {
	if t, ok := dictionary.AsTime(v); ok {
		return t, nil
	}
	raw, _ := v.(string)
	t, err := imsdate.Parse(raw)
	if err != nil {
		return time.Time{}, semanticErr("invalid DATE %s %q: %v", which, raw, err)
	}
	return t, nil
}
