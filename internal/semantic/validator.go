// Package semantic implements the rule engine that normalizes and
// validates a parsed message dictionary into the canonical classification,
// or returns a precise semantic error.
package semantic

import (
	"fmt"

	"github.com/ctbto-nms/ims2parser/internal/dictionary"
)

// Logger receives advisory strings from the validator with no semantic
// effect. The zero value (nil) is a valid, silent Logger.
type Logger interface {
	Info(msg string)
}

// Validate runs the request-flavor engine over msg, returning a new,
// validated message; msg itself is left untouched even on failure.
func Validate(msg *dictionary.Message, log Logger) (*dictionary.Message, error) {
	return run(msg, RequestTables, false, log)
}

// ValidateSubscription runs the subscription-flavor engine, which relaxes
// DATE requirements and validates COMMANDLIST entries in addition to
// PRODUCTLIST.
func ValidateSubscription(msg *dictionary.Message, log Logger) (*dictionary.Message, error) {
	return run(msg, SubscriptionTables, true, log)
}

func run(msg *dictionary.Message, tables Tables, isSubscription bool, log Logger) (*dictionary.Message, error) {
	out := dictionary.CloneMessage(msg)

	// DESIGN.md decision 7: validate PRODUCTLIST and COMMANDLIST
	// independently whenever each is present, rather than only one or the
	// other.
	if len(out.ProductList) > 0 {
		for _, p := range out.ProductList {
			if err := validateProduct(p, tables, out, log); err != nil {
				return nil, err
			}
		}
	}
	if isSubscription && len(out.CommandList) > 0 {
		for _, c := range out.CommandList {
			if err := validateCommand(c, out, log); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func stripIgnored(p *dictionary.Product, tables Tables, msg *dictionary.Message, log Logger) {
	var ignored []string
	for _, name := range append([]string(nil), p.EnvOrder...) {
		if tables.Ignored[name] {
			ignored = append(ignored, name)
			p.Delete(name)
		}
	}
	if len(ignored) == 0 {
		return
	}
	advisory := fmt.Sprintf("Ignore the following National Event Bulletin Env variables : %s.",
		joinComma(ignored))
	msg.ErrorMessages = append(msg.ErrorMessages, advisory)
	if log != nil {
		log.Info(advisory)
	}
}

func joinComma(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += it
	}
	return out
}

func validateProduct(p *dictionary.Product, tables Tables, msg *dictionary.Message, log Logger) error {
	stripIgnored(p, tables, msg, log)

	required, ok := tables.Required[p.Type]
	if !ok {
		return semanticErr("unrecognized product type %s", p.Type)
	}
	wl := newWorklist(p.EnvOrder)
	productType := p.Type

	for _, name := range required {
		switch name {
		case productType:
			rule, ok := Rules[productType]
			if !ok {
				return semanticErr("no product rule registered for %s", productType)
			}
			if err := rule(productType, wl, p, msg); err != nil {
				return err
			}
		case "DATE":
			if p.Date == nil {
				return semanticErr("%s requires DATE", productType)
			}
			if err := validateDate(p); err != nil {
				return err
			}
		case "FREQUENCY":
			if p.Frequency == nil {
				return semanticErr("%s requires FREQ", productType)
			}
		default:
			if !wl.contains(name) {
				return semanticErr("%s is required by product %s", name, productType)
			}
			rule, ok := Rules[name]
			if !ok {
				return semanticErr("no rule registered for %s", name)
			}
			if err := rule(name, wl, p, msg); err != nil {
				return err
			}
		}
	}

	optional := tables.Optional[productType]
	for _, name := range append([]string(nil), wl.remaining()...) {
		if !optional[name] {
			return semanticErr("keyword %s is not supported by product %s", name, productType)
		}
		// A sibling rule invoked earlier in this same pass (e.g. MAG
		// claiming MAGTYPE alongside itself) may already have removed name
		// from the worklist; running its rule a second time under its own
		// name would find its claim already consumed. Skip it.
		if !wl.contains(name) {
			continue
		}
		rule, ok := Rules[name]
		if !ok {
			return semanticErr("no rule registered for %s", name)
		}
		if err := rule(name, wl, p, msg); err != nil {
			return err
		}
	}
	if len(wl.remaining()) > 0 {
		return semanticErr("keyword %s is not supported by product %s", wl.remaining()[0], productType)
	}
	return nil
}

func validateCommand(c *dictionary.Product, msg *dictionary.Message, log Logger) error {
	switch c.Command {
	case "UNSUBSCRIBE", "SUBSCR_PROD":
	default:
		return semanticErr("unrecognized subscription command %s", c.Command)
	}

	stripIgnored(c, Tables{Ignored: IgnoredEnvVars}, msg, log)
	wl := newWorklist(c.EnvOrder)

	for _, name := range wl.remaining() {
		if name == "PRODIDLIST" {
			return semanticErr("PRODID_LIST is not permitted on a subscription command")
		}
	}
	for _, name := range append([]string(nil), wl.remaining()...) {
		if !CommandOptional[name] {
			return semanticErr("keyword %s is not supported by command %s", name, c.Command)
		}
		rule, ok := Rules[name]
		if !ok {
			return semanticErr("no rule registered for %s", name)
		}
		if err := rule(name, wl, c, msg); err != nil {
			return err
		}
	}

	if c.Command == "UNSUBSCRIBE" {
		_, hasList := c.Env["SUBSCRLIST"]
		_, hasName := c.Env["SUBSCR_NAME"]
		if !hasList && !hasName {
			return semanticErr("UNSUBSCRIBE requires SUBSCR_LIST or SUBSCR_NAME")
		}
	}
	return nil
}
