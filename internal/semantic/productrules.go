package semantic

import (
	"strings"

	"github.com/ctbto-nms/ims2parser/internal/classify"
	"github.com/ctbto-nms/ims2parser/internal/dictionary"
)

// Product rules implement the per-product-family format matrix: they
// verify the format/subformat allowlists, apply a default only when the
// field was absent (every product rule shares checkFormat, so the
// RadionuclideProductRule behavior of DESIGN.md decision 5 holds for all
// of them), write the canonical
// classification, and finally clear TYPE.

func checkFormat(p *dictionary.Product, allowed []string, def string) error {
	if p.Format == "" {
		p.Format = def
		return nil
	}
	up := strings.ToUpper(p.Format)
	for _, a := range allowed {
		if a == up {
			p.Format = up
			return nil
		}
	}
	return semanticErr("%s format %q is not one of %v", p.Type, p.Format, allowed)
}

func checkSubFormat(p *dictionary.Product, allowed []string, def string) error {
	if p.SubFormat == "" {
		p.SubFormat = def
		return nil
	}
	up := strings.ToUpper(p.SubFormat)
	for _, a := range allowed {
		if a == up {
			p.SubFormat = up
			return nil
		}
	}
	return semanticErr("%s subformat %q is not one of %v", p.Type, p.SubFormat, allowed)
}

func classifyAndClearType(p *dictionary.Product, c dictionary.Classification) {
	p.Classification = c
	p.Type = ""
}

func waveformRule(_ string, _ *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	if err := checkFormat(p, []string{"IMS1.0", "IMS2.0", "GSE2.0"}, "IMS2.0"); err != nil {
		return err
	}
	if err := checkSubFormat(p, []string{"CM6", "CM7", "INT", "CSF"}, "CM6"); err != nil {
		return err
	}
	classifyAndClearType(p, dictionary.Classification{
		TechnologyFamily: "SHI", TechnologyType: "UNKNOWN",
		ProductFamily: "DATA", ProductType: "WAVEFORM",
	})
	return nil
}

func bulletinRule(_ string, _ *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	if err := checkFormat(p, []string{"IMS1.0", "IMS2.0", "GSE2.0"}, "IMS2.0"); err != nil {
		return err
	}
	if err := checkSubFormat(p, []string{"SHORT", "LONG"}, "SHORT"); err != nil {
		return err
	}
	bullType, _ := p.Env["BULLTYPE"].(string)
	p.Delete("BULLTYPE")
	classifyAndClearType(p, dictionary.Classification{
		TechnologyFamily: "SHI", TechnologyType: "UNKNOWN",
		ProductFamily: "BULLETIN", ProductType: bullType,
	})
	return nil
}

func filteredWaveformRule(_ string, _ *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	if err := checkFormat(p, []string{"IMS2.0", "GSE2.0"}, "IMS2.0"); err != nil {
		return err
	}
	if p.SubType != "" && (p.Type == "ARRIVAL" || p.Type == "SLSD") {
		if !classify.ArrivalSubtypes[strings.ToUpper(p.SubType)] {
			return semanticErr("%s subtype %q is not a recognized ARRIVALSUBTYPE", p.Type, p.SubType)
		}
		p.SubType = strings.ToUpper(p.SubType)
	}
	bullType, _ := p.Env["BULLTYPE"].(string)
	p.Delete("BULLTYPE")
	originalType := p.Type
	classifyAndClearType(p, dictionary.Classification{
		TechnologyFamily: "SHI", TechnologyType: "UNKNOWN",
		ProductFamily: "BULLETIN", ProductType: bullType,
		Filter: originalType, HasFilter: true,
	})
	return nil
}

func simpleWaveformProductRule(_ string, _ *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	if err := checkFormat(p, []string{"IMS1.0", "IMS2.0", "GSE2.0"}, "IMS2.0"); err != nil {
		return err
	}
	originalType := p.Type
	classifyAndClearType(p, dictionary.Classification{
		TechnologyFamily: "SHI", TechnologyType: "UNKNOWN",
		ProductFamily: "UNKNOWN", ProductType: originalType,
	})
	return nil
}

func radionuclideProductRule(_ string, _ *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	if err := checkFormat(p, []string{"RMS1.0", "RMS2.0", "GSE2.0"}, "RMS2.0"); err != nil {
		return err
	}
	family, ok := classify.RadFamily(p.Type)
	if !ok {
		family = "UNKNOWN"
	}
	originalType := p.Type
	classifyAndClearType(p, dictionary.Classification{
		TechnologyFamily: "RAD", TechnologyType: "UNKNOWN",
		ProductFamily: family, ProductType: originalType,
	})
	return nil
}

func testProductRule(_ string, _ *worklist, p *dictionary.Product, _ *dictionary.Message) error {
	if err := checkFormat(p, []string{"IMS1.0", "IMS2.0", "GSE2.0"}, "IMS2.0"); err != nil {
		return err
	}
	originalType := p.Type
	classifyAndClearType(p, dictionary.Classification{
		TechnologyFamily: "TEST", TechnologyType: "TEST",
		ProductFamily: "TEST", ProductType: originalType,
	})
	return nil
}
