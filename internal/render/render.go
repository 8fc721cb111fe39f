// Package render turns a validated message dictionary back into
// human-readable text or XML, for logs and for downstream delivery.
package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-xmlfmt/xmlfmt"

	"github.com/ctbto-nms/ims2parser/internal/dictionary"
)

// Text renders a validated message's PRODUCTLIST as the canonical
// pretty-printed block format: one section per product, a "Product
// Classification" block followed by a "Product Constraints" block, dates
// printed as {START: ..., END: ...}.
func Text(msg *dictionary.Message) string {
	var buf bytes.Buffer
	for i, p := range msg.ProductList {
		if i > 0 {
			buf.WriteString("\n")
		}
		writeProductText(&buf, p)
	}
	for i, c := range msg.CommandList {
		if i > 0 || len(msg.ProductList) > 0 {
			buf.WriteString("\n")
		}
		writeCommandText(&buf, c)
	}
	for _, adv := range msg.ErrorMessages {
		fmt.Fprintf(&buf, "\nAdvisory: %s\n", adv)
	}
	return buf.String()
}

func writeProductText(buf *bytes.Buffer, p *dictionary.Product) {
	fmt.Fprintf(buf, "Product Classification\n")
	fmt.Fprintf(buf, "  TECHNOLOGYFAMILY: %s\n", p.Classification.TechnologyFamily)
	fmt.Fprintf(buf, "  TECHNOLOGYTYPE:   %s\n", p.Classification.TechnologyType)
	fmt.Fprintf(buf, "  PRODUCTFAMILY:    %s\n", p.Classification.ProductFamily)
	fmt.Fprintf(buf, "  PRODUCTTYPE:      %s\n", p.Classification.ProductType)
	if p.Classification.HasFilter {
		fmt.Fprintf(buf, "  FILTER:           %s\n", p.Classification.Filter)
	}

	fmt.Fprintf(buf, "Product Constraints\n")
	if p.Format != "" {
		fmt.Fprintf(buf, "  FORMAT: %s\n", p.Format)
	}
	if p.SubFormat != "" {
		fmt.Fprintf(buf, "  SUBFORMAT: %s\n", p.SubFormat)
	}
	if p.SubType != "" {
		fmt.Fprintf(buf, "  SUBTYPE: %s\n", p.SubType)
	}
	if p.Date != nil {
		fmt.Fprintf(buf, "  DATE: {START: %s, END: %s}\n", formatEndpoint(p.Date.Start), formatEndpoint(p.Date.End))
	}
	if p.Loc != nil {
		writeLocText(buf, p.Loc)
	}
	if p.Frequency != nil {
		if p.Frequency.Policy == "CUSTOM" {
			fmt.Fprintf(buf, "  FREQ: {POLICY: CUSTOM, VALUE: %s}\n", p.Frequency.Value)
		} else {
			fmt.Fprintf(buf, "  FREQ: {POLICY: %s}\n", p.Frequency.Policy)
		}
	}
	for _, k := range sortedKeys(p.Env) {
		fmt.Fprintf(buf, "  %s: %s\n", k, formatEnvValue(p.Env[k]))
	}
}

func writeCommandText(buf *bytes.Buffer, c *dictionary.Product) {
	fmt.Fprintf(buf, "Command: %s\n", c.Command)
	for _, k := range sortedKeys(c.Env) {
		fmt.Fprintf(buf, "  %s: %s\n", k, formatEnvValue(c.Env[k]))
	}
}

func writeLocText(buf *bytes.Buffer, loc *dictionary.Location) {
	switch loc.Type {
	case "GEO":
		fmt.Fprintf(buf, "  LOC: {TYPE: GEO, LAT: {START: %v, END: %v}, LON: {START: %v, END: %v}}\n",
			loc.Lat.Start, loc.Lat.End, loc.Lon.Start, loc.Lon.End)
	case "STALIST":
		fmt.Fprintf(buf, "  LOC: {TYPE: STALIST, STATIONS: [%s]}\n", strings.Join(loc.Stations, ", "))
	}
}

func formatEndpoint(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format("2006-01-02 15:04:05.000")
	}
	return fmt.Sprintf("%v", v)
}

func formatEnvValue(v any) string {
	switch t := v.(type) {
	case []string:
		return "[" + strings.Join(t, ", ") + "]"
	case []int:
		parts := make([]string, len(t))
		for i, n := range t {
			parts[i] = fmt.Sprintf("%d", n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *dictionary.Range:
		return fmt.Sprintf("{START: %v, END: %v}", t.Start, t.End)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- XML export ----------------------------------------------------------

type xmlMessage struct {
	XMLName  xml.Name     `xml:"message"`
	MsgID    string       `xml:"msgId,attr"`
	Products []xmlProduct `xml:"product"`
	Commands []xmlCommand `xml:"command"`
}

type xmlProduct struct {
	TechnologyFamily string       `xml:"technologyFamily,attr"`
	TechnologyType   string       `xml:"technologyType,attr"`
	ProductFamily    string       `xml:"productFamily,attr"`
	ProductType      string       `xml:"productType,attr"`
	Filter           string       `xml:"filter,attr,omitempty"`
	Format           string       `xml:"format,omitempty"`
	SubFormat        string       `xml:"subformat,omitempty"`
	Date             *xmlDateSpan `xml:"date,omitempty"`
}

type xmlDateSpan struct {
	Start string `xml:"start,attr"`
	End   string `xml:"end,attr"`
}

type xmlCommand struct {
	Name string `xml:"name,attr"`
}

// XML renders a validated message as indented XML, using xmlfmt to apply
// the same indentation style as the rest of the archive's alerting output.
func XML(msg *dictionary.Message) string {
	out := xmlMessage{MsgID: msg.MsgInfo.ID}
	for _, p := range msg.ProductList {
		xp := xmlProduct{
			TechnologyFamily: p.Classification.TechnologyFamily,
			TechnologyType:   p.Classification.TechnologyType,
			ProductFamily:    p.Classification.ProductFamily,
			ProductType:      p.Classification.ProductType,
			Format:           p.Format,
			SubFormat:        p.SubFormat,
		}
		if p.Classification.HasFilter {
			xp.Filter = p.Classification.Filter
		}
		if p.Date != nil {
			xp.Date = &xmlDateSpan{Start: formatEndpoint(p.Date.Start), End: formatEndpoint(p.Date.End)}
		}
		out.Products = append(out.Products, xp)
	}
	for _, c := range msg.CommandList {
		out.Commands = append(out.Commands, xmlCommand{Name: c.Command})
	}

	raw, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Sprintf("<!-- xml render error: %v -->", err)
	}
	return xmlfmt.FormatXML(string(raw), "", "  ")
}
