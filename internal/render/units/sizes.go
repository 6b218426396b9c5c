package units

import "strings"

type Named struct {
	Name string
	Size Size
}

const (
	DefaultPage  = "A4-landscape"
	DefaultLabel = "4x6"
)

// page sizes in PDF points
var pages = []Named{
	{Name: "A4-landscape", Size: Size{W: 841.89, H: 595.28}},
	{Name: "A4-portrait", Size: Size{W: 595.28, H: 841.89}},
	{Name: "Letter-landscape", Size: Size{W: 792, H: 612}},
	{Name: "Letter-portrait", Size: Size{W: 612, H: 792}},
	{Name: "A3-landscape", Size: Size{W: 1190.55, H: 841.89}},
	{Name: "A3-portrait", Size: Size{W: 841.89, H: 1190.55}},
}

// label sizes in dots at 203 dpi
var labels = []Named{
	{Name: "4x2", Size: Size{W: 812, H: 406}},
	{Name: "4x3", Size: Size{W: 812, H: 609}},
	{Name: "4x6", Size: Size{W: 812, H: 1218}},
	{Name: "a6", Size: Size{W: 839, H: 1183}},
	{Name: "a5", Size: Size{W: 1183, H: 1678}},
}

func lookup(table []Named, name, fallback string) (Named, bool) {
	name = strings.TrimSpace(name)
	for _, n := range table {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	for _, n := range table {
		if n.Name == fallback {
			return n, false
		}
	}
	return table[0], false
}

// Page resolves a document size name. Unknown names fall back to A4 landscape;
// the boolean reports whether the name was recognised.
func Page(name string) (Named, bool) {
	return lookup(pages, name, DefaultPage)
}

// Label resolves a label size name. Unknown names fall back to 4x6.
func Label(name string) (Named, bool) {
	return lookup(labels, name, DefaultLabel)
}

func PageNames() []string {
	return names(pages)
}

func LabelNames() []string {
	return names(labels)
}

func names(table []Named) []string {
	out := make([]string, 0, len(table))
	for _, n := range table {
		out = append(out, n.Name)
	}
	return out
}
