package negotiate

import (
	"fmt"
	"strings"
)

// Capability is a set of optional codec transforms. A codec built without
// some of them reports a smaller set.
type Capability uint16

const (
	Strip16 Capability = 1 << iota
	StripAlpha
	Filler
	TRNSToAlpha
	PaletteExpand
	GrayToRGB
	RGBToGray
	GrayExpand
	Packing
	Expand16

	AllCapabilities = Strip16 | StripAlpha | Filler | TRNSToAlpha | PaletteExpand |
		GrayToRGB | RGBToGray | GrayExpand | Packing | Expand16
)

var capabilityNames = []struct {
	c    Capability
	name string
}{
	{Strip16, "strip16"},
	{StripAlpha, "strip-alpha"},
	{Filler, "filler"},
	{TRNSToAlpha, "trns-to-alpha"},
	{PaletteExpand, "palette-expand"},
	{GrayToRGB, "gray-to-rgb"},
	{RGBToGray, "rgb-to-gray"},
	{GrayExpand, "gray-expand"},
	{Packing, "packing"},
	{Expand16, "expand16"},
}

// Has reports whether every capability in c2 is present in c.
func (c Capability) Has(c2 Capability) bool { return c&c2 == c2 }

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, n := range capabilityNames {
		if c.Has(n.c) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// ParseCapabilities parses a comma separated list of capability names.
// The empty string is the empty set.
func ParseCapabilities(s string) (Capability, error) {
	var c Capability
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		found := false
		for _, n := range capabilityNames {
			if n.name == part {
				c |= n.c
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("negotiate: unknown capability %q", part)
		}
	}
	return c, nil
}

// CapabilityNames lists every known capability name.
func CapabilityNames() []string {
	out := make([]string, len(capabilityNames))
	for i, n := range capabilityNames {
		out[i] = n.name
	}
	return out
}
