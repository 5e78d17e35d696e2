// Package xkblayouts interprets the session's XKB layout configuration: the
// group list from the root window's _XKB_RULES_NAMES property and pretty
// names from the evdev.xml registry.
package xkblayouts

import (
	"fmt"
	"strings"
)

// Groups is the ordered list of layout groups configured on the session, as
// declared by _XKB_RULES_NAMES. Index 0 is the primary layout.
type Groups struct {
	Rules    string
	Model    string
	Layouts  []string
	Variants []string
}

// ParseRulesNames decodes the raw _XKB_RULES_NAMES property value: five
// nul-separated strings (rules, model, layouts, variants, options), with the
// layouts and variants comma-separated per group.
func ParseRulesNames(value []byte) (Groups, error) {
	fields := strings.Split(strings.TrimRight(string(value), "\x00"), "\x00")
	if len(fields) < 3 {
		return Groups{}, fmt.Errorf("malformed _XKB_RULES_NAMES: %d fields", len(fields))
	}

	g := Groups{
		Rules:   fields[0],
		Model:   fields[1],
		Layouts: strings.Split(fields[2], ","),
	}
	if len(fields) > 3 && fields[3] != "" {
		g.Variants = strings.Split(fields[3], ",")
	}
	// a missing or short variant list means "no variant" for those groups
	for len(g.Variants) < len(g.Layouts) {
		g.Variants = append(g.Variants, "")
	}

	if len(g.Layouts) == 0 || g.Layouts[0] == "" {
		return Groups{}, fmt.Errorf("no layouts in _XKB_RULES_NAMES")
	}

	return g, nil
}

// Count is the number of configured groups.
func (g Groups) Count() int {
	return len(g.Layouts)
}

// Group returns the layout and variant codes at idx.
func (g Groups) Group(idx int) (layout, variant string, err error) {
	if idx < 0 || idx >= len(g.Layouts) {
		return "", "", fmt.Errorf("layout group %d does not exist, %d groups configured", idx, len(g.Layouts))
	}
	return g.Layouts[idx], g.Variants[idx], nil
}

// Describe renders the group at idx for humans, using the registry for
// pretty names when it has one.
func (g Groups) Describe(idx int, registry *Registry) string {
	layout, variant, err := g.Group(idx)
	if err != nil {
		return fmt.Sprintf("group %d", idx)
	}

	if registry != nil {
		if pretty := registry.Description(layout, variant); pretty != "" {
			return pretty
		}
	}
	if variant == "" {
		return layout
	}
	return fmt.Sprintf("%s(%s)", layout, variant)
}

func (g Groups) String() string {
	parts := make([]string, len(g.Layouts))
	for i, layout := range g.Layouts {
		parts[i] = layout
		if g.Variants[i] != "" {
			parts[i] = fmt.Sprintf("%s(%s)", layout, g.Variants[i])
		}
	}
	return strings.Join(parts, ", ")
}
