package xkblayouts

import (
	"encoding/xml"
	"fmt"
	"os"
)

// Registry is the parsed xkeyboard-config registry (evdev.xml), used to map
// layout/variant codes to their human-readable descriptions.
type Registry struct {
	XMLName    xml.Name   `xml:"xkbConfigRegistry"`
	LayoutList layoutList `xml:"layoutList"`
}

type configItem struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

type variant struct {
	ConfigItem configItem `xml:"configItem"`
}

type layout struct {
	ConfigItem configItem `xml:"configItem"`
	Variants   []variant  `xml:"variantList>variant"`
}

type layoutList struct {
	Layout []layout `xml:"layout"`
}

// ParseRegistry reads the layout registry, normally
// /usr/share/X11/xkb/rules/evdev.xml.
func ParseRegistry(path string) (*Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	registry := &Registry{}
	if err := xml.NewDecoder(file).Decode(registry); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	return registry, nil
}

// Description returns the pretty name for a layout/variant pair, or "" when
// the registry does not know it.
func (r *Registry) Description(layoutCode, variantCode string) string {
	for _, l := range r.LayoutList.Layout {
		if l.ConfigItem.Name != layoutCode {
			continue
		}
		if variantCode == "" {
			return l.ConfigItem.Description
		}
		for _, v := range l.Variants {
			if v.ConfigItem.Name == variantCode {
				return v.ConfigItem.Description
			}
		}
		return ""
	}
	return ""
}
