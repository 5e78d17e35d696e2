package xkblayouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rulesNames(fields ...string) []byte {
	out := []byte{}
	for _, f := range fields {
		out = append(out, f...)
		out = append(out, 0)
	}
	return out
}

func TestParseRulesNames(t *testing.T) {
	value := rulesNames("evdev", "pc105", "dvorak,us,de", ",,koy", "")

	groups, err := ParseRulesNames(value)
	require.NoError(t, err)

	assert.Equal(t, "evdev", groups.Rules)
	assert.Equal(t, "pc105", groups.Model)
	assert.Equal(t, []string{"dvorak", "us", "de"}, groups.Layouts)
	assert.Equal(t, []string{"", "", "koy"}, groups.Variants)
	assert.Equal(t, 3, groups.Count())
}

func TestParseRulesNamesSingleLayoutNoVariants(t *testing.T) {
	groups, err := ParseRulesNames(rulesNames("evdev", "pc105", "us"))
	require.NoError(t, err)

	assert.Equal(t, []string{"us"}, groups.Layouts)
	assert.Equal(t, []string{""}, groups.Variants)
}

func TestParseRulesNamesMalformed(t *testing.T) {
	_, err := ParseRulesNames([]byte("evdev\x00pc105"))
	assert.Error(t, err)

	_, err = ParseRulesNames(rulesNames("evdev", "pc105", ""))
	assert.Error(t, err)
}

func TestGroupBounds(t *testing.T) {
	groups, err := ParseRulesNames(rulesNames("evdev", "pc105", "dvorak,us,de", ",,koy"))
	require.NoError(t, err)

	layout, variant, err := groups.Group(1)
	require.NoError(t, err)
	assert.Equal(t, "us", layout)
	assert.Equal(t, "", variant)

	layout, variant, err = groups.Group(2)
	require.NoError(t, err)
	assert.Equal(t, "de", layout)
	assert.Equal(t, "koy", variant)

	_, _, err = groups.Group(3)
	assert.Error(t, err, "index past the configured groups is a configuration error")

	_, _, err = groups.Group(-1)
	assert.Error(t, err)
}

func TestGroupsString(t *testing.T) {
	groups, err := ParseRulesNames(rulesNames("evdev", "pc105", "dvorak,us,de", ",,koy"))
	require.NoError(t, err)

	assert.Equal(t, "dvorak, us, de(koy)", groups.String())
}

func TestDescribe(t *testing.T) {
	groups, err := ParseRulesNames(rulesNames("evdev", "pc105", "dvorak,us,de", ",,koy"))
	require.NoError(t, err)

	// without a registry the raw codes are used
	assert.Equal(t, "us", groups.Describe(1, nil))
	assert.Equal(t, "de(koy)", groups.Describe(2, nil))
	assert.Equal(t, "group 9", groups.Describe(9, nil))
}
