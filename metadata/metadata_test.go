package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsTree() *Section {
	root := NewSection("FICurve_1")
	info := NewSection("RePro-Info")
	info.AddProperty(NewString("RePro", "FICurve"))
	settings := NewSection("settings")
	settings.AddProperty(NewNumeric("pause", "s", 0.5))
	settings.AddProperty(NewNumeric("contrasts", "%", 5, 10, 20))
	settings.AddProperty(NewString("waveform", "sine"))
	info.AddSection(settings)
	root.AddSection(info)
	root.AddProperty(NewNumeric("duration", "s", 0.4))
	return root
}

func TestSectionPathLookup(t *testing.T) {
	root := settingsTree()

	sec, err := root.Section("RePro-Info/settings")
	require.NoError(t, err)
	assert.Equal(t, "settings", sec.Name())

	p, err := root.Property("RePro-Info/settings/pause")
	require.NoError(t, err)
	v, err := p.Float()
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
	assert.Equal(t, "s", p.Unit())

	p, err = root.Property("duration")
	require.NoError(t, err)
	v, err = p.Float()
	require.NoError(t, err)
	assert.Equal(t, 0.4, v)
}

func TestSectionPathErrors(t *testing.T) {
	root := settingsTree()

	_, err := root.Section("RePro-Info/nope")
	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "RePro-Info/nope", pathErr.Path)

	_, err = root.Property("RePro-Info/settings/nope")
	require.ErrorAs(t, err, &pathErr)

	// A missing intermediate section reports the failing prefix.
	_, err = root.Property("nope/settings/pause")
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "nope", pathErr.Path)
}

func TestSectionHas(t *testing.T) {
	root := settingsTree()

	assert.True(t, root.Has("RePro-Info"))
	assert.True(t, root.Has("RePro-Info/settings/pause"))
	assert.True(t, root.Has("duration"))
	assert.False(t, root.Has("RePro-Info/missing"))
}

func TestPropertyTypeErrors(t *testing.T) {
	root := settingsTree()

	p, err := root.Property("RePro-Info/settings/waveform")
	require.NoError(t, err)
	_, err = p.Float()
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "string", typeErr.Stored)

	s, err := p.String()
	require.NoError(t, err)
	assert.Equal(t, "sine", s)

	p, err = root.Property("duration")
	require.NoError(t, err)
	_, err = p.Strings()
	require.ErrorAs(t, err, &typeErr)
}

func TestFlatten(t *testing.T) {
	root := settingsTree()

	flat := root.Flatten()
	require.Len(t, flat, 5)
	assert.Contains(t, flat, "duration")
	assert.Contains(t, flat, "RePro-Info/RePro")
	assert.Contains(t, flat, "RePro-Info/settings/pause")
	assert.Contains(t, flat, "RePro-Info/settings/contrasts")
	assert.Contains(t, flat, "RePro-Info/settings/waveform")

	vals, err := flat["RePro-Info/settings/contrasts"].Floats()
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 10, 20}, vals)
}

func TestFlattenIdempotent(t *testing.T) {
	root := settingsTree()
	first := root.Flatten()
	second := root.Flatten()
	require.Len(t, second, len(first))
	for path, p := range first {
		assert.Equal(t, p.Value(), second[path].Value(), path)
	}
}

func TestFindAndClone(t *testing.T) {
	root := settingsTree()

	p, ok := root.Find("pause")
	require.True(t, ok)
	v, err := p.Float()
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	owner, ok := root.FindOwner("waveform")
	require.True(t, ok)
	assert.Equal(t, "settings", owner.Name())

	_, ok = root.Find("missing")
	assert.False(t, ok)

	clone := root.Clone()
	clone.AddProperty(NewNumeric("extra", "", 1))
	assert.False(t, root.Has("extra"))
	sub, err := clone.Section("RePro-Info/settings")
	require.NoError(t, err)
	sub.AddProperty(NewNumeric("pause", "s", 9.9))
	orig, _ := root.Property("RePro-Info/settings/pause")
	v, _ = orig.Float()
	assert.Equal(t, 0.5, v)
}

func TestDecode(t *testing.T) {
	root := settingsTree()

	var cfg struct {
		Duration  float64 `mapstructure:"duration"`
		ReProInfo struct {
			RePro    string `mapstructure:"RePro"`
			Settings struct {
				Pause     float64   `mapstructure:"pause"`
				Contrasts []float64 `mapstructure:"contrasts"`
				Waveform  string    `mapstructure:"waveform"`
			} `mapstructure:"settings"`
		} `mapstructure:"RePro-Info"`
	}
	require.NoError(t, Decode(root, &cfg))
	assert.Equal(t, 0.4, cfg.Duration)
	assert.Equal(t, "FICurve", cfg.ReProInfo.RePro)
	assert.Equal(t, 0.5, cfg.ReProInfo.Settings.Pause)
	assert.Equal(t, []float64{5, 10, 20}, cfg.ReProInfo.Settings.Contrasts)
	assert.Equal(t, "sine", cfg.ReProInfo.Settings.Waveform)
}

func TestAddReplacesInPlace(t *testing.T) {
	sec := NewSection("s")
	sec.AddProperty(NewNumeric("a", "", 1))
	sec.AddProperty(NewNumeric("b", "", 2))
	sec.AddProperty(NewNumeric("a", "", 3))

	props := sec.Properties()
	require.Len(t, props, 2)
	assert.Equal(t, "a", props[0].Name())
	v, err := props[0].Float()
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestPathErrorKind(t *testing.T) {
	root := settingsTree()
	_, err := root.Property("nope")
	var typeErr *TypeError
	assert.False(t, errors.As(err, &typeErr))
}
