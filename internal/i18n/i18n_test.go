package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedLocales(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Order not found", T("en", KeyOrderNotFound))
	assert.Equal(t, "找不到訂單", T("zh_TW", KeyOrderNotFound))
	assert.Equal(t, "name is required", T("en", KeyValidationRequired, "name"))
	assert.Equal(t, []string{"en", "zh_TW"}, SupportedLanguages())
}

func TestFallbacks(t *testing.T) {
	c := NewCatalog("en")
	require.NoError(t, c.Load(fstest.MapFS{
		"l/en.json":   {Data: []byte(`{"greeting":"hello"}`)},
		"l/fr.json":   {Data: []byte(`{}`)},
		"l/notes.txt": {Data: []byte(`ignored`)},
	}, "l"))

	assert.Equal(t, []string{"en", "fr"}, c.Languages())
	assert.Equal(t, "hello", c.T("fr", "greeting"))
	assert.Equal(t, "hello", c.T("de", "greeting"))
	assert.Equal(t, "missing.key", c.T("en", "missing.key"))
}

func TestLoadRejectsBadJSON(t *testing.T) {
	c := NewCatalog("en")
	err := c.Load(fstest.MapFS{
		"l/en.json": {Data: []byte(`{"a":"b"}`)},
		"l/fr.json": {Data: []byte(`{`)},
	}, "l")

	assert.Error(t, err)
	assert.Empty(t, c.Languages())
}

func TestNegotiate(t *testing.T) {
	c := NewCatalog("en")
	require.NoError(t, c.Load(fstest.MapFS{
		"l/en.json":    {Data: []byte(`{}`)},
		"l/zh_TW.json": {Data: []byte(`{}`)},
	}, "l"))

	for header, want := range map[string]string{
		"zh-TW,zh;q=0.9,en;q=0.8": "zh_TW",
		"zh-HK":                   "zh_TW",
		"en-US":                   "en",
		"de;q=1,en;q=0.2":         "en",
		"de,fr":                   "",
		"zh;q=0,en;q=0.1":         "en",
		"":                        "",
	} {
		got, ok := c.Negotiate(header)
		assert.Equal(t, want, got, header)
		assert.Equal(t, want != "", ok, header)
	}
}
