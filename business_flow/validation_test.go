package businessflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScreen(t *testing.T) {
	tests := []struct {
		screen string
		want   bool
	}{
		{"1920x1080", true},
		{"375x667", true},
		{"99999x99999", true},
		{"100x100", true},
		{"12x1080", false},
		{"123456x1080", false},
		{"1920X1080", false},
		{"1920x1080x2", false},
		{"1920x", false},
		{"abcxdef", false},
		{" 1920x1080", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.screen), func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateScreen(tt.screen))
		})
	}
}

func linkList(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{"url": fmt.Sprintf("https://example.com/%d", i), "text": "x"})
	}
	return out
}

func TestValidateLinks(t *testing.T) {
	doubleEncoded, err := json.Marshal(`[{"url":"https://a.test/","text":"A"}]`)
	require.NoError(t, err)

	tests := []struct {
		name  string
		links any
		want  bool
	}{
		{name: "empty json array", links: "[]", want: true},
		{name: "empty native slice", links: []any{}, want: true},
		{name: "json string", links: `[{"url":"https://a.test/","text":"A"}]`, want: true},
		{name: "double encoded string", links: string(doubleEncoded), want: true},
		{name: "raw message", links: json.RawMessage(`[{"url":"http://b.test/x"}]`), want: true},
		{name: "native maps", links: linkList(3), want: true},
		{name: "typed entries", links: []models.LinkEntry{{URL: "https://c.test"}}, want: true},
		{name: "exactly the maximum", links: linkList(100), want: true},
		{name: "over the maximum", links: linkList(101), want: false},
		{name: "missing", links: nil, want: false},
		{name: "not json", links: "not json", want: false},
		{name: "json object", links: `{"url":"https://a.test/"}`, want: false},
		{name: "json null", links: "null", want: false},
		{name: "missing url", links: `[{"text":"no url"}]`, want: false},
		{name: "relative url", links: `[{"url":"/about"}]`, want: false},
		{name: "scheme without host", links: `[{"url":"http://"}]`, want: false},
		{name: "numeric url", links: `[{"url":42}]`, want: false},
		{name: "non-object element", links: `["https://a.test/"]`, want: false},
		{name: "one bad among good", links: `[{"url":"https://a.test/"},{"url":"nope"}]`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateLinks(tt.links, 100))
		})
	}
}

func TestValidateLinks_CustomMaximum(t *testing.T) {
	assert.True(t, ValidateLinks(linkList(2), 2))
	assert.False(t, ValidateLinks(linkList(3), 2))
}

func TestDecodeLinks(t *testing.T) {
	t.Run("keeps order and coerces text", func(t *testing.T) {
		links, err := DecodeLinks(`[{"url":"https://b.test/","text":42},{"url":"https://a.test/","text":null}]`)
		require.NoError(t, err)
		assert.Equal(t, []models.LinkEntry{
			{URL: "https://b.test/", Text: "42"},
			{URL: "https://a.test/", Text: ""},
		}, links)
	})

	t.Run("copies typed input", func(t *testing.T) {
		in := []models.LinkEntry{{URL: "https://a.test/", Text: "A"}}
		links, err := DecodeLinks(in)
		require.NoError(t, err)
		links[0].Text = "changed"
		assert.Equal(t, "A", in[0].Text)
	})

	t.Run("invalid input wraps sentinel", func(t *testing.T) {
		_, err := DecodeLinks("{}")
		assert.True(t, IsInvalidLinks(err))
	})
}

func TestSanitizeLinks(t *testing.T) {
	long := strings.Repeat("a", 300)

	in := []models.LinkEntry{
		{URL: "https://example.com/path?q=1", Text: "  <b>Bold</b>\n\tlink  "},
		{URL: "javascript:alert(1)", Text: "xss"},
		{URL: "ftp://files.example.com/a", Text: "ftp"},
		{URL: "HTTP://example.com/", Text: long},
		{URL: "  https://example.com/trim  ", Text: "bad\x00byte"},
	}
	out := SanitizeLinks(in)
	require.Len(t, out, len(in))

	assert.Equal(t, "https://example.com/path?q=1", out[0].URL)
	assert.Equal(t, "Bold link", out[0].Text)
	assert.Equal(t, "", out[1].URL)
	assert.Equal(t, "xss", out[1].Text)
	assert.Equal(t, "", out[2].URL)
	assert.Equal(t, "http://example.com/", out[3].URL)
	assert.Len(t, []rune(out[3].Text), 200)
	assert.Equal(t, "https://example.com/trim", out[4].URL)
	assert.Equal(t, "bad byte", out[4].Text)

	// input untouched
	assert.Equal(t, "javascript:alert(1)", in[1].URL)
}

func TestSanitizeLinks_Empty(t *testing.T) {
	out := SanitizeLinks(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSanitizeText_MultiByte(t *testing.T) {
	s := strings.Repeat("é", 250)
	assert.Equal(t, strings.Repeat("é", 200), SanitizeText(s, 200))
}

func TestSanitizeText_Markup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ScriptBodyDropped", "<script>alert(1)</script>Buy now", "Buy now"},
		{"StyleBodyDropped", "<style>.x{}</style>Docs", "Docs"},
		{"BareAngleBracketsKept", "1 < 2 and 3 > 2", "1 < 2 and 3 > 2"},
		{"NestedTags", "<a href=\"/x\"><span>Read</span> <em>more</em></a>", "Read more"},
		{"CommentDropped", "Sale<!-- promo --> ends", "Sale ends"},
		{"EntitiesDecoded", "Tom &amp; Jerry", "Tom & Jerry"},
		{"UnclosedScript", "Home<script>track()", "Home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.in, utils.MaxLinkTextLength))
		})
	}
}
