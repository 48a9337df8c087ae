package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Ignored title</title><style>body { color: red }</style></head>
<body>
<script>var hidden = "never counted";</script>
<h1>Heading</h1><p>First paragraph with <b>bold</b> text.</p><p>Second</p>
<ul><li>one</li><li>two</li></ul>
</body>
</html>`

func TestExtractText(t *testing.T) {
	p := &Parser{}

	text, err := p.ExtractText([]byte(page), "file:///tmp/page.html")
	require.NoError(t, err)

	fields := strings.Fields(string(text))
	assert.Contains(t, fields, "bold")
	assert.Contains(t, fields, "Second")
	assert.Contains(t, fields, "one")
	assert.Contains(t, fields, "two")
	assert.NotContains(t, string(text), "never counted")
	assert.NotContains(t, string(text), "color")
	assert.NotContains(t, fields, "Headingfirst")
}

func TestVisibleText_BlockBoundaries(t *testing.T) {
	text, err := visibleText(strings.NewReader(`<div>alpha</div><div>beta</div><p>gam<i>ma</i></p>`))
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, strings.Fields(string(text)))
}

func TestVisibleText_NestedBlocks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []string
	}{
		{"text before nested block", `<div>alpha<div>beta</div>gamma</div>`, []string{"alpha", "beta", "gamma"}},
		{"list between section text", `<section>intro<ul><li>one</li><li>two</li></ul>outro</section>`, []string{"intro", "one", "two", "outro"}},
		{"line break", `first<br>second`, []string{"first", "second"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := visibleText(strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.Fields(string(text)))
		})
	}
}

func TestExtractText_BadURL(t *testing.T) {
	p := &Parser{}
	_, err := p.ExtractText([]byte(page), "://nope")
	assert.Error(t, err)
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("index.HTML", ""))
	assert.True(t, IsHTML("page.htm", ""))
	assert.True(t, IsHTML("https://example.com/", "text/html; charset=utf-8"))
	assert.False(t, IsHTML("notes.txt", ""))
	assert.False(t, IsHTML("page.html", "text/plain"))
}
