package linkverify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinksFromReader(t *testing.T) {
	const page = `<!DOCTYPE html><html><head>
<link rel="stylesheet" href="../assets/catalog.css">
<script type="module" src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs"></script>
</head><body>
<a href="orders/api.html">Orders <b>API</b></a>
<a href="#top">Top</a>
<a href="mailto:team@example.com">Mail</a>
<img src="logo.png" alt="Logo">
<a>no href</a>
</body></html>`

	links, err := ExtractLinksFromReader(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, links, 6)

	assert.Equal(t, "link", links[0].Tag)
	assert.Equal(t, "stylesheet", links[0].Text)
	assert.True(t, links[0].IsInternal)

	assert.Equal(t, "script", links[1].Tag)
	assert.False(t, links[1].IsInternal)

	assert.Equal(t, "OrdersAPI", links[2].Text)
	assert.True(t, links[2].IsInternal)

	assert.False(t, links[3].IsInternal, "fragments are not files")
	assert.False(t, links[4].IsInternal)

	assert.Equal(t, "img", links[5].Tag)
	assert.Equal(t, "Logo", links[5].Text)
}

func TestShouldVerifyLink(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"api.html", true},
		{"../index.html#section", true},
		{"/assets/catalog.css", true},
		{"#only-fragment", false},
		{"?q=1", false},
		{"https://example.com/x.html", false},
		{"//cdn.example.com/lib.js", false},
		{"javascript:void(0)", false},
		{"data:image/png;base64,AAAA", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			link := &Link{URL: tt.url, IsInternal: isInternalLink(tt.url)}
			assert.Equal(t, tt.want, ShouldVerifyLink(link))
		})
	}
}
