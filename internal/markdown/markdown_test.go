package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_Basic(t *testing.T) {
	out, err := New(Options{}).Render("Manage **orders**.")
	require.NoError(t, err)
	require.Equal(t, "<p>Manage <strong>orders</strong>.</p>\n", string(out))
}

func TestRender_EmptyInput(t *testing.T) {
	out, err := New(Options{}).Render("  \n")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestRender_OmitsRawHTML(t *testing.T) {
	out, err := New(Options{}).Render("<script>alert(1)</script>\n\nok")
	require.NoError(t, err)
	require.NotContains(t, string(out), "<script>")
	require.Contains(t, string(out), "<p>ok</p>")
}

func TestRender_DropsJavascriptLinks(t *testing.T) {
	out, err := New(Options{}).Render("[x](javascript:alert(1))")
	require.NoError(t, err)
	require.NotContains(t, string(out), "javascript:")
}

func TestRender_GFMTable(t *testing.T) {
	out, err := New(Options{}).Render("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	require.Contains(t, string(out), "<table>")
}

func TestRender_HardWraps(t *testing.T) {
	out, err := New(Options{HardWraps: true}).Render("line one\nline two")
	require.NoError(t, err)
	require.True(t, strings.Contains(string(out), "<br>"), string(out))
}

func TestSummary(t *testing.T) {
	r := New(Options{})
	require.Equal(t, "Manage orders and their lifecycle.", r.Summary("Manage **orders** and\ntheir `lifecycle`.\n\nSecond paragraph."))
	require.Equal(t, "Orders", r.Summary("# Orders\n\nbody"))
	require.Equal(t, "", r.Summary(""))
}
