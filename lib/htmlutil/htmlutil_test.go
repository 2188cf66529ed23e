package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func selectNode(t testing.TB, doc, selector string) *html.Node {
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	sel := parsed.Find(selector)
	require.Greater(t, sel.Length(), 0)
	return sel.Nodes[0]
}

func TestGetText(t *testing.T) {
	node := selectNode(t, `<div id="x">hello <b>bold</b> world</div>`, "#x")
	require.Equal(t, "hello bold world", GetText(node))
}

func TestTextFragments(t *testing.T) {
	node := selectNode(t, `<a id="x">10:00-11:00<span>Room A</span>3 left</a>`, "#x")
	require.Equal(t, []string{"10:00-11:00", "Room A", "3 left"}, TextFragments(node))
}

func TestDirectTextFragments(t *testing.T) {
	node := selectNode(t, `<a id="x">10:00-11:00<span>Room A</span>3 left</a>`, "#x")
	require.Equal(t, []string{"10:00-11:00", "3 left"}, DirectTextFragments(node))

	node = selectNode(t, `<a id="y"><span>only nested</span></a>`, "#y")
	require.Empty(t, DirectTextFragments(node))
}

func TestGetAttr(t *testing.T) {
	node := selectNode(t, `<a id="x" href="/reserve/detail.php?id=3">link</a>`, "#x")
	require.Equal(t, "/reserve/detail.php?id=3", GetAttr(node, "href"))
	require.Equal(t, "", GetAttr(node, "missing"))
	require.Equal(t, "", GetAttr(nil, "href"))
}
