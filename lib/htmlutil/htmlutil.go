package htmlutil

import (
	"bytes"

	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// TextFragments returns every text node under the given node in
// document order, one fragment per text node.
func TextFragments(node *html.Node) []string {
	var fragments []string
	collectTextFragments(node, &fragments)
	return fragments
}

func collectTextFragments(node *html.Node, out *[]string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		*out = append(*out, node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectTextFragments(child, out)
	}
}

// DirectTextFragments returns the text of the node's immediate text
// children, skipping text nested inside child elements.
func DirectTextFragments(node *html.Node) []string {
	if node == nil {
		return nil
	}
	var fragments []string
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			fragments = append(fragments, child.Data)
		}
	}
	return fragments
}

func GetAttr(node *html.Node, key string) string {
	if node == nil {
		return ""
	}
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
