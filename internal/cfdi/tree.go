package cfdi

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html/charset"
)

// node is a namespace-preserving view of one XML element. Tags use the
// "{namespace}Local" form; attribute keys are already normalized.
type node struct {
	tag      string
	attrs    map[string]string
	children []*node
}

// name returns the element's local name.
func (n *node) name() string {
	return NormalizeTag(n.tag)
}

// attr returns the named attribute or def when the attribute is absent.
func (n *node) attr(name, def string) string {
	if v, ok := n.attrs[name]; ok {
		return v
	}
	return def
}

// lookup reports the named attribute and whether it was present.
func (n *node) lookup(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// decodeTree reads a whole XML document into a node tree.
func decodeTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *node
		stack []*node
		// namespace URIs declared by each open element
		scopes [][]string
	)

	inScope := func(space string) bool {
		if space == "" || space == xmlNamespace {
			return true
		}
		for _, uris := range scopes {
			if slices.Contains(uris, space) {
				return true
			}
		}
		return false
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("junk after document element: <%s>", t.Name.Local)
			}

			var declared []string
			for _, a := range t.Attr {
				if isNamespaceDecl(a.Name) {
					declared = append(declared, a.Value)
				}
			}
			scopes = append(scopes, declared)

			// encoding/xml leaves an unbound prefix in Name.Space.
			if !inScope(t.Name.Space) {
				return nil, fmt.Errorf("unbound prefix on element <%s:%s>", t.Name.Space, t.Name.Local)
			}
			for _, a := range t.Attr {
				if !isNamespaceDecl(a.Name) && !inScope(a.Name.Space) {
					return nil, fmt.Errorf("unbound prefix on attribute %s:%s", a.Name.Space, a.Name.Local)
				}
			}

			n := &node{
				tag:   qualifiedName(t.Name),
				attrs: attributes(t.Attr),
			}
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]
			scopes = scopes[:len(scopes)-1]

		case xml.CharData:
			if len(stack) == 0 && strings.Trim(string(t), " \t\r\n\ufeff") != "" {
				return nil, errors.New("text outside the document element")
			}
		}
	}

	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

// attributes keys the element's attributes by local name. An unprefixed
// attribute always wins over a namespaced one with the same local name.
func attributes(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Name.Space == "" && !isNamespaceDecl(a.Name) {
			m[a.Name.Local] = a.Value
		}
	}
	for _, a := range attrs {
		if a.Name.Space == "" || isNamespaceDecl(a.Name) {
			continue
		}
		key := NormalizeTag(qualifiedName(a.Name))
		if _, ok := m[key]; !ok {
			m[key] = a.Value
		}
	}
	return m
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}
