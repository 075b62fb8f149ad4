package vdom

import "strings"

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// VNode is a virtual DOM node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Key      string   // Stable identity among siblings
	Text     string   // For KindText
}

// Props holds attributes.
type Props map[string]any

// IsInteractive reports whether the element triggers a table event.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	_, ok := v.Props[ActionAttr]
	return ok
}

// TextContent returns the concatenated text of the subtree.
func (v *VNode) TextContent() string {
	if v == nil {
		return ""
	}
	if v.Kind == KindText {
		return v.Text
	}
	var b strings.Builder
	for _, c := range v.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// Walk visits the subtree depth-first. Returning false skips the children.
func (v *VNode) Walk(fn func(*VNode) bool) {
	if v == nil || !fn(v) {
		return
	}
	for _, c := range v.Children {
		c.Walk(fn)
	}
}

// FindAll returns every node in the subtree matching pred.
func (v *VNode) FindAll(pred func(*VNode) bool) []*VNode {
	var out []*VNode
	v.Walk(func(n *VNode) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}
