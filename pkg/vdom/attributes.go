package vdom

import (
	"strconv"
	"strings"
)

// ActionAttr is the attribute the thin client watches for table events.
const ActionAttr = "data-action"

func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// A creates an arbitrary attribute.
func A(key string, value any) Attr { return attr(key, value) }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining non-empty classes with spaces.
func Class(classes ...string) Attr {
	parts := make([]string, 0, len(classes))
	for _, c := range classes {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return attr("class", strings.Join(parts, " "))
}

// Data creates a data-* attribute.
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Action marks the element as a source of the named table event.
func Action(name string) Attr { return attr(ActionAttr, name) }

// Key sets the sibling identity of the node.
func Key(key string) Attr { return attr("key", key) }

// Accessibility attributes

func Role(role string) Attr          { return attr("role", role) }
func AriaLabel(label string) Attr    { return attr("aria-label", label) }
func AriaSort(dir string) Attr       { return attr("aria-sort", dir) }
func AriaBusy(busy bool) Attr        { return attr("aria-busy", busy) }
func AriaOrientation(o string) Attr  { return attr("aria-orientation", o) }
func AriaChecked(checked bool) Attr  { return attr("aria-checked", checked) }
func AriaLive(mode string) Attr      { return attr("aria-live", mode) }
func TabIndex(index int) Attr        { return attr("tabindex", index) }
func ColSpan(n int) Attr             { return attr("colspan", strconv.Itoa(n)) }
func Scope(s string) Attr            { return attr("scope", s) }
func InputMode(mode string) Attr     { return attr("inputmode", mode) }
func Autocomplete(value string) Attr { return attr("autocomplete", value) }

// Form input attributes

func Name(name string) Attr        { return attr("name", name) }
func Value(value string) Attr      { return attr("value", value) }
func Type(t string) Attr           { return attr("type", t) }
func Placeholder(text string) Attr { return attr("placeholder", text) }

// Boolean attributes. The false variants render nothing.

func Selected() Attr { return attr("selected", true) }

// DisabledIf sets disabled when cond holds.
func DisabledIf(cond bool) Attr { return boolAttr("disabled", cond) }

// CheckedIf sets checked when cond holds.
func CheckedIf(cond bool) Attr { return boolAttr("checked", cond) }

// SelectedIf sets selected when cond holds.
func SelectedIf(cond bool) Attr { return boolAttr("selected", cond) }

func boolAttr(key string, cond bool) Attr {
	if !cond {
		return Attr{}
	}
	return attr(key, true)
}
