// Package vdom provides the in-memory node tree tabledash renders from.
//
// Components build VNode trees with variadic factory functions and the
// render package turns them into HTML:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("People")),
//	    Button(Action("page.next"), Text("Next")),
//	)
//
// Interactive elements carry a data-action attribute instead of Go
// closures. The thin client reads it and sends a table event over the live
// connection, so the tree itself stays plain data.
package vdom
