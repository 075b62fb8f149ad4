// Package render turns vdom trees into HTML.
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
//
// Text and attribute values are escaped. RenderPage wraps a body in a full
// document with the stylesheet and the thin client script.
package render
