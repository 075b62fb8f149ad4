package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/tabledash/pkg/vdom"
)

// PageData describes a full HTML document.
type PageData struct {
	Title string
	Lang  string

	// Styles is inlined in a <style> element in the head.
	Styles string

	// Body is rendered inside <body>.
	Body *vdom.VNode

	// LiveURL is the WebSocket endpoint the thin client connects to.
	// Empty disables the client script.
	LiveURL string

	// ClientScript is the thin client source, inlined when LiveURL is set.
	ClientScript string
}

// RenderPage writes a complete HTML document for page.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n", escapeAttr(lang)); err != nil {
		return err
	}
	io.WriteString(w, `<meta charset="utf-8">`+"\n")
	io.WriteString(w, `<meta name="viewport" content="width=device-width, initial-scale=1">`+"\n")
	if page.Title != "" {
		fmt.Fprintf(w, "<title>%s</title>\n", escapeHTML(page.Title))
	}
	if page.Styles != "" {
		fmt.Fprintf(w, "<style>%s</style>\n", page.Styles)
	}
	io.WriteString(w, "</head>\n")

	attrs := ""
	if page.LiveURL != "" {
		attrs = fmt.Sprintf(` data-live="%s"`, escapeAttr(page.LiveURL))
	}
	if _, err := fmt.Fprintf(w, "<body%s>\n", attrs); err != nil {
		return err
	}
	if err := r.RenderToWriter(w, page.Body); err != nil {
		return err
	}
	if page.LiveURL != "" && page.ClientScript != "" {
		fmt.Fprintf(w, "\n<script>%s</script>", page.ClientScript)
	}
	_, err := io.WriteString(w, "\n</body>\n</html>\n")
	return err
}
