package capture

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/browser"
)

const titleScript = `() => {
	const h1 = document.querySelector('h1');
	if (h1 && h1.textContent.trim()) return h1.textContent.trim();
	return '';
}`

// extractTitle reads the market title from the live page, falling back to
// parsing the serialised document when the in-page lookup comes back empty
// (it can, when a restyle pass raced the framework's hydration).
func (s *Service) extractTitle(ctx context.Context, log *slog.Logger, page browser.Page) string {
	raw, err := page.Eval(ctx, titleScript)
	if err == nil {
		var title string
		if json.Unmarshal(raw, &title) == nil && title != "" {
			return title
		}
	}

	doc, err := page.HTML(ctx)
	if err != nil {
		log.Warn("capture: title extraction degraded", "error", err)
		return ""
	}
	return titleFromHTML(doc)
}

// titleFromHTML returns the first h1's text, else the <title> with the site
// suffix stripped.
func titleFromHTML(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}

	var h1, pageTitle string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1":
				if h1 == "" {
					h1 = strings.TrimSpace(textContent(n))
				}
			case "title":
				if pageTitle == "" {
					pageTitle = strings.TrimSpace(textContent(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if h1 != "" {
		return h1
	}
	pageTitle = strings.TrimSuffix(pageTitle, " | Polymarket")
	return pageTitle
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
