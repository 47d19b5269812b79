package view

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/url"
	"strings"
)

const (
	kindMixed       = "mixed"
	kindAlternative = "alternative"
)

// Fragment templates for the individual node renderers. Page-level layout
// lives in the web package; these only produce the body-tree markup.
var templates = template.Must(template.New("view").Parse(`
{{define "mixed"}}<div class="part-mixed">{{range .Children}}<div class="part-mixed-child">{{.}}</div>{{end}}</div>{{end}}
{{define "alternative"}}<div class="part-alternative" data-message="{{.ID}}"><div class="tab-strip" role="tablist">{{range .Tabs}}<button type="button" role="tab" class="tab{{if .Selected}} selected{{end}}" data-path="{{.Path}}" aria-selected="{{.Selected}}">{{.Label}}</button>{{end}}</div><div class="tab-body">{{.Body}}</div></div>{{end}}
{{define "frame"}}<iframe class="part-frame" sandbox="allow-same-origin" src="{{.Src}}"></iframe>{{end}}
{{define "text"}}<pre class="part-text">{{.Text}}</pre>{{end}}
{{define "image"}}<img class="part-image" src="{{.Src}}" alt="{{.ContentType}}">{{end}}
{{define "unsupported"}}<div class="part-unsupported">Unsupported media type: {{.ContentType}}</div>{{end}}
{{define "notsupported"}}<div class="part-unsupported">multipart/{{.Kind}} is not supported</div>{{end}}
{{define "error"}}<div class="part-error">Failed to load message part.</div>{{end}}
`))

// Renderer turns body-tree nodes into HTML fragments. Each Render call
// fetches exactly one node and recurses per the multipart layout policy;
// failures render as placeholders scoped to the failing subtree.
type Renderer struct {
	fetcher Fetcher
	partURL func(id string, path Path) string
}

// NewRenderer creates a Renderer fetching through the given Fetcher. Frame
// and image sources point at the default part endpoint.
func NewRenderer(fetcher Fetcher) *Renderer {
	return &Renderer{
		fetcher: fetcher,
		partURL: func(id string, path Path) string {
			return "/messages/" + url.PathEscape(id) + path.String()
		},
	}
}

// Render resolves the node at path and renders it. The returned error is
// non-nil only when the node's own fetch failed or the context was
// cancelled; all deeper failures are contained in the returned markup.
func (r *Renderer) Render(ctx context.Context, id string, path Path) (template.HTML, error) {
	part, err := r.fetcher.FetchPart(ctx, id, path)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var malformed *MalformedResponseError
		if errors.As(err, &malformed) {
			// Payload disagrees with its declared type; fail closed
			return r.renderUnsupported(&UnsupportedFormatError{ContentType: malformed.ContentType}), nil
		}
		return "", err
	}

	if part.Multipart != nil {
		return r.renderMultipart(ctx, id, path, part.Multipart)
	}
	return r.renderLeaf(id, path, part), nil
}

// renderMultipart dispatches on the multipart kind: mixed stacks every
// child in order, alternative shows a tab strip with only the selected
// child mounted, anything else is rejected with an explicit notice.
func (r *Renderer) renderMultipart(ctx context.Context, id string, path Path, desc *MultipartDesc) (template.HTML, error) {
	switch desc.Kind {
	case kindMixed:
		return r.renderMixed(ctx, id, path, desc)

	case kindAlternative:
		if len(desc.Parts) == 0 {
			return r.renderUnsupported(&UnsupportedFormatError{ContentType: "multipart/" + desc.Kind}), nil
		}
		// The richest representation is conventionally ordered last
		selected := len(desc.Parts) - 1

		tabs := make([]map[string]interface{}, len(desc.Parts))
		for i, child := range desc.Parts {
			tabs[i] = map[string]interface{}{
				"Label":    tabLabel(child.ContentType),
				"Path":     path.Child(i).String(),
				"Selected": i == selected,
			}
		}

		body, err := r.Render(ctx, id, path.Child(selected))
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			body = r.exec("error", nil)
		}

		return r.exec("alternative", map[string]interface{}{
			"ID":   id,
			"Tabs": tabs,
			"Body": body,
		}), nil

	default:
		// Unrecognized kind: no best-effort rendering, no child fetches
		return r.renderUnsupported(&UnsupportedFormatError{ContentType: "multipart/" + desc.Kind}), nil
	}
}

// renderMixed renders every child in original order. Children that need
// their own node fetch are mounted eagerly and in parallel, each owning its
// fetch lifecycle so one failure never disturbs its siblings.
func (r *Renderer) renderMixed(ctx context.Context, id string, path Path, desc *MultipartDesc) (template.HTML, error) {
	children := make([]template.HTML, len(desc.Parts))
	nodes := make([]*NodeView, len(desc.Parts))
	dones := make([]<-chan struct{}, len(desc.Parts))

	for i, child := range desc.Parts {
		childPath := path.Child(i)
		contentType := BareContentType(child.ContentType)

		switch {
		case strings.HasPrefix(contentType, "text/"), strings.HasPrefix(contentType, "multipart/"):
			nodes[i] = NewNodeView(r, id, childPath)
			dones[i] = nodes[i].Mount(ctx)

		case strings.HasPrefix(contentType, "image/"):
			// The display surface loads the bytes itself; no fetch here
			children[i] = r.exec("image", map[string]interface{}{
				"Src":         r.partURL(id, childPath),
				"ContentType": contentType,
			})

		default:
			children[i] = r.renderUnsupported(&UnsupportedFormatError{ContentType: contentType})
		}
	}

	for i, node := range nodes {
		if node == nil {
			continue
		}
		select {
		case <-dones[i]:
		case <-ctx.Done():
			for _, n := range nodes {
				if n != nil {
					n.Unmount()
				}
			}
			return "", ctx.Err()
		}
		if html, err := node.Result(); err != nil {
			children[i] = r.exec("error", nil)
		} else {
			children[i] = html
		}
	}

	return r.exec("mixed", map[string]interface{}{
		"Children": children,
	}), nil
}

// renderLeaf dispatches a literal node on its content type. HTML always
// goes through the isolated frame, never inline.
func (r *Renderer) renderLeaf(id string, path Path, part *Part) template.HTML {
	contentType := part.ContentType

	switch {
	case contentType == "text/html":
		return r.exec("frame", map[string]interface{}{
			"Src": r.partURL(id, path),
		})

	case strings.HasPrefix(contentType, "text/"):
		return r.exec("text", map[string]interface{}{
			"Text": string(part.Data),
		})

	case strings.HasPrefix(contentType, "image/"):
		return r.exec("image", map[string]interface{}{
			"Src":         r.partURL(id, path),
			"ContentType": contentType,
		})

	default:
		return r.renderUnsupported(&UnsupportedFormatError{ContentType: contentType})
	}
}

// renderUnsupported contains an unsupported format locally: the placeholder
// names the offending type and nothing is retried.
func (r *Renderer) renderUnsupported(err *UnsupportedFormatError) template.HTML {
	if kind, ok := strings.CutPrefix(err.ContentType, "multipart/"); ok {
		return r.exec("notsupported", map[string]interface{}{
			"Kind": kind,
		})
	}
	return r.exec("unsupported", map[string]interface{}{
		"ContentType": err.ContentType,
	})
}

// tabLabel derives the tab caption for an alternative child.
func tabLabel(contentType string) string {
	switch BareContentType(contentType) {
	case "text/plain":
		return "Text"
	case "text/html":
		return "HTML"
	default:
		return BareContentType(contentType)
	}
}

func (r *Renderer) exec(name string, data interface{}) template.HTML {
	var buf strings.Builder
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Template error: %v", err)
		return ""
	}
	return template.HTML(buf.String())
}
