package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// RenderHandler serves a note body rendered as an HTML page.
type RenderHandler struct {
	responder
	notes    NoteService
	parser   goldmark.Markdown
	template *template.Template
}

// renderPageData holds template data for rendered note pages.
type renderPageData struct {
	Title   string
	Updated string
	Tags    []string
	Content template.HTML
}

var renderTemplate = template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid #ddd;
      padding-bottom: 1rem;
    }
    pre {
      background: #f5f5f5;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 6px;
    }
    .meta {
      color: #666;
      font-size: 0.9rem;
    }
    .tag {
      margin-right: 0.5rem;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">Updated {{.Updated}}{{range .Tags}} <span class="tag">#{{.}}</span>{{end}}</p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

// NewRenderHandler creates a new handler for rendering notes.
// Raw HTML in note bodies is escaped.
func NewRenderHandler(notes NoteService) *RenderHandler {
	return &RenderHandler{
		responder: newResponder(),
		notes:     notes,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: renderTemplate,
	}
}

// ServeHTTP renders the requested note as HTML.
func (h *RenderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.getLogger(ctx)
	id := chi.URLParam(r, "id")

	note, err := h.notes.GetNote(ctx, id)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to get note")
		return
	}

	htmlContent, err := h.renderMarkdown([]byte(note.Content))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "note_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to render note")
		return
	}

	pageData := renderPageData{
		Title:   note.Title,
		Updated: note.UpdatedAt.Format("2006-01-02 15:04"),
		Tags:    note.Tags,
		Content: template.HTML(htmlContent),
	}

	var buf bytes.Buffer
	if err := h.template.Execute(&buf, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "note_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to render note")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *RenderHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
