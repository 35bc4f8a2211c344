package form

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"datalist/internal/introspect"
	"datalist/internal/logger"
	"datalist/internal/lookup"
)

// DefaultPlaceholder is shown in lookup-enabled inputs.
const DefaultPlaceholder = "Show dropdown: ⬆️ ⬇️ . 🔠: starts filter"

// MissingComments is the diagnostic shown when column comments are not rendered.
const MissingComments = "foreign datalist depends on column comments being shown; enable lookup.comments_enabled"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/*.js assets/*.css
var assetFS embed.FS

// Assets exposes the browser client (datalist.js, datalist.css).
//
// Typical mount:
//
//	mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(form.Assets())))
func Assets() fs.FS {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		return assetFS
	}
	return sub
}

var commentPolicy = bluemonday.UGCPolicy()

var editTemplate = template.Must(template.New("edit.html").Funcs(template.FuncMap{
	"comment":   func(s string) template.HTML { return template.HTML(commentPolicy.Sanitize(s)) },
	"inputType": inputType,
}).ParseFS(templateFS, "templates/edit.html"))

// Context is everything the edit page needs from the host.
type Context struct {
	Form introspect.Form
	// CommentsEnabled says column comments are rendered into the page;
	// the client reads directives back from them.
	CommentsEnabled bool
	Field           string // reserved form field of the lookup channel
	Placeholder     string
	Keywords        []string
	AssetPrefix     string
}

type clientConfig struct {
	Fields      []string `json:"fields"`
	Field       string   `json:"field"`
	Placeholder string   `json:"placeholder"`
	Keywords    []string `json:"keywords"`
}

type pageData struct {
	Context
	Title      string
	Client     *clientConfig
	Diagnostic string
}

// Render writes the edit form of c.Form. The client script is only included
// when comments are rendered and at least one field is lookup-enabled.
func Render(w io.Writer, c Context) error {
	if c.Field == "" {
		c.Field = lookup.DefaultField
	}
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
	if c.AssetPrefix == "" {
		c.AssetPrefix = "/static/"
	}
	data := pageData{Context: c, Title: c.Form.Table}
	if c.Form.Schema != "" {
		data.Title = c.Form.Schema + "." + c.Form.Table
	}

	switch names := c.Form.LookupFields(); {
	case !c.CommentsEnabled:
		data.Diagnostic = MissingComments
	case len(names) > 0:
		data.Client = &clientConfig{
			Fields:      names,
			Field:       c.Field,
			Placeholder: c.Placeholder,
			Keywords:    c.Keywords,
		}
	}
	return editTemplate.Execute(w, data)
}

// inputType picks the HTML input type for a column; lookup fields are always
// text so any suggestion can be accepted.
func inputType(f introspect.Field) string {
	if f.Lookup {
		return "text"
	}
	t := strings.ToLower(f.Type)
	for _, num := range []string{"int", "numeric", "decimal", "real", "double", "float", "number"} {
		if strings.Contains(t, num) {
			return "number"
		}
	}
	return "text"
}

// Source returns the columns of a table from the host's connection.
type Source interface {
	FormFields(ctx context.Context, table string) (introspect.Form, error)
}

// Page serves GET ?table=NAME with the table's edit form.
type Page struct {
	Source          Source
	Overrides       map[string]string
	Keywords        []string
	CommentsEnabled bool
	Field           string
	Placeholder     string
	AssetPrefix     string
}

// Form returns the table's fields with annotations resolved.
func (p *Page) Form(ctx context.Context, table string) (introspect.Form, error) {
	if table == "" {
		return introspect.Form{}, errors.New("missing table")
	}
	f, err := p.Source.FormFields(ctx, table)
	if err != nil {
		return f, err
	}
	return Resolve(f, p.Overrides, p.Keywords), nil
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	table := r.URL.Query().Get("table")
	f, err := p.Form(r.Context(), table)
	if err != nil {
		logger.Error("edit form %q: %v", table, err)
		http.Error(w, fmt.Sprintf("cannot edit %q: %v", table, err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	err = Render(w, Context{
		Form:            f,
		CommentsEnabled: p.CommentsEnabled,
		Field:           p.Field,
		Placeholder:     p.Placeholder,
		Keywords:        p.Keywords,
		AssetPrefix:     p.AssetPrefix,
	})
	if err != nil {
		logger.Error("render edit form %q: %v", table, err)
	}
}
