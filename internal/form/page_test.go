package form

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalist/internal/introspect"
)

type fakeSource struct {
	form introspect.Form
	err  error
}

func (s fakeSource) FormFields(ctx context.Context, table string) (introspect.Form, error) {
	if s.err != nil {
		return introspect.Form{}, s.err
	}
	return s.form, nil
}

func TestRender(t *testing.T) {
	form := Resolve(ordersForm(), nil, nil)

	t.Run("comments enabled", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, Context{Form: form, CommentsEnabled: true}))
		page := buf.String()

		assert.Contains(t, page, "Edit: SALES.ORDERS")
		assert.Contains(t, page, `name="fields[CUSTOMER_ID]" type="text" size="40"`)
		assert.Contains(t, page, `title="Buyer. lookup:{table:CUSTOMERS, label:NAME, value:ID}"`)
		assert.Contains(t, page, `window.foreignDatalist = {"fields":["CUSTOMER_ID"],"field":"foreignDatalist"`)
		assert.Contains(t, page, `src="/static/datalist.js"`)
		assert.NotContains(t, page, "alert(")
	})

	t.Run("comments disabled", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, Context{Form: form}))
		page := buf.String()

		assert.Contains(t, page, "alert(")
		assert.Contains(t, page, "lookup.comments_enabled")
		assert.NotContains(t, page, "datalist.js")
		assert.NotContains(t, page, "title=")
	})

	t.Run("no lookup fields", func(t *testing.T) {
		var buf bytes.Buffer
		plain := introspect.Form{Table: "NOTES", Fields: []introspect.Field{{Name: "ID", Type: "INTEGER"}}}
		require.NoError(t, Render(&buf, Context{Form: plain, CommentsEnabled: true, AssetPrefix: "/assets/"}))
		page := buf.String()

		assert.Contains(t, page, `name="fields[ID]" type="number"`)
		assert.Contains(t, page, `href="/assets/datalist.css"`)
		assert.NotContains(t, page, "foreignDatalist")
	})

	t.Run("comment markup is sanitized", func(t *testing.T) {
		var buf bytes.Buffer
		evil := introspect.Form{Table: "T", Fields: []introspect.Field{{Name: "A", Comment: `<b>bold</b><script>alert(1)</script>`}}}
		require.NoError(t, Render(&buf, Context{Form: evil, CommentsEnabled: true}))
		page := buf.String()

		assert.Contains(t, page, "<b>bold</b>")
		assert.NotContains(t, page, "<script>alert(1)</script>")
	})
}

func TestInputType(t *testing.T) {
	var tests = []struct {
		field introspect.Field
		want  string
	}{
		{introspect.Field{Type: "INTEGER"}, "number"},
		{introspect.Field{Type: "decimal(10,2)"}, "number"},
		{introspect.Field{Type: "NUMBER", Lookup: true}, "text"},
		{introspect.Field{Type: "varchar(40)"}, "text"},
		{introspect.Field{Type: "date"}, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.field.Type, func(t *testing.T) {
			if got := inputType(tt.field); got != tt.want {
				t.Errorf("\ngot %v, wanted %v", got, tt.want)
			}
		})
	}
}

func TestPage(t *testing.T) {
	p := &Page{Source: fakeSource{form: ordersForm()}, CommentsEnabled: true}

	t.Run("edit form", func(t *testing.T) {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/edit?table=SALES.ORDERS", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "fields[CUSTOMER_ID]")
	})

	t.Run("missing table", func(t *testing.T) {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/edit", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("source error", func(t *testing.T) {
		broken := &Page{Source: fakeSource{err: errors.New("no active connection")}}
		rec := httptest.NewRecorder()
		broken.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/edit?table=X", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "no active connection")
	})

	t.Run("post not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/edit?table=ORDERS", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("head has no body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/edit?table=ORDERS", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestAssets(t *testing.T) {
	js, err := fs.ReadFile(Assets(), "datalist.js")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(js), "window.foreignDatalist"))

	_, err = fs.Stat(Assets(), "datalist.css")
	assert.NoError(t, err)

	srv := httptest.NewServer(http.StripPrefix("/static/", http.FileServerFS(Assets())))
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/static/datalist.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
