package handler

import (
	"bytes"
	"testing"

	"dbadmin/internal/domain"
	"dbadmin/internal/engine"
	"dbadmin/internal/models"
	"dbadmin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPage(t *testing.T, data models.PageData) string {
	t.Helper()
	view := NewTemplateRenderer("../../templates", testutil.NewTestLogger(t))
	var buf bytes.Buffer
	require.NoError(t, view.Render(&buf, data.CurrentPage, data))
	return buf.String()
}

func TestRenderEditRowKeepsZeroAndEmpty(t *testing.T) {
	body := renderPage(t, models.PageData{
		CurrentPage: "edit_row",
		User:        &admin,
		IsAdmin:     true,
		DBName:      "shop",
		TableName:   "items",
		RecordID:    "1",
		Columns: []engine.Column{
			{Name: "id", Type: "int", IsPrimaryKey: true},
			{Name: "qty", Type: "int"},
			{Name: "note", Type: "varchar(50)"},
			{Name: "gone", Type: "varchar(50)"},
		},
		Record: &engine.Row{
			Columns: []string{"id", "qty", "note", "gone"},
			Values:  map[string]any{"id": int64(1), "qty": int64(0), "note": "", "gone": nil},
		},
	})

	assert.Contains(t, body, `name="data[qty]" value="0"`)
	assert.Contains(t, body, `name="data[note]" value=""`)
	assert.Contains(t, body, `name="null[qty]"> NULL`)
	assert.Contains(t, body, `name="null[note]"> NULL`)
	assert.Contains(t, body, `name="null[gone]" checked> NULL`)
}

func TestRenderTableUsesKeyColumn(t *testing.T) {
	page := models.PageData{
		CurrentPage: "table",
		User:        &admin,
		IsAdmin:     true,
		DBName:      "shop",
		TableName:   "items",
		Columns: []engine.Column{
			{Name: "qty", Type: "int"},
			{Name: "code", Type: "varchar(10)", IsPrimaryKey: true},
		},
		KeyColumn: "code",
		Rows: []engine.Row{
			{Columns: []string{"qty", "code"}, Values: map[string]any{"qty": int64(0), "code": "A-7"}},
			{Columns: []string{"qty", "code"}, Values: map[string]any{"qty": int64(5), "code": nil}},
		},
	}

	body := renderPage(t, page)
	assert.Contains(t, body, `name="id" value="A-7"`)
	assert.Contains(t, body, "<td>0</td>")
	assert.Contains(t, body, "<td>NULL</td>")
	// у строки с NULL в ключе кнопок нет
	assert.Equal(t, 1, bytes.Count([]byte(body), []byte(`action="/eliminar-registro"`)))

	t.Run("reader sees no row actions", func(t *testing.T) {
		page.IsAdmin = false
		page.User = &domain.SessionIdentity{ID: 2, Name: "Ivan", Role: domain.RoleUser}
		body := renderPage(t, page)
		assert.NotContains(t, body, "/eliminar-registro")
	})
}
