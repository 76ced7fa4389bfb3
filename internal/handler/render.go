package handler

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"

	"go.uber.org/zap"
)

// Renderer выполняет именованный шаблон с данными страницы
type Renderer interface {
	Render(w io.Writer, page string, data any) error
}

// TemplateRenderer - шаблоны html/template из каталога на диске.
// Все страницы рендерятся через base.html, страница выбирается по CurrentPage.
type TemplateRenderer struct {
	tmpl *template.Template
}

const fallbackTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
	<h1>Ошибка загрузки шаблонов</h1>
	<p>Проверьте файлы шаблонов</p>
	{{range .Error}}<p>{{.}}</p>{{end}}
</body>
</html>`

// NewTemplateRenderer парсит dir/*.html. Если шаблоны не найдены, страницы
// показывают минимальную заглушку, сервер не падает.
func NewTemplateRenderer(dir string, log *zap.SugaredLogger) *TemplateRenderer {
	funcMap := template.FuncMap{
		// cell - значение для показа в таблице
		"cell": func(v any) string {
			if v == nil {
				return "NULL"
			}
			return fmt.Sprint(v)
		},
		// value - значение для поля формы, пусто только для NULL
		"value": func(v any) string {
			if v == nil {
				return ""
			}
			return fmt.Sprint(v)
		},
		"isNull": func(v any) bool { return v == nil },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		log.Errorw("❌ ошибка парсинга шаблонов", "dir", dir, "error", err)
		tmpl = template.Must(template.New("base.html").Parse(fallbackTemplate))
	}

	log.Infow("✅ шаблоны загружены", "count", len(tmpl.Templates()))
	return &TemplateRenderer{tmpl: tmpl}
}

func (t *TemplateRenderer) Render(w io.Writer, page string, data any) error {
	return t.tmpl.ExecuteTemplate(w, "base.html", data)
}
