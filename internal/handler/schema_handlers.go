package handler

import (
	"net/http"
	"strings"

	"dbadmin/internal/models"
	"dbadmin/internal/target"
)

// DatabasesHandler - список баз целевого сервера
func (h *Handler) DatabasesHandler(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	dbs, err := eng.ListDatabases(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	data := models.PageData{
		Title:       "Базы данных",
		CurrentPage: "databases",
		Databases:   dbs,
	}
	if pool, ok := target.FromContext(r.Context()); ok {
		data.TargetHost = pool.Host()
	}
	h.render(w, r, http.StatusOK, data)
}

// DatabaseHandler - таблицы одной базы
func (h *Handler) DatabaseHandler(w http.ResponseWriter, r *http.Request) {
	dbName := r.URL.Query().Get("dbName")
	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	tables, err := eng.ListTables(r.Context(), dbName)
	if err != nil {
		h.fail(w, r, err, "/bases-de-datos")
		return
	}

	h.render(w, r, http.StatusOK, models.PageData{
		Title:       "База " + dbName,
		CurrentPage: "database",
		DBName:      dbName,
		Tables:      tables,
	})
}

// CreateDatabaseHandler - создание базы
func (h *Handler) CreateDatabaseHandler(w http.ResponseWriter, r *http.Request) {
	dbName := strings.TrimSpace(r.FormValue("dbName"))
	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := eng.CreateDatabase(r.Context(), dbName); err != nil {
		h.fail(w, r, err, "/bases-de-datos")
		return
	}
	h.Log.Infow("✅ база создана", "db", dbName, "user", identityFrom(r.Context()).Email)
	h.redirectWith(w, r, "/bases-de-datos", flashOK, "База "+dbName+" создана")
}

// DropDatabaseHandler - удаление базы
func (h *Handler) DropDatabaseHandler(w http.ResponseWriter, r *http.Request) {
	dbName := r.FormValue("dbName")
	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := eng.DropDatabase(r.Context(), dbName); err != nil {
		h.fail(w, r, err, "/bases-de-datos")
		return
	}
	h.Log.Infow("✅ база удалена", "db", dbName, "user", identityFrom(r.Context()).Email)
	h.redirectWith(w, r, "/bases-de-datos", flashOK, "База "+dbName+" удалена")
}

// NewTableFormHandler - форма создания таблицы
func (h *Handler) NewTableFormHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, models.PageData{
		Title:       "Новая таблица",
		CurrentPage: "new_table",
		DBName:      r.URL.Query().Get("dbName"),
	})
}

// CreateTableHandler - создание таблицы из полей campos[i][...]
func (h *Handler) CreateTableHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Ошибка разбора формы", http.StatusBadRequest)
		return
	}
	dbName := r.PostForm.Get("dbName")
	tableName := strings.TrimSpace(r.PostForm.Get("tableName"))
	back := withDB("/agregar-tabla", dbName)

	columns, err := parseCreateTableForm(r)
	if err != nil {
		h.fail(w, r, err, back)
		return
	}

	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := eng.CreateTable(r.Context(), dbName, tableName, columns); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.Log.Infow("✅ таблица создана", "db", dbName, "table", tableName, "columns", len(columns))
	h.redirectWith(w, r, dbURL(dbName), flashOK, "Таблица "+tableName+" создана")
}

// ModifyTableHandler - столбцы таблицы с формами добавления и удаления
func (h *Handler) ModifyTableHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dbName, tableName := q.Get("dbName"), q.Get("tableName")
	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	columns, err := eng.ListColumns(r.Context(), dbName, tableName)
	if err != nil {
		h.fail(w, r, err, dbURL(dbName))
		return
	}

	h.render(w, r, http.StatusOK, models.PageData{
		Title:       "Структура " + tableName,
		CurrentPage: "modify_table",
		DBName:      dbName,
		TableName:   tableName,
		Columns:     columns,
	})
}

// AddColumnHandler - добавление столбца
func (h *Handler) AddColumnHandler(w http.ResponseWriter, r *http.Request) {
	dbName, tableName := r.FormValue("dbName"), r.FormValue("tableName")
	name := strings.TrimSpace(r.FormValue("campoNombre"))
	typ := r.FormValue("campoTipo")
	back := tableURL("/modificar-tabla", dbName, tableName)

	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := eng.AddColumn(r.Context(), dbName, tableName, name, typ); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.redirectWith(w, r, back, flashOK, "Столбец "+name+" добавлен")
}

// DropColumnHandler - удаление столбца, первичный ключ удалить нельзя
func (h *Handler) DropColumnHandler(w http.ResponseWriter, r *http.Request) {
	dbName, tableName := r.FormValue("dbName"), r.FormValue("tableName")
	name := r.FormValue("campoNombre")
	back := tableURL("/modificar-tabla", dbName, tableName)

	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := eng.DropColumn(r.Context(), dbName, tableName, name); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.redirectWith(w, r, back, flashOK, "Столбец "+name+" удален")
}

// DropTableHandler - удаление таблицы
func (h *Handler) DropTableHandler(w http.ResponseWriter, r *http.Request) {
	dbName, tableName := r.FormValue("dbName"), r.FormValue("tableName")
	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := eng.DropTable(r.Context(), dbName, tableName); err != nil {
		h.fail(w, r, err, dbURL(dbName))
		return
	}
	h.Log.Infow("✅ таблица удалена", "db", dbName, "table", tableName)
	h.redirectWith(w, r, dbURL(dbName), flashOK, "Таблица "+tableName+" удалена")
}
