package handler

import (
	"net/http"
	"strconv"

	"dbadmin/internal/engine"
	"dbadmin/internal/models"
)

// NewRowFormHandler - форма вставки строки по столбцам таблицы
func (h *Handler) NewRowFormHandler(w http.ResponseWriter, r *http.Request) {
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
		Title:       "Новая запись",
		CurrentPage: "new_row",
		DBName:      dbName,
		TableName:   tableName,
		Columns:     columns,
	})
}

// InsertRowHandler - вставка строки из полей data[столбец]
func (h *Handler) InsertRowHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Ошибка разбора формы", http.StatusBadRequest)
		return
	}
	dbName, tableName := r.PostForm.Get("dbName"), r.PostForm.Get("tableName")

	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := eng.InsertRow(r.Context(), dbName, tableName, parseDataFields(r)); err != nil {
		h.fail(w, r, err, tableURL("/agregar-datos", dbName, tableName))
		return
	}
	h.redirectWith(w, r, tableURL("/ver-tabla", dbName, tableName), flashOK, "Запись добавлена")
}

// TableHandler - строки таблицы. С параметром page выдача идет страницами.
func (h *Handler) TableHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dbName, tableName := q.Get("dbName"), q.Get("tableName")
	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	desc, err := eng.Describe(r.Context(), dbName, tableName)
	if err != nil {
		h.fail(w, r, err, dbURL(dbName))
		return
	}

	data := models.PageData{
		Title:       "Таблица " + tableName,
		CurrentPage: "table",
		DBName:      dbName,
		TableName:   tableName,
		Columns:     desc.Columns,
	}
	// без ключа строки можно только смотреть
	if key, err := desc.KeyColumn(); err == nil {
		data.KeyColumn = key
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			page = 1
		}
		size := h.cfg.Target.PageSize
		// на одну строку больше, чтобы узнать, есть ли следующая страница
		rows, err := eng.ListRowsPage(r.Context(), dbName, tableName, size+1, (page-1)*size)
		if err != nil {
			h.fail(w, r, err, dbURL(dbName))
			return
		}
		if len(rows) > size {
			rows = rows[:size]
			data.NextPage = page + 1
		}
		if page > 1 {
			data.PrevPage = page - 1
		}
		data.Page = page
		data.Rows = rows
	} else {
		rows, err := eng.ListRows(r.Context(), dbName, tableName)
		if err != nil {
			h.fail(w, r, err, dbURL(dbName))
			return
		}
		data.Rows = rows
	}

	h.render(w, r, http.StatusOK, data)
}

// EditRowFormHandler - форма редактирования записи по ключу
func (h *Handler) EditRowFormHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dbName, tableName, id := q.Get("dbName"), q.Get("tableName"), q.Get("id")
	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	row, err := eng.GetRowByID(r.Context(), dbName, tableName, id)
	if err != nil {
		h.fail(w, r, err, tableURL("/ver-tabla", dbName, tableName))
		return
	}

	h.render(w, r, http.StatusOK, models.PageData{
		Title:       "Редактирование записи",
		CurrentPage: "edit_row",
		DBName:      dbName,
		TableName:   tableName,
		Columns:     columnsOf(row.Columns),
		Record:      &row,
		RecordID:    id,
	})
}

// UpdateRowHandler - обновление записи по ключу
func (h *Handler) UpdateRowHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Ошибка разбора формы", http.StatusBadRequest)
		return
	}
	dbName, tableName, id := r.PostForm.Get("dbName"), r.PostForm.Get("tableName"), r.PostForm.Get("id")
	back := tableURL("/ver-tabla", dbName, tableName)

	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := eng.UpdateRow(r.Context(), dbName, tableName, id, parseUpdateFields(r)); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.redirectWith(w, r, back, flashOK, "Запись обновлена")
}

// DeleteRowHandler - удаление записи по ключу
func (h *Handler) DeleteRowHandler(w http.ResponseWriter, r *http.Request) {
	dbName, tableName, id := r.FormValue("dbName"), r.FormValue("tableName"), r.FormValue("id")
	back := tableURL("/ver-tabla", dbName, tableName)

	eng, err := h.engine(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := eng.DeleteRow(r.Context(), dbName, tableName, id); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.redirectWith(w, r, back, flashOK, "Запись удалена")
}

func columnsOf(names []string) []engine.Column {
	cols := make([]engine.Column, len(names))
	for i, n := range names {
		cols[i] = engine.Column{Name: n}
	}
	return cols
}
