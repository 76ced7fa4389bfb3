package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"dbadmin/internal/domain"
	"dbadmin/internal/engine"
)

// bracketKey разбирает ключ вида prefix[a][b] и возвращает части в скобках
func bracketKey(key, prefix string) ([]string, bool) {
	if !strings.HasPrefix(key, prefix+"[") || !strings.HasSuffix(key, "]") {
		return nil, false
	}
	inner := key[len(prefix)+1 : len(key)-1]
	return strings.Split(inner, "]["), true
}

// formValue - значение поля формы вставки. Пустая строка пишется как NULL.
func formValue(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// parseDataFields собирает поля data[столбец] формы вставки в engine.Fields
func parseDataFields(r *http.Request) engine.Fields {
	fields := engine.Fields{}
	for col, v := range dataValues(r) {
		fields[col] = formValue(v)
	}
	return fields
}

func dataValues(r *http.Request) map[string]string {
	out := map[string]string{}
	for key, vals := range r.PostForm {
		parts, ok := bracketKey(key, "data")
		if !ok || len(parts) != 1 || len(vals) == 0 {
			continue
		}
		out[parts[0]] = vals[0]
	}
	return out
}

// reservedUpdateKeys - служебные поля формы редактирования, они не столбцы
var reservedUpdateKeys = map[string]bool{
	"dbName":    true,
	"tableName": true,
	"id":        true,
}

// parseUpdateFields принимает и data[столбец], и голые имена столбцов.
// Значения берутся как есть, пустая строка остается пустой строкой.
// NULL записывается только для столбцов с отмеченным null[столбец].
func parseUpdateFields(r *http.Request) engine.Fields {
	fields := engine.Fields{}
	for col, v := range dataValues(r) {
		fields[col] = v
	}
	for key, vals := range r.PostForm {
		if reservedUpdateKeys[key] || strings.Contains(key, "[") || len(vals) == 0 {
			continue
		}
		if _, ok := fields[key]; !ok {
			fields[key] = vals[0]
		}
	}
	for key, vals := range r.PostForm {
		parts, ok := bracketKey(key, "null")
		if !ok || len(parts) != 1 || len(vals) == 0 || vals[0] == "" {
			continue
		}
		fields[parts[0]] = nil
	}
	return fields
}

// parseCreateTableForm собирает столбцы из campos[i][nombre|tipo|llave].
// Порядок столбцов задается индексом i.
func parseCreateTableForm(r *http.Request) ([]engine.ColumnDef, error) {
	byIndex := map[int]*engine.ColumnDef{}
	for key, vals := range r.PostForm {
		parts, ok := bracketKey(key, "campos")
		if !ok || len(parts) != 2 || len(vals) == 0 {
			continue
		}
		i, err := strconv.Atoi(parts[0])
		if err != nil || i < 0 {
			return nil, fmt.Errorf("%w: неверный индекс поля %q", domain.ErrSchema, parts[0])
		}
		def, ok := byIndex[i]
		if !ok {
			def = &engine.ColumnDef{}
			byIndex[i] = def
		}
		switch parts[1] {
		case "nombre":
			def.Name = strings.TrimSpace(vals[0])
		case "tipo":
			def.Type = strings.TrimSpace(vals[0])
		case "llave":
			def.IsPrimaryKey = vals[0] != "" && vals[0] != "0" && vals[0] != "false"
		}
	}

	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	columns := make([]engine.ColumnDef, 0, len(indexes))
	for _, i := range indexes {
		columns = append(columns, *byIndex[i])
	}
	return columns, nil
}
