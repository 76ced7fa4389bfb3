// Package sanitizer проверяет идентификаторы и типы, которые попадают в текст
// SQL, и собирает значения для привязки через плейсхолдеры драйвера.
//
// Идентификаторы нельзя передать параметром, поэтому они проходят allow-list и
// экранируются обратными кавычками. Значения в текст запроса не попадают никогда.
package sanitizer

import (
	"fmt"
	"regexp"
	"strings"

	"dbadmin/internal/domain"
)

// MaxIdentifierLength - предел длины имени в MySQL
const MaxIdentifierLength = 64

var (
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// INT, VARCHAR(50), DECIMAL(10,2), INT UNSIGNED, TEXT NOT NULL ...
	typeRe = regexp.MustCompile(`^(?i)[a-z]+( ?\(\s*\d{1,5}\s*(,\s*\d{1,3}\s*)?\))?( unsigned)?( not null)?$`)
)

// Identifier - проверенное имя базы, таблицы или столбца
type Identifier struct {
	name string
}

// Name возвращает имя без кавычек
func (i Identifier) Name() string { return i.name }

// String возвращает имя в обратных кавычках, готовое для вставки в запрос
func (i Identifier) String() string { return "`" + i.name + "`" }

// Valid сообщает, пройдет ли имя проверку
func Valid(name string) bool {
	return len(name) > 0 && len(name) <= MaxIdentifierLength && identRe.MatchString(name)
}

// QuoteIdentifier проверяет имя и возвращает его экранированную форму
func QuoteIdentifier(name string) (Identifier, error) {
	if !Valid(name) {
		return Identifier{}, fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, name)
	}
	return Identifier{name: name}, nil
}

// QuoteIdentifiers проверяет все имена, первая ошибка прерывает проверку
func QuoteIdentifiers(names ...string) ([]Identifier, error) {
	out := make([]Identifier, 0, len(names))
	for _, n := range names {
		id, err := QuoteIdentifier(n)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Qualify возвращает `db`.`table`
func Qualify(db, table string) (string, error) {
	ids, err := QuoteIdentifiers(db, table)
	if err != nil {
		return "", err
	}
	return ids[0].String() + "." + ids[1].String(), nil
}

// ColumnType нормализует объявление типа столбца. Тип вставляется в DDL как
// есть, поэтому допускается только узкая грамматика.
func ColumnType(t string) (string, error) {
	t = strings.Join(strings.Fields(t), " ")
	if t == "" || len(t) > 64 || !typeRe.MatchString(t) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidType, t)
	}
	return strings.ToUpper(t), nil
}

// Args копит значения для плейсхолдеров в порядке их появления в запросе
type Args []any

// Bind добавляет значение и возвращает плейсхолдер для текста запроса
func (a *Args) Bind(v any) string {
	*a = append(*a, v)
	return "?"
}
