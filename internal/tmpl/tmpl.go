// Package tmpl содержит закрытый набор подстановок сообщений об ошибках
// и проверку шаблонов с токенами вида ${field.path}.
package tmpl

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Placeholder подстановка в шаблоне сообщения об ошибке
type Placeholder string

const (
	FieldPath     Placeholder = "field.path"
	FieldValue    Placeholder = "field.value"
	FieldType     Placeholder = "field.type"
	FieldName     Placeholder = "field.name"
	ParentType    Placeholder = "parent.type"
	MinValue      Placeholder = "min.value"
	MinOperator   Placeholder = "min.operator"
	MaxValue      Placeholder = "max.value"
	MaxOperator   Placeholder = "max.operator"
	RangeValue    Placeholder = "range.value"
	GoesCompanion Placeholder = "goes.companion"
	WhenIn        Placeholder = "when.in"
	RegexPattern  Placeholder = "regex.pattern"
	RegexModifier Placeholder = "regex.modifier"
	OneofName     Placeholder = "oneof.name"
	RequireFields Placeholder = "require.fields"
)

// All все известные подстановки в порядке объявления
var All = []Placeholder{
	FieldPath, FieldValue, FieldType, FieldName, ParentType,
	MinValue, MinOperator, MaxValue, MaxOperator, RangeValue,
	GoesCompanion, WhenIn, RegexPattern, RegexModifier, OneofName, RequireFields,
}

// Token возвращает запись подстановки в тексте шаблона
func (p Placeholder) Token() string { return "${" + string(p) + "}" }

var tokenRe = regexp.MustCompile(`\$\{([^{}]*)\}`)

// Tokens извлекает имена токенов из текста шаблона в порядке появления, без повторов
func Tokens(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Set набор подстановок, поддерживаемых видом опции
type Set map[Placeholder]bool

// NewSet создает набор из перечисленных подстановок
func NewSet(ps ...Placeholder) Set {
	s := make(Set, len(ps))
	for _, p := range ps {
		s[p] = true
	}
	return s
}

// Has сообщает, что подстановка входит в набор
func (s Set) Has(p Placeholder) bool { return s[p] }

// Sorted возвращает подстановки набора в алфавитном порядке
func (s Set) Sorted() []Placeholder {
	out := make([]Placeholder, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) String() string {
	names := make([]string, 0, len(s))
	for _, p := range s.Sorted() {
		names = append(names, p.Token())
	}
	return strings.Join(names, ", ")
}

// Check возвращает первый токен шаблона, не входящий в набор supported.
// Пустая строка означает, что шаблон корректен.
func Check(text string, supported Set) string {
	for _, name := range Tokens(text) {
		if !supported.Has(Placeholder(name)) {
			return name
		}
	}
	return ""
}

// String шаблон сообщения с разрешенными выражениями для каждой подстановки.
// Values содержит только токены, присутствующие в Text.
type String struct {
	Text   string
	Values map[Placeholder]string
}

// Resolve связывает токены шаблона с выражениями.
// Ошибка возвращается, если для присутствующего в тексте токена нет выражения.
func Resolve(text string, values map[Placeholder]string) (String, error) {
	out := String{Text: text, Values: make(map[Placeholder]string)}
	for _, name := range Tokens(text) {
		p := Placeholder(name)
		v, ok := values[p]
		if !ok {
			return String{}, fmt.Errorf("placeholder %s has no resolved value", p.Token())
		}
		out.Values[p] = v
	}
	return out, nil
}

// Keys возвращает подстановки шаблона в порядке появления в тексте
func (s String) Keys() []Placeholder {
	var out []Placeholder
	for _, name := range Tokens(s.Text) {
		if _, ok := s.Values[Placeholder(name)]; ok {
			out = append(out, Placeholder(name))
		}
	}
	return out
}
