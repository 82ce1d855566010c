package validate

import (
	"fmt"
	"strings"
)

// FieldPath путь к полю от корневого сообщения, по одному сегменту на поле.
// Элементы списков и map записываются в сегменте поля: tags[1], labels[env].
type FieldPath []string

// Append возвращает новый путь с добавленным полем. Исходный путь не изменяется.
func (p FieldPath) Append(field string) FieldPath {
	out := make(FieldPath, len(p), len(p)+1)
	copy(out, p)
	return append(out, field)
}

// Index возвращает путь к элементу списка, на который указывает последний сегмент
func (p FieldPath) Index(i int) FieldPath {
	return p.subscript(fmt.Sprintf("[%d]", i))
}

// Key возвращает путь к значению map по ключу, на которую указывает последний сегмент
func (p FieldPath) Key(key any) FieldPath {
	return p.subscript(fmt.Sprintf("[%v]", key))
}

func (p FieldPath) subscript(s string) FieldPath {
	if len(p) == 0 {
		return FieldPath{s}
	}
	out := make(FieldPath, len(p))
	copy(out, p)
	out[len(out)-1] += s
	return out
}

func (p FieldPath) String() string { return strings.Join(p, ".") }
