package ir

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoval/protoval/internal/schema"
)

type key struct {
	subject protoreflect.FullName
	kind    Kind
}

// DuplicateError второе представление для той же пары (субъект, вид)
type DuplicateError struct {
	Subject protoreflect.FullName
	Kind    Kind
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("option %s is declared more than once on %s", e.Kind, e.Subject)
}

// Accumulating представление уровня типа, которое наполняется по мере обхода полей
type Accumulating interface {
	View
	// Empty сообщает, что за время обхода не было записано ни одного значения
	Empty() bool
}

// Empty сообщает, что ни одна группа полей не была разрешена
func (r *RequireType) Empty() bool { return len(r.Groups) == 0 }

// Builder собирает представления одного типа на этапе обнаружения.
// Не безопасен для конкурентного использования: один Builder на тип.
type Builder struct {
	typ     schema.TypeRef
	views   map[key]View
	pending Accumulating
}

// NewBuilder создает Builder для типа
func NewBuilder(typ schema.TypeRef) *Builder {
	return &Builder{typ: typ, views: make(map[key]View)}
}

// Type возвращает тип, для которого собираются представления
func (b *Builder) Type() schema.TypeRef { return b.typ }

// Put добавляет представление. Второе представление для той же пары
// (субъект, вид) отклоняется с *DuplicateError.
func (b *Builder) Put(v View) error {
	m := v.Base()
	k := key{subject: m.Subject.Name, kind: m.Kind}
	if _, ok := b.views[k]; ok {
		return &DuplicateError{Subject: k.subject, Kind: k.kind}
	}
	m.Type = b.typ
	b.views[k] = v
	return nil
}

// Open открывает накапливаемое представление уровня типа
func (b *Builder) Open(v Accumulating) {
	b.pending = v
}

// Pending возвращает открытое накапливаемое представление или nil
func (b *Builder) Pending() Accumulating { return b.pending }

// Close завершает обход типа: накапливаемое представление сохраняется, только
// если в него были записаны данные, иначе отбрасывается.
func (b *Builder) Close() error {
	v := b.pending
	b.pending = nil
	if v == nil || v.Empty() {
		return nil
	}
	return b.Put(v)
}

// Len возвращает число сохраненных представлений
func (b *Builder) Len() int { return len(b.views) }

// TypeViews представления одного типа в порядке проверок
type TypeViews []View

// Table неизменяемый снимок всех представлений, собранных на этапе обнаружения
type Table struct {
	byType map[protoreflect.FullName]TypeViews
	byKey  map[key]View
	types  []schema.TypeRef
}

// Merge объединяет представления всех типов в таблицу.
// Один и тот же тип не может быть собран дважды.
func Merge(builders ...*Builder) (*Table, error) {
	t := &Table{
		byType: make(map[protoreflect.FullName]TypeViews, len(builders)),
		byKey:  make(map[key]View),
	}
	for _, b := range builders {
		name := b.typ.Name()
		if _, ok := t.byType[name]; ok {
			return nil, fmt.Errorf("type %s discovered more than once", name)
		}
		views := make(TypeViews, 0, len(b.views))
		for k, v := range b.views {
			views = append(views, v)
			t.byKey[k] = v
		}
		sort.Slice(views, func(i, j int) bool {
			a, c := views[i].Base(), views[j].Base()
			if a.Subject.Order != c.Subject.Order {
				return a.Subject.Order < c.Subject.Order
			}
			return a.Kind < c.Kind
		})
		t.byType[name] = views
		t.types = append(t.types, b.typ)
	}
	sort.Slice(t.types, func(i, j int) bool { return t.types[i].Name() < t.types[j].Name() })
	return t, nil
}

// ForType возвращает представления типа в порядке проверок: по порядку
// субъектов в объявлении, затем по виду опции.
func (t *Table) ForType(ref schema.TypeRef) TypeViews {
	views := t.byType[ref.Name()]
	return append(TypeViews(nil), views...)
}

// Lookup возвращает представление по субъекту и виду
func (t *Table) Lookup(subject protoreflect.FullName, kind Kind) (View, bool) {
	v, ok := t.byKey[key{subject: subject, kind: kind}]
	return v, ok
}

// Types возвращает типы таблицы в алфавитном порядке
func (t *Table) Types() []schema.TypeRef {
	return append([]schema.TypeRef(nil), t.types...)
}

// Len возвращает общее число представлений
func (t *Table) Len() int { return len(t.byKey) }
