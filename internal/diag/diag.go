// Package diag содержит диагностики компиляции опций валидации: ошибки,
// прерывающие генерацию для файла, и предупреждения, которые ее не прерывают.
//
// Коды сгруппированы по категориям:
//
//	1xxx  опция неприменима к полю, oneof или сообщению
//	2xxx  параметр опции не разобран
//	3xxx  шаблон сообщения ссылается на неподдерживаемую подстановку
//	4xxx  предупреждения
package diag

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/protoval/protoval/internal/schema"
)

// Category категория диагностики, определяется по коду
type Category int

const (
	Applicability Category = iota + 1
	Parse
	Template
	Advisory
)

func (c Category) String() string {
	switch c {
	case Applicability:
		return "applicability"
	case Parse:
		return "parse"
	case Template:
		return "template"
	case Advisory:
		return "advisory"
	default:
		return "unknown"
	}
}

func categoryOf(code uint32) Category {
	switch code / 1000 {
	case 1:
		return Applicability
	case 2:
		return Parse
	case 3:
		return Template
	default:
		return Advisory
	}
}

// Error фатальная диагностика
type Error struct {
	code    uint32
	message string
	span    schema.Span
}

var _ error = (*Error)(nil)

// NewError создает ошибку с кодом и позицией
func NewError(code uint32, message string, span schema.Span) *Error {
	return &Error{code: code, message: message, span: span}
}

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 { return err.code }

func (err *Error) Message() string { return err.message }

func (err *Error) Span() schema.Span { return err.span }

func (err *Error) Category() Category { return categoryOf(err.code) }

// Warning предупреждение, не прерывающее генерацию
type Warning struct {
	code    uint32
	message string
	span    schema.Span
}

// NewWarning создает предупреждение с кодом и позицией
func NewWarning(code uint32, message string, span schema.Span) *Warning {
	return &Warning{code: code, message: message, span: span}
}

func (w *Warning) String() string {
	return fmt.Sprintf("W%d: %s", w.code, w.message)
}

func (w *Warning) Code() uint32 { return w.code }

func (w *Warning) Message() string { return w.message }

func (w *Warning) Span() schema.Span { return w.span }

// Collector накапливает диагностики. Безопасен для конкурентного использования.
type Collector struct {
	mu       sync.Mutex
	errors   []*Error
	warnings []*Warning
}

// NewCollector создает пустой сборщик
func NewCollector() *Collector {
	return &Collector{}
}

// Error добавляет ошибку
func (c *Collector) Error(err *Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

// Warn добавляет предупреждение
func (c *Collector) Warn(w *Warning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, w)
}

// Errors возвращает ошибки, упорядоченные по позиции и коду
func (c *Collector) Errors() []*Error {
	c.mu.Lock()
	out := append([]*Error(nil), c.errors...)
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		return lessSpanCode(out[i].span, out[i].code, out[j].span, out[j].code)
	})
	return out
}

// Warnings возвращает предупреждения, упорядоченные по позиции и коду
func (c *Collector) Warnings() []*Warning {
	c.mu.Lock()
	out := append([]*Warning(nil), c.warnings...)
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		return lessSpanCode(out[i].span, out[i].code, out[j].span, out[j].code)
	})
	return out
}

// HasErrors сообщает, что накоплена хотя бы одна ошибка
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors) > 0
}

// HasErrorsIn сообщает, что для файла накоплена хотя бы одна ошибка
func (c *Collector) HasErrorsIn(file string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, err := range c.errors {
		if err.span.File == file {
			return true
		}
	}
	return false
}

func lessSpanCode(a schema.Span, ac uint32, b schema.Span, bc uint32) bool {
	if a != b {
		return a.Less(b)
	}
	return ac < bc
}

// Format печатает диагностики в виде "file:line:col: E1001: message"
func Format(w io.Writer, c *Collector) error {
	for _, err := range c.Errors() {
		if _, e := fmt.Fprintf(w, "%s: %s\n", err.span, err.Error()); e != nil {
			return e
		}
	}
	for _, warn := range c.Warnings() {
		if _, e := fmt.Fprintf(w, "%s: %s\n", warn.span, warn.String()); e != nil {
			return e
		}
	}
	return nil
}

// Summary возвращает одну ошибку, описывающую все фатальные диагностики, или nil
func (c *Collector) Summary() error {
	errs := c.Errors()
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s: %w", errs[0].span, errs[0])
	default:
		return fmt.Errorf("%s: %w (and %d more errors)", errs[0].span, errs[0], len(errs)-1)
	}
}
