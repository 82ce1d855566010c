// Package numeric описывает числовые границы для восьми числовых видов полей
// protobuf, сведенных к шести представлениям: float, double, int32, int64,
// uint32, uint64.
//
// Беззнаковые значения хранятся в битовом представлении знакового типа той же
// ширины (uint32 4294967295 хранится как int32 -1), поэтому сравнивать и
// печатать их можно только через методы Bound, учитывающие вид.
package numeric

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Kind числовой вид границы
type Kind int

const (
	Float Kind = iota + 1
	Double
	Int32
	Int64
	Uint32
	Uint64
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Double:
		return "double"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Floating сообщает, что вид с плавающей точкой
func (k Kind) Floating() bool { return k == Float || k == Double }

// Unsigned сообщает, что вид беззнаковый
func (k Kind) Unsigned() bool { return k == Uint32 || k == Uint64 }

// GoType возвращает Go тип, которым protoc-gen-go представляет поле этого вида
func (k Kind) GoType() string {
	switch k {
	case Float:
		return "float32"
	case Double:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	default:
		return ""
	}
}

// KindOf сводит вид поля protobuf к числовому виду.
// fixed/sfixed/sint виды сравниваются так же, как их int/uint аналоги.
func KindOf(k protoreflect.Kind) (Kind, bool) {
	switch k {
	case protoreflect.FloatKind:
		return Float, true
	case protoreflect.DoubleKind:
		return Double, true
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return Int32, true
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return Int64, true
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return Uint32, true
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return Uint64, true
	default:
		return 0, false
	}
}

var (
	floatLiteral   = regexp.MustCompile(`^[-+]?\d+\.\d+([eE][-+]?\d+)?$`)
	integerLiteral = regexp.MustCompile(`^[-+]?\d+$`)
)

// FormatError литерал не соответствует формату числового вида
type FormatError struct {
	Literal string
	Kind    Kind
}

func (e *FormatError) Error() string {
	if e.Kind.Floating() {
		return fmt.Sprintf("literal %q is not a %s number: expected a value like `1.0` or `-2.5e3`", e.Literal, e.Kind)
	}
	return fmt.Sprintf("literal %q is not a %s number: expected an integer", e.Literal, e.Kind)
}

// RangeError литерал вне диапазона представимых значений вида
type RangeError struct {
	Literal string
	Kind    Kind
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("literal %q is out of range for %s", e.Literal, e.Kind)
}

// Bound числовая граница с флагом исключительности
type Bound struct {
	kind      Kind
	f         float64
	i         int64
	literal   string
	exclusive bool
}

// Parse разбирает литерал границы для поля заданного вида
func Parse(kind Kind, literal string) (Bound, error) {
	b := Bound{kind: kind, literal: literal}
	if kind.Floating() {
		if !floatLiteral.MatchString(literal) {
			return Bound{}, &FormatError{Literal: literal, Kind: kind}
		}
	} else if !integerLiteral.MatchString(literal) {
		return Bound{}, &FormatError{Literal: literal, Kind: kind}
	}

	switch kind {
	case Float, Double:
		bits := 64
		if kind == Float {
			bits = 32
		}
		if _, err := strconv.ParseFloat(literal, bits); err != nil {
			return Bound{}, rangeOrFormat(err, literal, kind)
		}
		v, _ := strconv.ParseFloat(literal, 64)
		if math.IsInf(v, 0) {
			return Bound{}, &RangeError{Literal: literal, Kind: kind}
		}
		b.f = v
	case Int32:
		v, err := strconv.ParseInt(literal, 10, 32)
		if err != nil {
			return Bound{}, rangeOrFormat(err, literal, kind)
		}
		b.i = v
	case Int64:
		v, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return Bound{}, rangeOrFormat(err, literal, kind)
		}
		b.i = v
	case Uint32:
		v, err := parseUnsigned(literal, 32)
		if err != nil {
			return Bound{}, rangeOrFormat(err, literal, kind)
		}
		b.i = int64(int32(uint32(v)))
	case Uint64:
		v, err := parseUnsigned(literal, 64)
		if err != nil {
			return Bound{}, rangeOrFormat(err, literal, kind)
		}
		b.i = int64(v)
	default:
		return Bound{}, fmt.Errorf("numeric: unsupported kind %s", kind)
	}
	return b, nil
}

// MustParse как Parse, но паникует при ошибке. Для констант и тестов.
func MustParse(kind Kind, literal string) Bound {
	b, err := Parse(kind, literal)
	if err != nil {
		panic(err)
	}
	return b
}

// parseUnsigned разбирает беззнаковый литерал в диапазоне 0..2^bits-1.
// Знак "+" допускается, "-" только для нуля.
func parseUnsigned(literal string, bits int) (uint64, error) {
	digits := strings.TrimPrefix(literal, "+")
	if rest, ok := strings.CutPrefix(digits, "-"); ok {
		if strings.Trim(rest, "0") != "" {
			return 0, strconv.ErrRange
		}
		return 0, nil
	}
	return strconv.ParseUint(digits, 10, bits)
}

func rangeOrFormat(err error, literal string, kind Kind) error {
	if errors.Is(err, strconv.ErrRange) {
		return &RangeError{Literal: literal, Kind: kind}
	}
	return &FormatError{Literal: literal, Kind: kind}
}

// Kind возвращает числовой вид границы
func (b Bound) Kind() Kind { return b.kind }

// Exclusive сообщает, что граница не включает свое значение
func (b Bound) Exclusive() bool { return b.exclusive }

// WithExclusive возвращает копию границы с заданным флагом исключительности
func (b Bound) WithExclusive(exclusive bool) Bound {
	b.exclusive = exclusive
	return b
}

// Literal возвращает исходный литерал границы
func (b Bound) Literal() string { return b.literal }

// Bits возвращает целочисленное битовое представление: для беззнаковых видов
// это знаковое значение той же ширины.
func (b Bound) Bits() int64 { return b.i }

// Float64 возвращает значение границы с плавающей точкой
func (b Bound) Float64() float64 { return b.f }

// Compare сравнивает границы одного вида с учетом беззнаковости.
// Сравнение границ разных видов является ошибкой программы.
func (b Bound) Compare(o Bound) int {
	if b.kind != o.kind {
		panic(fmt.Sprintf("numeric: cannot compare %s bound with %s bound", b.kind, o.kind))
	}
	switch b.kind {
	case Float, Double:
		return cmp.Compare(b.f, o.f)
	case Uint32:
		return cmp.Compare(uint32(b.i), uint32(o.i))
	case Uint64:
		return cmp.Compare(uint64(b.i), uint64(o.i))
	default:
		return cmp.Compare(b.i, o.i)
	}
}

// String печатает значение с учетом вида
func (b Bound) String() string {
	switch b.kind {
	case Float, Double:
		s := strconv.FormatFloat(b.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case Uint32:
		return strconv.FormatUint(uint64(uint32(b.i)), 10)
	case Uint64:
		return strconv.FormatUint(uint64(b.i), 10)
	default:
		return strconv.FormatInt(b.i, 10)
	}
}

// GoLiteral возвращает типизированное константное выражение Go, например uint32(4294967295)
func (b Bound) GoLiteral() string {
	return b.kind.GoType() + "(" + b.String() + ")"
}

// Exact32 сообщает, что граница вида float точно представима в float32
func (b Bound) Exact32() bool {
	if b.kind != Float {
		return true
	}
	return float64(float32(b.f)) == b.f
}
