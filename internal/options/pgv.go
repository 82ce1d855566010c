package options

import (
	"strconv"
	"strings"

	validate "github.com/envoyproxy/protoc-gen-validate/validate"
)

// Legacy опции, полученные из правил protoc-gen-validate.
// Rules перечисляет исходные правила в виде "int32.gt".
type Legacy struct {
	Min      *Min
	Max      *Max
	Required bool
	When     Time
	Rules    []string
}

func translate(rules *validate.FieldRules) *Legacy {
	l := &Legacy{}
	numeric(l, rules, "")
	if items := rules.GetRepeated().GetItems(); items != nil {
		numeric(l, items, "repeated.items.")
	}
	if rules.GetMessage().GetRequired() {
		l.Required = true
		l.Rules = append(l.Rules, "message.required")
	}
	if ts := rules.GetTimestamp(); ts != nil {
		if ts.GetRequired() {
			l.Required = true
			l.Rules = append(l.Rules, "timestamp.required")
		}
		switch {
		case ts.GetLtNow():
			l.When = Past
			l.Rules = append(l.Rules, "timestamp.lt_now")
		case ts.GetGtNow():
			l.When = Future
			l.Rules = append(l.Rules, "timestamp.gt_now")
		}
	}
	if len(l.Rules) == 0 {
		return nil
	}
	return l
}

func numeric(l *Legacy, rules *validate.FieldRules, prefix string) {
	switch {
	case rules.GetFloat() != nil:
		r := rules.GetFloat()
		bounds(l, prefix+"float", r.Gt, r.Gte, r.Lt, r.Lte, func(v float32) string { return floatLiteral(float64(v), 32) })
	case rules.GetDouble() != nil:
		r := rules.GetDouble()
		bounds(l, prefix+"double", r.Gt, r.Gte, r.Lt, r.Lte, func(v float64) string { return floatLiteral(v, 64) })
	case rules.GetInt32() != nil:
		r := rules.GetInt32()
		bounds(l, prefix+"int32", r.Gt, r.Gte, r.Lt, r.Lte, signed[int32])
	case rules.GetInt64() != nil:
		r := rules.GetInt64()
		bounds(l, prefix+"int64", r.Gt, r.Gte, r.Lt, r.Lte, signed[int64])
	case rules.GetSint32() != nil:
		r := rules.GetSint32()
		bounds(l, prefix+"sint32", r.Gt, r.Gte, r.Lt, r.Lte, signed[int32])
	case rules.GetSint64() != nil:
		r := rules.GetSint64()
		bounds(l, prefix+"sint64", r.Gt, r.Gte, r.Lt, r.Lte, signed[int64])
	case rules.GetSfixed32() != nil:
		r := rules.GetSfixed32()
		bounds(l, prefix+"sfixed32", r.Gt, r.Gte, r.Lt, r.Lte, signed[int32])
	case rules.GetSfixed64() != nil:
		r := rules.GetSfixed64()
		bounds(l, prefix+"sfixed64", r.Gt, r.Gte, r.Lt, r.Lte, signed[int64])
	case rules.GetUint32() != nil:
		r := rules.GetUint32()
		bounds(l, prefix+"uint32", r.Gt, r.Gte, r.Lt, r.Lte, unsigned[uint32])
	case rules.GetUint64() != nil:
		r := rules.GetUint64()
		bounds(l, prefix+"uint64", r.Gt, r.Gte, r.Lt, r.Lte, unsigned[uint64])
	case rules.GetFixed32() != nil:
		r := rules.GetFixed32()
		bounds(l, prefix+"fixed32", r.Gt, r.Gte, r.Lt, r.Lte, unsigned[uint32])
	case rules.GetFixed64() != nil:
		r := rules.GetFixed64()
		bounds(l, prefix+"fixed64", r.Gt, r.Gte, r.Lt, r.Lte, unsigned[uint64])
	}
}

// bounds переводит gt/gte в min, lt/lte в max. Исключающая граница имеет приоритет.
func bounds[T any](l *Legacy, kind string, gt, gte, lt, lte *T, format func(T) string) {
	switch {
	case gt != nil:
		l.Min = &Min{Value: format(*gt), Exclusive: true}
		l.Rules = append(l.Rules, kind+".gt")
	case gte != nil:
		l.Min = &Min{Value: format(*gte)}
		l.Rules = append(l.Rules, kind+".gte")
	}
	switch {
	case lt != nil:
		l.Max = &Max{Value: format(*lt), Exclusive: true}
		l.Rules = append(l.Rules, kind+".lt")
	case lte != nil:
		l.Max = &Max{Value: format(*lte)}
		l.Rules = append(l.Rules, kind+".lte")
	}
}

func signed[T int32 | int64](v T) string { return strconv.FormatInt(int64(v), 10) }

func unsigned[T uint32 | uint64](v T) string { return strconv.FormatUint(uint64(v), 10) }

// floatLiteral печатает число в формате литерала границы: всегда с дробной частью
func floatLiteral(v float64, bits int) string {
	s := strconv.FormatFloat(v, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
