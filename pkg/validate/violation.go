// Package validate содержит среду выполнения для кода, который генерирует
// protoc-gen-protoval: записи нарушений, накопитель, ошибку валидации и
// помощники для проверок вложенных сообщений, Any и времени.
//
// Сгенерированные проверки никогда не паникуют и не возвращают ошибку на
// первом нарушении: все нарушения копятся в Accumulator, и только Validate
// или Build превращают непустой список в *ValidationError.
package validate

import (
	"strconv"
	"strings"

	pvpb "buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"buf.build/go/protovalidate"
	"google.golang.org/protobuf/proto"
)

// RuleID идентификатор правила в нарушениях, преобразованных для protovalidate
const RuleID = "protoval"

// Violation одно нарушенное ограничение.
// TypeName и FieldPath указывают поле относительно корневого проверяемого сообщения.
// У нарушений уровня сообщения Violations содержит вложенные нарушения.
type Violation struct {
	Message    TemplateString
	TypeName   string
	FieldPath  FieldPath
	FieldValue any
	Violations []*Violation
}

func (v *Violation) String() string {
	msg := v.Message.Format()
	if len(v.FieldPath) == 0 {
		return msg
	}
	return v.FieldPath.String() + ": " + msg
}

// ValidationError непустой список нарушений
type ValidationError struct {
	Violations []*Violation
}

// Check возвращает *ValidationError, если список нарушений не пуст
func Check(violations []*Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	leaves := flatten(e.Violations)
	parts := make([]string, 0, len(leaves))
	for _, v := range leaves {
		parts = append(parts, v.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// flatten раскрывает вложенные нарушения, сохраняя порядок.
// Нарушение с вложенными сохраняется, если у него есть собственный текст.
func flatten(vs []*Violation) []*Violation {
	var out []*Violation
	for _, v := range vs {
		if len(v.Violations) == 0 || v.Message.Template != "" {
			out = append(out, v)
		}
		out = append(out, flatten(v.Violations)...)
	}
	return out
}

// ToProtovalidate преобразует ошибку в форму protovalidate, чтобы ее можно было
// отдать коду, который уже обрабатывает *protovalidate.ValidationError
func (e *ValidationError) ToProtovalidate() *protovalidate.ValidationError {
	out := &protovalidate.ValidationError{}
	for _, v := range flatten(e.Violations) {
		out.Violations = append(out.Violations, &protovalidate.Violation{
			Proto: &pvpb.Violation{
				Field:   fieldPath(v.FieldPath),
				RuleId:  proto.String(RuleID),
				Message: proto.String(v.Message.Format()),
			},
		})
	}
	return out
}

// fieldPath разбирает сегменты пути вида name, name[3] и name[key]
func fieldPath(p FieldPath) *pvpb.FieldPath {
	if len(p) == 0 {
		return nil
	}
	fp := &pvpb.FieldPath{}
	for _, seg := range p {
		el := &pvpb.FieldPathElement{}
		name, sub, ok := strings.Cut(seg, "[")
		el.FieldName = proto.String(name)
		if ok {
			sub = strings.TrimSuffix(sub, "]")
			if i, err := strconv.ParseUint(sub, 10, 64); err == nil {
				el.Subscript = &pvpb.FieldPathElement_Index{Index: i}
			} else {
				el.Subscript = &pvpb.FieldPathElement_StringKey{StringKey: sub}
			}
		}
		fp.Elements = append(fp.Elements, el)
	}
	return fp
}

// Accumulator собирает нарушения одного сообщения.
// Передается явно в каждую сгенерированную проверку.
type Accumulator struct {
	parent     FieldPath
	typeName   string
	violations []*Violation
}

// NewAccumulator создает накопитель для сообщения typeName, расположенного по
// пути parent внутри сообщения parentType. Для корневого сообщения parentType
// пуст, и нарушения относятся к самому typeName.
func NewAccumulator(parent FieldPath, parentType, typeName string) *Accumulator {
	root := parentType
	if root == "" {
		root = typeName
	}
	return &Accumulator{parent: parent, typeName: root}
}

// Path возвращает путь к полю проверяемого сообщения
func (a *Accumulator) Path(field string) FieldPath { return a.parent.Append(field) }

// Parent возвращает путь к самому проверяемому сообщению
func (a *Accumulator) Parent() FieldPath { return a.parent }

// TypeName возвращает корневой тип, от которого отсчитываются пути нарушений
func (a *Accumulator) TypeName() string { return a.typeName }

// Report записывает нарушение поля
func (a *Accumulator) Report(path FieldPath, value any, template string, placeholders map[string]string) {
	a.violations = append(a.violations, &Violation{
		Message:    TemplateString{Template: template, Placeholders: placeholders},
		TypeName:   a.typeName,
		FieldPath:  path,
		FieldValue: value,
	})
}

// Nested проверяет вложенное сообщение по пути path. Any раскрываются, пока
// известен тип содержимого. Пустой template добавляет нарушения вложенного
// сообщения как есть, иначе они заворачиваются в одно нарушение поля.
func (a *Accumulator) Nested(path FieldPath, msg proto.Message, template string, placeholders map[string]string) {
	inner := Nested(path, a.typeName, msg)
	if len(inner) == 0 {
		return
	}
	if template == "" {
		a.violations = append(a.violations, inner...)
		return
	}
	a.violations = append(a.violations, &Violation{
		Message:    TemplateString{Template: template, Placeholders: placeholders},
		TypeName:   a.typeName,
		FieldPath:  path,
		FieldValue: msg,
		Violations: inner,
	})
}

// Violations возвращает накопленные нарушения в порядке проверок
func (a *Accumulator) Violations() []*Violation { return a.violations }

// Len возвращает число накопленных нарушений
func (a *Accumulator) Len() int { return len(a.violations) }
