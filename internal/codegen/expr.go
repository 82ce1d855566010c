package codegen

import (
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoval/protoval/internal/ir"
	"github.com/protoval/protoval/internal/schema"
	"github.com/protoval/protoval/internal/tmpl"
)

func quote(s string) string { return strconv.Quote(s) }

// access выражение чтения поля через геттер
func access(f *protogen.Field) string {
	return Receiver + ".Get" + f.GoName + "()"
}

// isDefault выражение, истинное, когда поле целиком имеет значение по умолчанию.
// Скалярное поле сравнивается со значением по умолчанию из схемы: в proto2
// геттер незаданного поля возвращает объявленный default, а не ноль.
func (c *Context) isDefault(f *protogen.Field) string {
	expr := access(f)
	fd := f.Desc
	if fd.IsList() || fd.IsMap() {
		return "len(" + expr + ") == 0"
	}
	def := fd.Default()
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return c.Runtime.Validate("IsDefault") + "(" + expr + ")"
	case protoreflect.StringKind:
		return expr + " == " + quote(def.String())
	case protoreflect.BytesKind:
		if len(def.Bytes()) == 0 {
			return "len(" + expr + ") == 0"
		}
		return "string(" + expr + ") == " + quote(string(def.Bytes()))
	case protoreflect.BoolKind:
		if def.Bool() {
			return expr
		}
		return "!" + expr
	case protoreflect.EnumKind:
		return expr + " == " + strconv.FormatInt(int64(def.Enum()), 10)
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return c.floatDefault(expr, def.Float())
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind, protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return expr + " == " + strconv.FormatUint(def.Uint(), 10)
	default:
		return expr + " == " + strconv.FormatInt(def.Int(), 10)
	}
}

// floatDefault сравнение с default для float и double, включая inf и nan
func (c *Context) floatDefault(expr string, def float64) string {
	mathFunc := func(name string) string {
		return c.Runtime.Ident(protogen.GoIdent{GoName: name, GoImportPath: "math"})
	}
	switch {
	case math.IsNaN(def):
		return mathFunc("IsNaN") + "(float64(" + expr + "))"
	case math.IsInf(def, 1):
		return mathFunc("IsInf") + "(float64(" + expr + "), 1)"
	case math.IsInf(def, -1):
		return mathFunc("IsInf") + "(float64(" + expr + "), -1)"
	}
	return expr + " == " + strconv.FormatFloat(def, 'g', -1, 64)
}

// isSet отрицание isDefault
func (c *Context) isSet(f *protogen.Field) string {
	return "!(" + c.isDefault(f) + ")"
}

// elements оборачивает тело в обход значений поля
func (c *Context) elements(f *protogen.Field, body string) (string, error) {
	return executeTemplate(elementTmpl, map[string]any{
		"Shape":      schema.ShapeOf(f.Desc).String(),
		"Access":     access(f),
		"Name":       quote(string(f.Desc.Name())),
		"SortedKeys": c.Runtime.Validate("SortedKeys"),
		"Body":       body,
	})
}

// fieldValues выражения общих подстановок поля
func (c *Context) fieldValues(fd protoreflect.FieldDescriptor, path, value string) map[tmpl.Placeholder]string {
	return map[tmpl.Placeholder]string{
		tmpl.FieldPath:  path + ".String()",
		tmpl.FieldValue: c.Runtime.Validate("Stringify") + "(" + value + ")",
		tmpl.FieldName:  quote(string(fd.Name())),
		tmpl.FieldType:  quote(schema.TypeName(fd)),
		tmpl.ParentType: quote(string(c.Message.Desc.FullName())),
	}
}

// message связывает шаблон представления с выражениями подстановок и
// возвращает литерал шаблона и литерал map подстановок
func message(view ir.View, values map[tmpl.Placeholder]string) (text, placeholders string, err error) {
	ts, err := tmpl.Resolve(view.Base().Template, values)
	if err != nil {
		return "", "", &TemplateError{View: view, Err: err}
	}
	return quote(ts.Text), placeholderMap(ts), nil
}

func placeholderMap(ts tmpl.String) string {
	keys := ts.Keys()
	if len(keys) == 0 {
		return "nil"
	}
	var sb strings.Builder
	sb.WriteString("map[string]string{")
	for i, p := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(string(p)) + ": " + ts.Values[p])
	}
	sb.WriteString("}")
	return sb.String()
}

// report вызов накопителя для нарушения представления
func report(view ir.View, path, value string, values map[tmpl.Placeholder]string) (string, error) {
	text, placeholders, err := message(view, values)
	if err != nil {
		return "", err
	}
	return executeTemplate(reportTmpl, map[string]string{
		"Path":         path,
		"Value":        value,
		"Template":     text,
		"Placeholders": placeholders,
	})
}

// check условие с записью нарушения
func check(cond, reportCall string) (string, error) {
	return executeTemplate(checkTmpl, map[string]string{"Cond": cond, "Report": reportCall})
}

// merge добавляет выражения в map подстановок
func merge(dst map[tmpl.Placeholder]string, extra map[tmpl.Placeholder]string) map[tmpl.Placeholder]string {
	for k, v := range extra {
		dst[k] = v
	}
	return dst
}
