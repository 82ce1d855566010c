package codegen

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"

	"github.com/protoval/protoval/internal/ir"
	"github.com/protoval/protoval/internal/options"
	"github.com/protoval/protoval/internal/schema"
	"github.com/protoval/protoval/internal/tmpl"
)

// as приводит представление к ожидаемому типу генератора
func as[T ir.View](view ir.View) (T, error) {
	v, ok := view.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected view %T for option %s", view, view.Base().Kind)
	}
	return v, nil
}

func fragment(view ir.View, code string, decls ...string) Fragment {
	m := view.Base()
	return Fragment{Kind: m.Kind, Subject: m.Subject, Code: code, Decls: decls}
}

// fieldPath выражение пути поля текущего сообщения
func fieldPath(f *protogen.Field) string {
	return Accumulator + ".Path(" + quote(string(f.Desc.Name())) + ")"
}

type requiredGenerator struct{}

func (requiredGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.RequiredField](view)
	if err != nil {
		return Fragment{}, err
	}
	f, err := ctx.Field(v.Field)
	if err != nil {
		return Fragment{}, err
	}
	path := fieldPath(f)
	call, err := report(view, path, access(f), ctx.fieldValues(v.Field, path, access(f)))
	if err != nil {
		return Fragment{}, err
	}
	code, err := check(ctx.isDefault(f), call)
	if err != nil {
		return Fragment{}, err
	}
	return fragment(view, code), nil
}

// boundExpr возвращает выражение границы для сравнения и для текста сообщения
func boundExpr(ctx *Context, b ir.Bound) (cmp, text string, err error) {
	if b.Field != nil {
		f, err := ctx.Field(b.Field)
		if err != nil {
			return "", "", err
		}
		return access(f), ctx.Runtime.Validate("Stringify") + "(" + access(f) + ")", nil
	}
	return b.Value.GoLiteral(), quote(b.Value.String()), nil
}

// violates возвращает оператор, при котором значение нарушает границу
func violates(lower, exclusive bool) string {
	switch {
	case lower && exclusive:
		return "<="
	case lower:
		return "<"
	case exclusive:
		return ">="
	default:
		return ">"
	}
}

// boundCheck общий код min и max: сравнение каждого элемента с границей
func boundCheck(ctx *Context, view ir.View, fieldDesc *protogen.Field, b ir.Bound, lower bool) (Fragment, error) {
	cmpExpr, text, err := boundExpr(ctx, b)
	if err != nil {
		return Fragment{}, err
	}
	values := ctx.fieldValues(fieldDesc.Desc, "path", "v")
	if lower {
		merge(values, map[tmpl.Placeholder]string{tmpl.MinValue: text, tmpl.MinOperator: quote(b.Operator(true))})
	} else {
		merge(values, map[tmpl.Placeholder]string{tmpl.MaxValue: text, tmpl.MaxOperator: quote(b.Operator(false))})
	}
	call, err := report(view, "path", "v", values)
	if err != nil {
		return Fragment{}, err
	}
	body, err := check("v "+violates(lower, b.Value.Exclusive())+" "+cmpExpr, call)
	if err != nil {
		return Fragment{}, err
	}
	code, err := ctx.elements(fieldDesc, body)
	if err != nil {
		return Fragment{}, err
	}
	return fragment(view, code), nil
}

type minGenerator struct{}

func (minGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.MinField](view)
	if err != nil {
		return Fragment{}, err
	}
	f, err := ctx.Field(v.Field)
	if err != nil {
		return Fragment{}, err
	}
	return boundCheck(ctx, view, f, v.Bound, true)
}

type maxGenerator struct{}

func (maxGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.MaxField](view)
	if err != nil {
		return Fragment{}, err
	}
	f, err := ctx.Field(v.Field)
	if err != nil {
		return Fragment{}, err
	}
	return boundCheck(ctx, view, f, v.Bound, false)
}

type rangeGenerator struct{}

func (rangeGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.RangeField](view)
	if err != nil {
		return Fragment{}, err
	}
	f, err := ctx.Field(v.Field)
	if err != nil {
		return Fragment{}, err
	}
	values := merge(ctx.fieldValues(v.Field, "path", "v"), map[tmpl.Placeholder]string{
		tmpl.RangeValue: quote(v.Literal),
	})
	call, err := report(view, "path", "v", values)
	if err != nil {
		return Fragment{}, err
	}
	cond := fmt.Sprintf("v %s %s || v %s %s",
		violates(true, v.Lower.Exclusive()), v.Lower.GoLiteral(),
		violates(false, v.Upper.Exclusive()), v.Upper.GoLiteral())
	body, err := check(cond, call)
	if err != nil {
		return Fragment{}, err
	}
	code, err := ctx.elements(f, body)
	if err != nil {
		return Fragment{}, err
	}
	return fragment(view, code), nil
}

type patternGenerator struct{}

// PatternVar имя переменной со скомпилированным выражением поля
func PatternVar(msg *protogen.Message, f *protogen.Field) string {
	return "_" + msg.GoIdent.GoName + "_" + f.GoName + "_Pattern"
}

func (patternGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.PatternField](view)
	if err != nil {
		return Fragment{}, err
	}
	f, err := ctx.Field(v.Field)
	if err != nil {
		return Fragment{}, err
	}
	name := PatternVar(ctx.Message, f)
	decl, err := executeTemplate(patternDeclTmpl, map[string]string{
		"Var":         name,
		"MustCompile": ctx.Runtime.Ident(protogen.GoImportPath("regexp").Ident("MustCompile")),
		"Expr":        quote(v.Expr()),
	})
	if err != nil {
		return Fragment{}, err
	}
	values := merge(ctx.fieldValues(v.Field, "path", "v"), map[tmpl.Placeholder]string{
		tmpl.RegexPattern:  quote(v.Regex),
		tmpl.RegexModifier: quote(v.ModifierString()),
	})
	call, err := report(view, "path", "v", values)
	if err != nil {
		return Fragment{}, err
	}
	body, err := check("!"+name+".MatchString(v)", call)
	if err != nil {
		return Fragment{}, err
	}
	code, err := ctx.elements(f, body)
	if err != nil {
		return Fragment{}, err
	}
	return fragment(view, code, decl), nil
}

type goesGenerator struct{}

// Generate проверяет одно направление связи. Взаимная связь дает по
// представлению на каждое поле, и каждое проверяется независимо.
func (goesGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.GoesField](view)
	if err != nil {
		return Fragment{}, err
	}
	target, err := ctx.Field(v.Field)
	if err != nil {
		return Fragment{}, err
	}
	companion, err := ctx.Field(v.Companion)
	if err != nil {
		return Fragment{}, err
	}
	path := fieldPath(target)
	values := merge(ctx.fieldValues(v.Field, path, access(target)), map[tmpl.Placeholder]string{
		tmpl.GoesCompanion: quote(string(v.Companion.Name())),
	})
	call, err := report(view, path, access(target), values)
	if err != nil {
		return Fragment{}, err
	}
	code, err := check(ctx.isSet(target)+" && "+ctx.isDefault(companion), call)
	if err != nil {
		return Fragment{}, err
	}
	return fragment(view, code), nil
}

type whenGenerator struct{}

func (whenGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.WhenField](view)
	if err != nil {
		return Fragment{}, err
	}
	if v.In == options.TimeUndefined {
		return fragment(view, ""), nil
	}
	f, err := ctx.Field(v.Field)
	if err != nil {
		return Fragment{}, err
	}
	direction := "past"
	if v.In == options.Future {
		direction = "future"
	}
	values := merge(ctx.fieldValues(v.Field, "path", "v"), map[tmpl.Placeholder]string{
		tmpl.WhenIn: quote(direction),
	})
	call, err := report(view, "path", "v", values)
	if err != nil {
		return Fragment{}, err
	}

	var cond string
	if schema.IsTimestamp(v.Field) {
		op := "> 0"
		if v.In == options.Future {
			op = "< 0"
		}
		cond = "v != nil && " + ctx.Runtime.Validate("CompareNow") + "(v) " + op
	} else {
		method := "IsInPast"
		if v.In == options.Future {
			method = "IsInFuture"
		}
		cond = "t, ok := any(v).(" + ctx.Runtime.Validate("Temporal") + "); ok && v != nil && !t." + method + "()"
	}
	body, err := check(cond, call)
	if err != nil {
		return Fragment{}, err
	}
	code, err := ctx.elements(f, body)
	if err != nil {
		return Fragment{}, err
	}
	return fragment(view, code), nil
}

type validateGenerator struct{}

// Generate проверяет вложенные сообщения. Одиночное поле со значением по
// умолчанию считается корректным, элементы списков и map проверяются всегда.
func (validateGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.ValidateField](view)
	if err != nil {
		return Fragment{}, err
	}
	f, err := ctx.Field(v.Field)
	if err != nil {
		return Fragment{}, err
	}
	text, placeholders := `""`, "nil"
	resolvedText, resolvedPlaceholders, err := message(view, ctx.fieldValues(v.Field, "path", "v"))
	if err != nil {
		return Fragment{}, err
	}
	if v.Wrap {
		text, placeholders = resolvedText, resolvedPlaceholders
	}
	body, err := executeTemplate(nestedTmpl, map[string]any{
		"SkipDefault":  schema.ShapeOf(v.Field) == schema.Singular,
		"IsDefault":    ctx.Runtime.Validate("IsDefault"),
		"Template":     text,
		"Placeholders": placeholders,
	})
	if err != nil {
		return Fragment{}, err
	}
	code, err := ctx.elements(f, body)
	if err != nil {
		return Fragment{}, err
	}
	return fragment(view, code), nil
}

type choiceGenerator struct{}

func (choiceGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.ChoiceOneof](view)
	if err != nil {
		return Fragment{}, err
	}
	o, err := ctx.Oneof(v.Oneof)
	if err != nil {
		return Fragment{}, err
	}
	path := Accumulator + ".Path(" + quote(string(v.Oneof.Name())) + ")"
	call, err := report(view, path, "nil", map[tmpl.Placeholder]string{
		tmpl.FieldPath:  path + ".String()",
		tmpl.ParentType: quote(string(ctx.Message.Desc.FullName())),
		tmpl.OneofName:  quote(string(v.Oneof.Name())),
	})
	if err != nil {
		return Fragment{}, err
	}
	code, err := check(Receiver+"."+o.GoName+" == nil", call)
	if err != nil {
		return Fragment{}, err
	}
	return fragment(view, code), nil
}

type requireGenerator struct{}

func (requireGenerator) Generate(ctx *Context, view ir.View) (Fragment, error) {
	v, err := as[*ir.RequireType](view)
	if err != nil {
		return Fragment{}, err
	}
	alternatives := make([]string, 0, len(v.Groups))
	for _, group := range v.Groups {
		conds := make([]string, 0, len(group))
		for _, fd := range group {
			f, err := ctx.Field(fd)
			if err != nil {
				return Fragment{}, err
			}
			conds = append(conds, ctx.isSet(f))
		}
		alternatives = append(alternatives, "("+strings.Join(conds, " && ")+")")
	}
	call, err := report(view, Accumulator+".Parent()", "nil", map[tmpl.Placeholder]string{
		tmpl.ParentType:    quote(string(ctx.Message.Desc.FullName())),
		tmpl.RequireFields: quote(v.Expr),
	})
	if err != nil {
		return Fragment{}, err
	}
	code, err := check("!("+strings.Join(alternatives, " || ")+")", call)
	if err != nil {
		return Fragment{}, err
	}
	return fragment(view, code), nil
}
