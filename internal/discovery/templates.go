package discovery

import (
	"github.com/protoval/protoval/internal/ir"
	"github.com/protoval/protoval/internal/tmpl"
)

// supported подстановки, допустимые в сообщениях каждого вида опции
var supported = map[ir.Kind]tmpl.Set{
	ir.Required: tmpl.NewSet(tmpl.FieldPath, tmpl.FieldName, tmpl.FieldType, tmpl.ParentType),
	ir.Min: tmpl.NewSet(tmpl.FieldPath, tmpl.FieldName, tmpl.FieldValue, tmpl.FieldType, tmpl.ParentType,
		tmpl.MinValue, tmpl.MinOperator),
	ir.Max: tmpl.NewSet(tmpl.FieldPath, tmpl.FieldName, tmpl.FieldValue, tmpl.FieldType, tmpl.ParentType,
		tmpl.MaxValue, tmpl.MaxOperator),
	ir.Range: tmpl.NewSet(tmpl.FieldPath, tmpl.FieldName, tmpl.FieldValue, tmpl.FieldType, tmpl.ParentType,
		tmpl.RangeValue),
	ir.Pattern: tmpl.NewSet(tmpl.FieldPath, tmpl.FieldName, tmpl.FieldValue, tmpl.FieldType, tmpl.ParentType,
		tmpl.RegexPattern, tmpl.RegexModifier),
	ir.Goes: tmpl.NewSet(tmpl.FieldPath, tmpl.FieldName, tmpl.FieldValue, tmpl.FieldType, tmpl.ParentType,
		tmpl.GoesCompanion),
	ir.When: tmpl.NewSet(tmpl.FieldPath, tmpl.FieldName, tmpl.FieldValue, tmpl.FieldType, tmpl.ParentType,
		tmpl.WhenIn),
	ir.Validate: tmpl.NewSet(tmpl.FieldPath, tmpl.FieldName, tmpl.FieldValue, tmpl.FieldType, tmpl.ParentType),
	ir.Choice:   tmpl.NewSet(tmpl.FieldPath, tmpl.ParentType, tmpl.OneofName),
	ir.Require:  tmpl.NewSet(tmpl.ParentType, tmpl.RequireFields),
}

var defaults = map[ir.Kind]string{
	ir.Required: "The field `${parent.type}.${field.name}` of the type `${field.type}` must have a non-default value.",
	ir.Min:      "The field `${parent.type}.${field.name}` must be ${min.operator} ${min.value}. The passed value: `${field.value}`.",
	ir.Max:      "The field `${parent.type}.${field.name}` must be ${max.operator} ${max.value}. The passed value: `${field.value}`.",
	ir.Range:    "The field `${parent.type}.${field.name}` must be within the following range: `${range.value}`. The passed value: `${field.value}`.",
	ir.Pattern:  "The field `${parent.type}.${field.name}` must match the regular expression `${regex.pattern}` (modifiers: [${regex.modifier}]). The passed value: `${field.value}`.",
	ir.Goes:     "The field `${goes.companion}` must also be set when `${field.name}` is set in `${parent.type}`.",
	ir.When:     "The field `${parent.type}.${field.name}` must be in the ${when.in}. The passed value: `${field.value}`.",
	ir.Validate: "The field `${parent.type}.${field.name}` of the type `${field.type}` is invalid. The field value: `${field.value}`.",
	ir.Choice:   "The oneof `${parent.type}.${oneof.name}` must have one of its fields set.",
	ir.Require:  "The message `${parent.type}` must have at least one of the following field groups set: `${require.fields}`.",
}

// Supported возвращает подстановки, допустимые в сообщении вида опции
func Supported(kind ir.Kind) tmpl.Set { return supported[kind] }

// DefaultTemplate возвращает сообщение об ошибке по умолчанию для вида опции
func DefaultTemplate(kind ir.Kind) string { return defaults[kind] }
