package discovery

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoval/protoval/internal/diag"
	"github.com/protoval/protoval/internal/ir"
	"github.com/protoval/protoval/internal/schema"
	"github.com/protoval/protoval/internal/tmpl"
)

func optionName(kind ir.Kind) string {
	return "(protoval." + kind.String() + ")"
}

func errUnsupportedType(kind ir.Kind, fd protoreflect.FieldDescriptor, supported string) *diag.Error {
	return diag.NewError(1001, fmt.Sprintf(
		"The option %s is not applicable to the field `%s` of type `%s`; supported types: %s",
		optionName(kind), fd.FullName(), schema.TypeName(fd), supported,
	), schema.SpanOf(fd))
}

func errUnsupportedShape(kind ir.Kind, fd protoreflect.FieldDescriptor) *diag.Error {
	return diag.NewError(1002, fmt.Sprintf(
		"The option %s is not applicable to the %s field `%s`",
		optionName(kind), schema.ShapeOf(fd), fd.FullName(),
	), schema.SpanOf(fd))
}

func errSelfCompanion(fd protoreflect.FieldDescriptor) *diag.Error {
	return diag.NewError(1003, fmt.Sprintf(
		"The field `%s` cannot be declared as its own companion in %s",
		fd.FullName(), optionName(ir.Goes),
	), schema.SpanOf(fd))
}

func errCompanionNotFound(fd protoreflect.FieldDescriptor, name string) *diag.Error {
	return diag.NewError(1004, fmt.Sprintf(
		"The companion field `%s` referenced by `%s` does not exist in `%s`",
		name, fd.FullName(), fd.Parent().FullName(),
	), schema.SpanOf(fd))
}

func errCompanionUnsupported(fd, companion protoreflect.FieldDescriptor) *diag.Error {
	return diag.NewError(1005, fmt.Sprintf(
		"The companion field `%s` of `%s` has unsupported type `%s`",
		companion.FullName(), fd.FullName(), schema.TypeName(companion),
	), schema.SpanOf(fd))
}

func errChoiceSynthetic(od protoreflect.OneofDescriptor) *diag.Error {
	return diag.NewError(1006, fmt.Sprintf(
		"The option %s is not applicable to the synthetic oneof `%s` of a proto3 optional field",
		optionName(ir.Choice), od.FullName(),
	), schema.SpanOf(od))
}

func errBoundRefNotFound(kind ir.Kind, fd protoreflect.FieldDescriptor, name string) *diag.Error {
	return diag.NewError(1007, fmt.Sprintf(
		"The field `%s` referenced as the %s bound of `%s` does not exist",
		name, kind, fd.FullName(),
	), schema.SpanOf(fd))
}

func errBoundRefKind(kind ir.Kind, fd, ref protoreflect.FieldDescriptor) *diag.Error {
	return diag.NewError(1008, fmt.Sprintf(
		"The field `%s` referenced as the %s bound of `%s` must be a singular `%s` field, got %s `%s`",
		ref.FullName(), kind, fd.FullName(), schema.TypeName(fd), schema.ShapeOf(ref), schema.TypeName(ref),
	), schema.SpanOf(fd))
}

func errRequiredInOneof(fd protoreflect.FieldDescriptor) *diag.Error {
	return diag.NewError(1009, fmt.Sprintf(
		"The option %s is not applicable to the field `%s` of the oneof `%s`; use %s on the oneof instead",
		optionName(ir.Required), fd.FullName(), fd.ContainingOneof().Name(), optionName(ir.Choice),
	), schema.SpanOf(fd))
}

func errRequireFieldNotFound(md protoreflect.MessageDescriptor, name string) *diag.Error {
	return diag.NewError(1010, fmt.Sprintf(
		"The field `%s` named in %s does not exist in `%s`",
		name, optionName(ir.Require), md.FullName(),
	), schema.SpanOf(md))
}

func errDuplicateOption(kind ir.Kind, d protoreflect.Descriptor) *diag.Error {
	return diag.NewError(1011, fmt.Sprintf(
		"The option %s is declared more than once on `%s`",
		optionName(kind), d.FullName(),
	), schema.SpanOf(d))
}

func errBoundSelfReference(kind ir.Kind, fd protoreflect.FieldDescriptor) *diag.Error {
	return diag.NewError(1012, fmt.Sprintf(
		"The field `%s` cannot use itself as its %s bound",
		fd.FullName(), kind,
	), schema.SpanOf(fd))
}

func errMalformedLiteral(kind ir.Kind, fd protoreflect.FieldDescriptor, err error) *diag.Error {
	return diag.NewError(2001, fmt.Sprintf(
		"The %s value of the field `%s` is malformed: %v",
		kind, fd.FullName(), err,
	), schema.SpanOf(fd))
}

func errLiteralOutOfRange(kind ir.Kind, fd protoreflect.FieldDescriptor, err error) *diag.Error {
	return diag.NewError(2002, fmt.Sprintf(
		"The %s value of the field `%s` is out of range: %v",
		kind, fd.FullName(), err,
	), schema.SpanOf(fd))
}

func errRangeSyntax(fd protoreflect.FieldDescriptor, literal string) *diag.Error {
	return diag.NewError(2003, fmt.Sprintf(
		"The range `%s` of the field `%s` has no `..` separator between two numbers; expected e.g. `[0..10)`",
		literal, fd.FullName(),
	), schema.SpanOf(fd))
}

func errRangeBrackets(fd protoreflect.FieldDescriptor, literal string) *diag.Error {
	return diag.NewError(2004, fmt.Sprintf(
		"The range `%s` of the field `%s` must start with `[` or `(` and end with `]` or `)`",
		literal, fd.FullName(),
	), schema.SpanOf(fd))
}

func errRangeOrder(fd protoreflect.FieldDescriptor, lower, upper string) *diag.Error {
	return diag.NewError(2005, fmt.Sprintf(
		"The lower bound `%s` of the range of the field `%s` must be less than the upper bound `%s`",
		lower, fd.FullName(), upper,
	), schema.SpanOf(fd))
}

func errInvalidRegex(fd protoreflect.FieldDescriptor, regex string, err error) *diag.Error {
	return diag.NewError(2006, fmt.Sprintf(
		"The regular expression `%s` of the field `%s` does not compile: %v",
		regex, fd.FullName(), err,
	), schema.SpanOf(fd))
}

func errRequireSyntax(md protoreflect.MessageDescriptor, expr string) *diag.Error {
	return diag.NewError(2007, fmt.Sprintf(
		"The expression `%s` of %s in `%s` is malformed; expected field names joined by `&` and separated by `|`",
		expr, optionName(ir.Require), md.FullName(),
	), schema.SpanOf(md))
}

func errMinAboveMax(fd protoreflect.FieldDescriptor, lower, upper ir.Bound) *diag.Error {
	return diag.NewError(2008, fmt.Sprintf(
		"No value of the field `%s` can be %s %s and %s %s at the same time",
		fd.FullName(), lower.Operator(true), lower.Value, upper.Operator(false), upper.Value,
	), schema.SpanOf(fd))
}

func errUnsupportedPlaceholder(kind ir.Kind, d protoreflect.Descriptor, token string, supported tmpl.Set) *diag.Error {
	return diag.NewError(3001, fmt.Sprintf(
		"The error message of %s on `%s` uses unsupported placeholder `${%s}`; supported placeholders: %s",
		optionName(kind), d.FullName(), token, supported,
	), schema.SpanOf(d))
}

func kindList(kinds ...string) string {
	return strings.Join(kinds, ", ")
}
