package discovery

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoval/protoval/internal/diag"
	"github.com/protoval/protoval/internal/ir"
	"github.com/protoval/protoval/internal/schema"
)

func warnFloatInexact(kind ir.Kind, fd protoreflect.FieldDescriptor, literal string) *diag.Warning {
	return diag.NewWarning(4001, fmt.Sprintf(
		"The %s value `%s` of the float field `%s` is not exactly representable as float32; the nearest float32 value is used",
		kind, literal, fd.FullName(),
	), schema.SpanOf(fd))
}

func warnLegacyRules(d protoreflect.Descriptor, rules []string) *diag.Warning {
	return diag.NewWarning(4002, fmt.Sprintf(
		"`%s` uses protoc-gen-validate rules (%s); they are compiled as protoval options",
		d.FullName(), strings.Join(rules, ", "),
	), schema.SpanOf(d))
}

func warnWhenUndefined(fd protoreflect.FieldDescriptor) *diag.Warning {
	return diag.NewWarning(4003, fmt.Sprintf(
		"The option %s on `%s` has direction TIME_UNDEFINED and never reports a violation",
		optionName(ir.When), fd.FullName(),
	), schema.SpanOf(fd))
}

func warnChoiceNotRequired(od protoreflect.OneofDescriptor) *diag.Warning {
	return diag.NewWarning(4004, fmt.Sprintf(
		"The option %s on `%s` has required = false and has no effect",
		optionName(ir.Choice), od.FullName(),
	), schema.SpanOf(od))
}

func warnDanglingErrorMsg(fd protoreflect.FieldDescriptor, option, owner string) *diag.Warning {
	return diag.NewWarning(4005, fmt.Sprintf(
		"The option (protoval.%s) on `%s` has no effect without (protoval.%s)",
		option, fd.FullName(), owner,
	), schema.SpanOf(fd))
}
