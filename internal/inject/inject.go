// Package inject вплетает фрагменты проверок типа сообщения в приемник кода:
// метод ValidateAt и Validate на сообщении, вызов проверки в Build строителя
// и пометку BuildPartial.
package inject

import (
	"fmt"
	"sort"
	"strings"

	"google.golang.org/protobuf/compiler/protogen"

	"github.com/protoval/protoval/internal/codegen"
	"github.com/protoval/protoval/internal/sink"
)

// Unvalidated директива метода, возвращающего непроверенное сообщение
const Unvalidated = "//protoval:unvalidated"

// buildCheck оператор, вставляемый перед return в Build
const buildCheck = "if err := b.msg.Validate(); err != nil {\nreturn nil, err\n}"

// Message фрагменты одного типа сообщения
type Message struct {
	GoIdent   protogen.GoIdent
	FullName  string
	Builder   bool
	Fragments []codegen.Fragment
}

// Order упорядочивает фрагменты: субъекты в порядке объявления, внутри
// субъекта по виду опции. Исходный срез не меняется.
func Order(frags []codegen.Fragment) []codegen.Fragment {
	out := make([]codegen.Fragment, len(frags))
	copy(out, frags)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Subject.Order != b.Subject.Order {
			return a.Subject.Order < b.Subject.Order
		}
		return a.Kind < b.Kind
	})
	return out
}

// Inject записывает проверки сообщения в приемник.
// Класс сообщения и, при msg.Builder, класс строителя должны быть объявлены.
func Inject(s sink.Sink, rt *codegen.Runtime, msg Message) error {
	ordered := Order(msg.Fragments)
	ref := sink.ClassRef{Type: msg.GoIdent.GoName}

	seen := make(map[string]bool)
	for _, f := range ordered {
		for _, d := range f.Decls {
			if seen[d] {
				continue
			}
			seen[d] = true
			if err := s.AppendDecl(ref, d); err != nil {
				return fmt.Errorf("AppendDecl: %w", err)
			}
		}
	}

	if err := s.AppendDecl(ref, validateAt(rt, msg, ordered)); err != nil {
		return fmt.Errorf("AppendDecl: %w", err)
	}
	if err := s.AppendDecl(ref, validate(rt, msg)); err != nil {
		return fmt.Errorf("AppendDecl: %w", err)
	}

	if !msg.Builder {
		return nil
	}
	builder := sink.ClassRef{Type: msg.GoIdent.GoName, Builder: true}
	if err := s.InsertBefore(builder, sink.MethodBuild, sink.BuildReturn, buildCheck); err != nil {
		return fmt.Errorf("InsertBefore: %w", err)
	}
	if err := s.AnnotateReturn(builder, sink.MethodBuildPartial, Unvalidated); err != nil {
		return fmt.Errorf("AnnotateReturn: %w", err)
	}
	return nil
}

func validateAt(rt *codegen.Runtime, msg Message, frags []codegen.Fragment) string {
	var sb strings.Builder
	name := msg.GoIdent.GoName
	fmt.Fprintf(&sb, "// ValidateAt checks %s and returns its violations. Field paths are\n", name)
	sb.WriteString("// rooted at parent, which is a field of parentType.\n")
	fmt.Fprintf(&sb, "func (%s *%s) ValidateAt(parent %s, parentType string) []*%s {\n",
		codegen.Receiver, name, rt.Validate("FieldPath"), rt.Validate("Violation"))
	fmt.Fprintf(&sb, "if %s == nil {\nreturn nil\n}\n", codegen.Receiver)
	fmt.Fprintf(&sb, "%s := %s(parent, parentType, %q)\n", codegen.Accumulator, rt.Validate("NewAccumulator"), msg.FullName)
	for _, f := range frags {
		if f.Code == "" {
			continue
		}
		sb.WriteString(f.Code + "\n")
	}
	fmt.Fprintf(&sb, "return %s.Violations()\n}\n", codegen.Accumulator)
	return sb.String()
}

func validate(rt *codegen.Runtime, msg Message) string {
	name := msg.GoIdent.GoName
	return fmt.Sprintf("// Validate returns an error listing every violation in %s, or nil.\n"+
		"func (%s *%s) Validate() error {\nreturn %s(%s.ValidateAt(nil, \"\"))\n}\n",
		name, codegen.Receiver, name, rt.Validate("Check"), codegen.Receiver)
}
