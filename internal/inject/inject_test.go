package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/compiler/protogen"

	"github.com/protoval/protoval/internal/codegen"
	"github.com/protoval/protoval/internal/ir"
	"github.com/protoval/protoval/internal/sink"
	"github.com/protoval/protoval/internal/testutil"
)

func frag(kind ir.Kind, order int, code string, decls ...string) codegen.Fragment {
	return codegen.Fragment{Kind: kind, Subject: ir.Subject{Name: "fixture.Item.x", Order: order}, Code: code, Decls: decls}
}

func TestOrder(t *testing.T) {
	in := []codegen.Fragment{
		frag(ir.Require, 100, "r"),
		frag(ir.Max, 0, "b"),
		frag(ir.Goes, 1, "c"),
		frag(ir.Min, 0, "a"),
	}
	var got []string
	for _, f := range Order(in) {
		got = append(got, f.Code)
	}
	assert.Equal(t, []string{"a", "b", "c", "r"}, got)
	assert.Equal(t, "r", in[0].Code)
}

var item = protogen.GoIdent{GoName: "Item", GoImportPath: "example.com/fixture"}

func TestInject(t *testing.T) {
	f := sink.NewFile(sink.Options{Package: "fixture"})
	f.DeclareMessage(item, true)

	err := Inject(f, codegen.NewRuntime(nil), Message{
		GoIdent:  item,
		FullName: "fixture.Item",
		Builder:  true,
		Fragments: []codegen.Fragment{
			frag(ir.Pattern, 1, "second()", "var _Item_X_Pattern = regexp.MustCompile(\"x\")"),
			frag(ir.When, 1, ""),
			frag(ir.Min, 0, "first()"),
			frag(ir.Max, 2, "third()", "var _Item_X_Pattern = regexp.MustCompile(\"x\")"),
		},
	})
	require.NoError(t, err)

	got, err := f.Render()
	require.NoError(t, err)

	want := `// Code generated by protoc-gen-protoval. DO NOT EDIT.

package fixture

var _Item_X_Pattern = regexp.MustCompile("x")

// ValidateAt checks Item and returns its violations. Field paths are
// rooted at parent, which is a field of parentType.
func (m *Item) ValidateAt(parent validate.FieldPath, parentType string) []*validate.Violation {
	if m == nil {
		return nil
	}
	acc := validate.NewAccumulator(parent, parentType, "fixture.Item")
	first()
	second()
	third()
	return acc.Violations()
}

// Validate returns an error listing every violation in Item, or nil.
func (m *Item) Validate() error {
	return validate.Check(m.ValidateAt(nil, ""))
}

// ItemBuilder assembles a Item that is validated on Build.
type ItemBuilder struct {
	msg *Item
}

// NewItemBuilder returns a builder for an empty Item.
func NewItemBuilder() *ItemBuilder {
	return &ItemBuilder{msg: &Item{}}
}

// ToBuilder returns a builder initialized with a copy of m.
func (m *Item) ToBuilder() *ItemBuilder {
	if m == nil {
		return NewItemBuilder()
	}
	return &ItemBuilder{msg: proto.Clone(m).(*Item)}
}

// Mutate applies fn to the message under construction.
func (b *ItemBuilder) Mutate(fn func(*Item)) *ItemBuilder {
	fn(b.msg)
	return b
}

// Build returns the Item or the violations found in it.
func (b *ItemBuilder) Build() (*Item, error) {
	if err := b.msg.Validate(); err != nil {
		return nil, err
	}
	return b.msg, nil
}

// BuildPartial returns the Item without validation.
//
//protoval:unvalidated
func (b *ItemBuilder) BuildPartial() *Item {
	return b.msg
}
`
	testutil.ExpectNoDiff(t, want, string(got))
}

func TestInject_WithoutBuilder(t *testing.T) {
	f := sink.NewFile(sink.Options{Package: "fixture"})
	f.DeclareMessage(item, false)
	require.NoError(t, Inject(f, codegen.NewRuntime(nil), Message{GoIdent: item, FullName: "fixture.Item"}))

	got, err := f.Render()
	require.NoError(t, err)
	assert.Contains(t, string(got), "func (m *Item) Validate() error {")
	assert.NotContains(t, string(got), "ItemBuilder")
}

func TestInject_UndeclaredBuilder(t *testing.T) {
	f := sink.NewFile(sink.Options{Package: "fixture"})
	f.DeclareMessage(item, false)
	err := Inject(f, codegen.NewRuntime(nil), Message{GoIdent: item, FullName: "fixture.Item", Builder: true})
	assert.ErrorContains(t, err, "InsertBefore")
}
