package validate

import (
	"errors"
	"testing"
	"time"

	"buf.build/go/protovalidate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestFieldPath(t *testing.T) {
	root := FieldPath{"person"}
	child := root.Append("tags")
	assert.Equal(t, "person", root.String())
	assert.Equal(t, "person.tags", child.String())
	assert.Equal(t, "person.tags[2]", child.Index(2).String())
	assert.Equal(t, "person.tags", child.String(), "Index не меняет исходный путь")
	assert.Equal(t, "labels[env]", FieldPath{"labels"}.Key("env").String())
	assert.Equal(t, "", FieldPath(nil).String())
}

func TestTemplateString_Format(t *testing.T) {
	tests := []struct {
		name string
		ts   TemplateString
		want string
	}{
		{
			name: "all resolved",
			ts: TemplateString{
				Template:     "The field `${field.path}` must be ${min.operator} ${min.value}.",
				Placeholders: map[string]string{"field.path": "age", "min.operator": ">=", "min.value": "18"},
			},
			want: "The field `age` must be >= 18.",
		},
		{
			name: "unknown token kept",
			ts:   TemplateString{Template: "${field.path} ${other}", Placeholders: map[string]string{"field.path": "a"}},
			want: "a ${other}",
		},
		{
			name: "repeated token",
			ts:   TemplateString{Template: "${x}${x}", Placeholders: map[string]string{"x": "1"}},
			want: "11",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ts.Format())
		})
	}
}

func registerBadString(t *testing.T) {
	t.Helper()
	Register("google.protobuf.StringValue", func(msg proto.Message, parent FieldPath, parentType string) []*Violation {
		if msg.(*wrapperspb.StringValue).GetValue() != "bad" {
			return nil
		}
		return []*Violation{{
			Message:   TemplateString{Template: "value is bad"},
			TypeName:  parentType,
			FieldPath: parent.Append("value"),
		}}
	})
	t.Cleanup(func() { Register("google.protobuf.StringValue", nil) })
}

func mustAny(t *testing.T, m proto.Message) *anypb.Any {
	t.Helper()
	a, err := anypb.New(m)
	require.NoError(t, err)
	return a
}

func TestUnpackKnown(t *testing.T) {
	_, ok := UnpackKnown(nil)
	assert.False(t, ok)
	_, ok = UnpackKnown(&anypb.Any{})
	assert.False(t, ok, "пустой Any не раскрывается")
	_, ok = UnpackKnown(&anypb.Any{TypeUrl: "type.googleapis.com/unknown.Type", Value: []byte{1}})
	assert.False(t, ok, "неизвестный тип не раскрывается")

	msg, ok := UnpackKnown(mustAny(t, wrapperspb.String("x")))
	require.True(t, ok)
	assert.True(t, proto.Equal(wrapperspb.String("x"), msg))
}

func TestNested(t *testing.T) {
	registerBadString(t)

	assert.Empty(t, Nested(FieldPath{"f"}, "T", wrapperspb.String("good")))
	assert.Len(t, Nested(FieldPath{"f"}, "T", wrapperspb.String("bad")), 1)
	assert.Empty(t, Nested(FieldPath{"f"}, "T", &anypb.Any{}))

	twice := mustAny(t, mustAny(t, wrapperspb.String("bad")))
	vs := Nested(FieldPath{"extra"}, "fixture.Root", twice)
	require.Len(t, vs, 1)
	assert.Equal(t, "extra.value", vs[0].FieldPath.String())
	assert.Equal(t, "fixture.Root", vs[0].TypeName)
}

func TestAccumulator(t *testing.T) {
	registerBadString(t)

	acc := NewAccumulator(nil, "", "fixture.Person")
	assert.Equal(t, "fixture.Person", acc.TypeName())
	acc.Report(acc.Path("age"), int32(-1), "${field.path} is negative", map[string]string{"field.path": "age"})
	acc.Nested(acc.Path("nick"), wrapperspb.String("bad"), "", nil)
	acc.Nested(acc.Path("alias"), wrapperspb.String("bad"), "alias is invalid", nil)
	acc.Nested(acc.Path("ok"), wrapperspb.String("fine"), "never", nil)

	vs := acc.Violations()
	require.Len(t, vs, 3)
	assert.Equal(t, "age: age is negative", vs[0].String())
	assert.Equal(t, int32(-1), vs[0].FieldValue)
	assert.Equal(t, "nick.value", vs[1].FieldPath.String())
	assert.Equal(t, "alias is invalid", vs[2].Message.Format())
	require.Len(t, vs[2].Violations, 1)

	nested := NewAccumulator(FieldPath{"parent"}, "fixture.Root", "fixture.Person")
	assert.Equal(t, "fixture.Root", nested.TypeName())
	assert.Equal(t, "parent.age", nested.Path("age").String())
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(nil))

	err := Check([]*Violation{
		{Message: TemplateString{Template: "first"}, FieldPath: FieldPath{"a"}},
		{
			Message:    TemplateString{Template: "wrapped"},
			FieldPath:  FieldPath{"b"},
			Violations: []*Violation{{Message: TemplateString{Template: "inner"}, FieldPath: FieldPath{"b", "tags[1]"}}},
		},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "validation failed: a: first; b: wrapped; b.tags[1]: inner", err.Error())

	pv := verr.ToProtovalidate()
	var target *protovalidate.ValidationError
	require.True(t, errors.As(error(pv), &target))
	require.Len(t, pv.Violations, 3)
	last := pv.Violations[2].Proto
	assert.Equal(t, "inner", last.GetMessage())
	assert.Equal(t, RuleID, last.GetRuleId())
	els := last.GetField().GetElements()
	require.Len(t, els, 2)
	assert.Equal(t, "tags", els[1].GetFieldName())
	assert.Equal(t, uint64(1), els[1].GetIndex())
}

func TestCompareNow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	Now = func() time.Time { return now }
	t.Cleanup(func() { Now = time.Now })

	assert.Equal(t, -1, CompareNow(timestamppb.New(now.Add(-time.Hour))))
	assert.Equal(t, 0, CompareNow(timestamppb.New(now)))
	assert.Equal(t, 1, CompareNow(timestamppb.New(now.Add(time.Second))))
}

func TestIsDefault(t *testing.T) {
	var nilString *wrapperspb.StringValue
	assert.True(t, IsDefault(nil))
	assert.True(t, IsDefault(nilString))
	assert.True(t, IsDefault(&wrapperspb.StringValue{}))
	assert.False(t, IsDefault(wrapperspb.String("x")))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "abc", Stringify("abc"))
	assert.Equal(t, "0102", Stringify([]byte{1, 2}))
	assert.Equal(t, "0.1", Stringify(float32(0.1)))
	assert.Equal(t, "4294967295", Stringify(uint32(4294967295)))
	assert.Equal(t, "-5", Stringify(int64(-5)))
	var nilString *wrapperspb.StringValue
	assert.Equal(t, "", Stringify(nilString))
	assert.Contains(t, Stringify(wrapperspb.String("x")), `"x"`)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
	assert.Equal(t, []int64{-3, 0, 7}, SortedKeys(map[int64]bool{7: true, -3: true, 0: false}))
	assert.Equal(t, []uint32{1, 4294967295}, SortedKeys(map[uint32]string{4294967295: "", 1: ""}))
	assert.Equal(t, []bool{false, true}, SortedKeys(map[bool]int{true: 1, false: 0}))
}
