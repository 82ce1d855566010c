package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/protoval/protoval/internal/numeric"
	"github.com/protoval/protoval/internal/schema"
)

func typeRef() schema.TypeRef {
	return schema.TypeOf((&timestamppb.Timestamp{}).ProtoReflect().Descriptor())
}

func meta(kind Kind, subject protoreflect.FullName, order int) Meta {
	return Meta{Kind: kind, Subject: Subject{Name: subject, Order: order}}
}

func TestBuilder_PutDuplicate(t *testing.T) {
	b := NewBuilder(typeRef())
	require.NoError(t, b.Put(&MinField{Meta: meta(Min, "x.T.a", 0)}))
	require.NoError(t, b.Put(&MaxField{Meta: meta(Max, "x.T.a", 0)}))

	err := b.Put(&MinField{Meta: meta(Min, "x.T.a", 0)})
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, Min, dup.Kind)
	assert.Equal(t, protoreflect.FullName("x.T.a"), dup.Subject)
	assert.Equal(t, 2, b.Len())
}

func TestBuilder_CloseDropsEmptyPending(t *testing.T) {
	b := NewBuilder(typeRef())
	b.Open(&RequireType{Meta: meta(Require, "x.T", 100), Expr: ""})
	require.NotNil(t, b.Pending())
	require.NoError(t, b.Close())
	assert.Nil(t, b.Pending())
	assert.Equal(t, 0, b.Len())

	b.Open(&RequireType{Meta: meta(Require, "x.T", 100), Expr: "a", Groups: [][]protoreflect.FieldDescriptor{nil}})
	require.NoError(t, b.Close())
	assert.Equal(t, 1, b.Len())
}

func TestMerge_OrderAndLookup(t *testing.T) {
	ref := typeRef()
	b := NewBuilder(ref)
	require.NoError(t, b.Put(&GoesField{Meta: meta(Goes, "x.T.b", 1)}))
	require.NoError(t, b.Put(&MaxField{Meta: meta(Max, "x.T.a", 0)}))
	require.NoError(t, b.Put(&RequiredField{Meta: meta(Required, "x.T.b", 1)}))
	require.NoError(t, b.Put(&MinField{Meta: meta(Min, "x.T.a", 0)}))

	table, err := Merge(b)
	require.NoError(t, err)

	views := table.ForType(ref)
	require.Len(t, views, 4)
	var kinds []Kind
	for _, v := range views {
		kinds = append(kinds, v.Base().Kind)
		assert.Equal(t, ref, v.Base().Type)
	}
	assert.Equal(t, []Kind{Min, Max, Required, Goes}, kinds)

	v, ok := table.Lookup("x.T.b", Goes)
	require.True(t, ok)
	assert.IsType(t, &GoesField{}, v)
	_, ok = table.Lookup("x.T.b", Min)
	assert.False(t, ok)

	assert.Equal(t, []schema.TypeRef{ref}, table.Types())
	assert.Equal(t, 4, table.Len())

	views[0] = nil
	assert.NotNil(t, table.ForType(ref)[0], "таблица не должна меняться через возвращенный срез")
}

func TestMerge_DuplicateType(t *testing.T) {
	_, err := Merge(NewBuilder(typeRef()), NewBuilder(typeRef()))
	assert.Error(t, err)
}

func TestBoundOperator(t *testing.T) {
	b := Bound{Value: numeric.MustParse(numeric.Double, "16.5")}
	assert.Equal(t, ">=", b.Operator(true))
	assert.Equal(t, "<=", b.Operator(false))

	b.Value = b.Value.WithExclusive(true)
	assert.Equal(t, ">", b.Operator(true))
	assert.Equal(t, "<", b.Operator(false))
}

func TestPatternModifierString(t *testing.T) {
	p := &PatternField{}
	assert.Empty(t, p.ModifierString())
	p.Modifier.DotAll = true
	p.Modifier.PartialMatch = true
	assert.Equal(t, "dot_all, partial_match", p.ModifierString())
}
