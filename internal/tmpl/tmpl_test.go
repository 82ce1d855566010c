package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no tokens", "plain text", nil},
		{"single", "value ${field.value}", []string{"field.value"}},
		{"order and duplicates", "${parent.type}.${field.path} ${field.path}", []string{"parent.type", "field.path"}},
		{"unknown kept", "${foo.bar}", []string{"foo.bar"}},
		{"unterminated ignored", "${field.path", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.text))
		})
	}
}

func TestCheck(t *testing.T) {
	supported := NewSet(FieldPath, FieldValue, ParentType, MinValue, MinOperator)

	assert.Empty(t, Check("The field `${parent.type}.${field.path}` must be ${min.operator} ${min.value}.", supported))
	assert.Equal(t, "max.value", Check("${field.path} ${max.value} ${goes.companion}", supported))
	assert.Equal(t, "whatever", Check("${whatever}", supported))
}

func TestResolve(t *testing.T) {
	values := map[Placeholder]string{
		FieldPath:  `acc.Path("age")`,
		FieldValue: `v`,
		MinValue:   `"16"`,
	}

	s, err := Resolve("${field.path} is ${field.value}", values)
	require.NoError(t, err)
	assert.Equal(t, map[Placeholder]string{FieldPath: `acc.Path("age")`, FieldValue: `v`}, s.Values)
	assert.Equal(t, []Placeholder{FieldPath, FieldValue}, s.Keys())

	_, err = Resolve("${field.path} ${max.value}", values)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "${max.value}")
}

func TestSetString(t *testing.T) {
	s := NewSet(MinValue, FieldPath)
	assert.Equal(t, "${field.path}, ${min.value}", s.String())
	assert.True(t, s.Has(FieldPath))
	assert.False(t, s.Has(MaxValue))
}
