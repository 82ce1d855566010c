package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// TestParse проверяет разбор литералов: формат и диапазон целевого вида.
func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		literal   string
		wantErr   interface{}
		wantValue string
	}{
		{"float ok", Float, "16.5", nil, "16.5"},
		{"float exponent", Double, "-2.5e3", nil, "-2500.0"},
		{"float without fraction", Float, "16", &FormatError{}, ""},
		{"float overflow", Float, "1.0e39", &RangeError{}, ""},
		{"double overflow", Double, "1.0e309", &RangeError{}, ""},
		{"int32 ok", Int32, "-2147483648", nil, "-2147483648"},
		{"int32 plus sign", Int32, "+5", nil, "5"},
		{"int32 overflow", Int32, "2147483648", &RangeError{}, ""},
		{"int32 fraction", Int32, "1.5", &FormatError{}, ""},
		{"int64 ok", Int64, "9223372036854775807", nil, "9223372036854775807"},
		{"int64 overflow", Int64, "9223372036854775808", &RangeError{}, ""},
		{"uint32 max", Uint32, "4294967295", nil, "4294967295"},
		{"uint32 overflow", Uint32, "4294967296", &RangeError{}, ""},
		{"uint32 negative", Uint32, "-1", &RangeError{}, ""},
		{"uint32 negative zero", Uint32, "-0", nil, "0"},
		{"uint64 max", Uint64, "18446744073709551615", nil, "18446744073709551615"},
		{"uint64 overflow", Uint64, "18446744073709551616", &RangeError{}, ""},
		{"garbage", Int64, "ten", &FormatError{}, ""},
		{"empty", Double, "", &FormatError{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Parse(tt.kind, tt.literal)
			switch tt.wantErr.(type) {
			case nil:
				require.NoError(t, err)
				assert.Equal(t, tt.wantValue, b.String())
				assert.Equal(t, tt.literal, b.Literal())
				assert.Equal(t, tt.kind, b.Kind())
			case *FormatError:
				var fe *FormatError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, tt.literal, fe.Literal)
			case *RangeError:
				var re *RangeError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, tt.kind, re.Kind)
			}
		})
	}
}

// TestUnsignedBits проверяет, что беззнаковые значения хранятся в знаковом битовом представлении.
func TestUnsignedBits(t *testing.T) {
	assert.Equal(t, int64(-1), MustParse(Uint32, "4294967295").Bits())
	assert.Equal(t, int64(-1), MustParse(Uint64, "18446744073709551615").Bits())
	assert.Equal(t, int64(-2147483648), MustParse(Uint32, "2147483648").Bits())
}

// TestCompare проверяет сравнение с учетом вида, включая беззнаковые значения с установленным старшим битом.
func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		a, b string
		want int
	}{
		{"int32 less", Int32, "-5", "3", -1},
		{"int64 equal", Int64, "7", "7", 0},
		{"uint32 high bit", Uint32, "4294967295", "1", 1},
		{"uint64 high bit", Uint64, "9223372036854775808", "9223372036854775807", 1},
		{"double", Double, "0.5", "0.25", 1},
		{"float", Float, "-1.0", "1.0", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParse(tt.kind, tt.a).Compare(MustParse(tt.kind, tt.b))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_KindMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustParse(Int32, "1").Compare(MustParse(Uint32, "1"))
	})
}

func TestGoLiteral(t *testing.T) {
	assert.Equal(t, "uint32(4294967295)", MustParse(Uint32, "4294967295").GoLiteral())
	assert.Equal(t, "float32(16.5)", MustParse(Float, "16.5").GoLiteral())
	assert.Equal(t, "float64(2.0)", MustParse(Double, "2.0").GoLiteral())
	assert.Equal(t, "int64(-3)", MustParse(Int64, "-3").GoLiteral())
}

func TestExact32(t *testing.T) {
	assert.True(t, MustParse(Float, "16.5").Exact32())
	assert.False(t, MustParse(Float, "0.1").Exact32())
	assert.True(t, MustParse(Double, "0.1").Exact32())
}

func TestWithExclusive(t *testing.T) {
	b := MustParse(Double, "16.5")
	assert.False(t, b.Exclusive())
	assert.True(t, b.WithExclusive(true).Exclusive())
	assert.False(t, b.Exclusive(), "исходная граница не должна меняться")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		in   protoreflect.Kind
		want Kind
		ok   bool
	}{
		{protoreflect.Sfixed32Kind, Int32, true},
		{protoreflect.Sint64Kind, Int64, true},
		{protoreflect.Fixed32Kind, Uint32, true},
		{protoreflect.Fixed64Kind, Uint64, true},
		{protoreflect.FloatKind, Float, true},
		{protoreflect.StringKind, 0, false},
		{protoreflect.BoolKind, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			got, ok := KindOf(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
