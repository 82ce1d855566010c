// Package options читает опции валидации из дескрипторов.
//
// Опции объявлены в protoval/options.proto. Значения опций могут прийти как
// неизвестные поля (protoc передает плагину сырые байты) или как расширения
// скомпилированного protocompile файла, поэтому сообщение опций каждого
// дескриптора перечитывается с резолвером, знающим расширения protoval и
// правила protoc-gen-validate.
package options

import (
	"context"
	"fmt"
	"sync"

	"github.com/bufbuild/protocompile"
	validate "github.com/envoyproxy/protoc-gen-validate/validate"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/protoval/protoval/pkg/protoval"
)

// Time направление опции when
type Time int32

const (
	TimeUndefined Time = 0
	Past          Time = 1
	Future        Time = 2
)

func (t Time) String() string {
	switch t {
	case Past:
		return "PAST"
	case Future:
		return "FUTURE"
	default:
		return "TIME_UNDEFINED"
	}
}

// Min значение опции min
type Min struct {
	Value     string
	Exclusive bool
	ErrorMsg  string
}

// Max значение опции max
type Max struct {
	Value     string
	Exclusive bool
	ErrorMsg  string
}

// Range значение опции range
type Range struct {
	Value    string
	ErrorMsg string
}

// Goes значение опции goes
type Goes struct {
	With     string
	ErrorMsg string
}

// Modifier флаги регулярного выражения
type Modifier struct {
	DotAll          bool
	CaseInsensitive bool
	Multiline       bool
	PartialMatch    bool
}

// Pattern значение опции pattern
type Pattern struct {
	Regex    string
	Modifier Modifier
	ErrorMsg string
}

// Required опция required вместе с if_missing
type Required struct {
	ErrorMsg string
}

// Validate опция validate вместе с if_invalid
type Validate struct {
	ErrorMsg string
}

// When значение опции when
type When struct {
	In       Time
	ErrorMsg string
}

// Choice значение опции oneof choice
type Choice struct {
	Required bool
	ErrorMsg string
}

// Require значение опции сообщения require
type Require struct {
	Fields   string
	ErrorMsg string
}

// Field опции поля. Nil означает, что опция не задана.
type Field struct {
	Min      *Min
	Max      *Max
	Range    *Range
	Goes     *Goes
	Pattern  *Pattern
	Required *Required
	Validate *Validate
	When     *When

	// IfMissing и IfInvalid заданы без required/validate
	DanglingIfMissing bool
	DanglingIfInvalid bool

	// Legacy правила protoc-gen-validate, переведенные в опции protoval
	Legacy *Legacy
}

// Empty сообщает, что у поля нет ни одной опции
func (f Field) Empty() bool {
	return f.Min == nil && f.Max == nil && f.Range == nil && f.Goes == nil &&
		f.Pattern == nil && f.Required == nil && f.Validate == nil && f.When == nil &&
		!f.DanglingIfMissing && !f.DanglingIfInvalid && f.Legacy == nil
}

// Registry резолвер расширений protoval и protoc-gen-validate
type Registry struct {
	types *protoregistry.Types

	field   map[protoreflect.Name]protoreflect.ExtensionType
	choice  protoreflect.ExtensionType
	require protoreflect.ExtensionType
}

var (
	loadOnce sync.Once
	loaded   *Registry
	loadErr  error
)

// Load компилирует встроенный options.proto и возвращает резолвер расширений.
// Компиляция выполняется один раз на процесс.
func Load() (*Registry, error) {
	loadOnce.Do(func() {
		loaded, loadErr = load(context.Background())
	})
	return loaded, loadErr
}

func load(ctx context.Context) (*Registry, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(Sources()),
		}),
	}
	files, err := compiler.Compile(ctx, protoval.ImportPath)
	if err != nil {
		return nil, fmt.Errorf("compiler.Compile %s: %w", protoval.ImportPath, err)
	}
	if len(files) != 1 {
		return nil, fmt.Errorf("%s: expected one compiled file, got %d", protoval.ImportPath, len(files))
	}
	file := files[0]

	r := &Registry{
		types: new(protoregistry.Types),
		field: make(map[protoreflect.Name]protoreflect.ExtensionType),
	}
	exts := file.Extensions()
	for i := 0; i < exts.Len(); i++ {
		xd := exts.Get(i)
		xt := dynamicpb.NewExtensionType(xd)
		if err := r.types.RegisterExtension(xt); err != nil {
			return nil, fmt.Errorf("RegisterExtension %s: %w", xd.FullName(), err)
		}
		switch xd.ContainingMessage().FullName() {
		case "google.protobuf.FieldOptions":
			r.field[xd.Name()] = xt
		case "google.protobuf.OneofOptions":
			r.choice = xt
		case "google.protobuf.MessageOptions":
			r.require = xt
		}
	}
	for _, xt := range []protoreflect.ExtensionType{validate.E_Rules, validate.E_Required} {
		if err := r.types.RegisterExtension(xt); err != nil {
			return nil, fmt.Errorf("RegisterExtension %s: %w", xt.TypeDescriptor().FullName(), err)
		}
	}
	return r, nil
}

// Sources возвращает исходники встроенных .proto файлов по путям импорта
func Sources() map[string]string {
	return map[string]string{protoval.ImportPath: protoval.Source}
}

// reparse перечитывает сообщение опций в dst с резолвером реестра
func (r *Registry) reparse(opts proto.Message, dst proto.Message) error {
	if opts == nil || !opts.ProtoReflect().IsValid() {
		return nil
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(opts)
	if err != nil {
		return fmt.Errorf("proto.Marshal: %w", err)
	}
	if err := (proto.UnmarshalOptions{Resolver: r.types}).Unmarshal(b, dst); err != nil {
		return fmt.Errorf("proto.Unmarshal: %w", err)
	}
	return nil
}

// ReadField читает опции поля. При legacy=true также переводятся правила
// protoc-gen-validate (validate.rules).
func (r *Registry) ReadField(fd protoreflect.FieldDescriptor, legacy bool) (Field, error) {
	opts := new(descriptorpb.FieldOptions)
	if err := r.reparse(fd.Options(), opts); err != nil {
		return Field{}, fmt.Errorf("%s: %w", fd.FullName(), err)
	}
	m := opts.ProtoReflect()

	var f Field
	if v, ok := r.message(m, "min"); ok {
		f.Min = &Min{Value: str(v, "value"), Exclusive: flag(v, "exclusive"), ErrorMsg: str(v, "error_msg")}
	}
	if v, ok := r.message(m, "max"); ok {
		f.Max = &Max{Value: str(v, "value"), Exclusive: flag(v, "exclusive"), ErrorMsg: str(v, "error_msg")}
	}
	if v, ok := r.message(m, "range"); ok {
		f.Range = &Range{Value: str(v, "value"), ErrorMsg: str(v, "error_msg")}
	}
	if v, ok := r.message(m, "goes"); ok {
		f.Goes = &Goes{With: str(v, "with"), ErrorMsg: str(v, "error_msg")}
	}
	if v, ok := r.message(m, "pattern"); ok {
		p := &Pattern{Regex: str(v, "regex"), ErrorMsg: str(v, "error_msg")}
		if mod, ok := sub(v, "modifier"); ok {
			p.Modifier = Modifier{
				DotAll:          flag(mod, "dot_all"),
				CaseInsensitive: flag(mod, "case_insensitive"),
				Multiline:       flag(mod, "multiline"),
				PartialMatch:    flag(mod, "partial_match"),
			}
		}
		f.Pattern = p
	}
	if v, ok := r.message(m, "when"); ok {
		f.When = &When{In: Time(enum(v, "in")), ErrorMsg: str(v, "error_msg")}
	}

	ifMissing, hasIfMissing := r.message(m, "if_missing")
	if r.flag(m, "required") {
		f.Required = &Required{}
		if hasIfMissing {
			f.Required.ErrorMsg = str(ifMissing, "error_msg")
		}
	} else {
		f.DanglingIfMissing = hasIfMissing
	}

	ifInvalid, hasIfInvalid := r.message(m, "if_invalid")
	if r.flag(m, "validate") {
		f.Validate = &Validate{}
		if hasIfInvalid {
			f.Validate.ErrorMsg = str(ifInvalid, "error_msg")
		}
	} else {
		f.DanglingIfInvalid = hasIfInvalid
	}

	if legacy && proto.HasExtension(opts, validate.E_Rules) {
		if rules, ok := proto.GetExtension(opts, validate.E_Rules).(*validate.FieldRules); ok && rules != nil {
			f.Legacy = translate(rules)
		}
	}
	return f, nil
}

// ReadOneof читает опцию choice группы oneof. При legacy=true также учитывается
// (validate.required) protoc-gen-validate.
func (r *Registry) ReadOneof(od protoreflect.OneofDescriptor, legacy bool) (*Choice, bool, error) {
	opts := new(descriptorpb.OneofOptions)
	if err := r.reparse(od.Options(), opts); err != nil {
		return nil, false, fmt.Errorf("%s: %w", od.FullName(), err)
	}
	m := opts.ProtoReflect()
	if r.choice != nil && m.Has(r.choice.TypeDescriptor()) {
		v := m.Get(r.choice.TypeDescriptor()).Message()
		return &Choice{Required: flag(v, "required"), ErrorMsg: str(v, "error_msg")}, false, nil
	}
	if legacy && proto.HasExtension(opts, validate.E_Required) {
		if required, _ := proto.GetExtension(opts, validate.E_Required).(bool); required {
			return &Choice{Required: true}, true, nil
		}
	}
	return nil, false, nil
}

// ReadMessage читает опцию require сообщения
func (r *Registry) ReadMessage(md protoreflect.MessageDescriptor) (*Require, error) {
	opts := new(descriptorpb.MessageOptions)
	if err := r.reparse(md.Options(), opts); err != nil {
		return nil, fmt.Errorf("%s: %w", md.FullName(), err)
	}
	m := opts.ProtoReflect()
	if r.require == nil || !m.Has(r.require.TypeDescriptor()) {
		return nil, nil
	}
	v := m.Get(r.require.TypeDescriptor()).Message()
	return &Require{Fields: str(v, "fields"), ErrorMsg: str(v, "error_msg")}, nil
}

func (r *Registry) message(m protoreflect.Message, name protoreflect.Name) (protoreflect.Message, bool) {
	xt, ok := r.field[name]
	if !ok || !m.Has(xt.TypeDescriptor()) {
		return nil, false
	}
	return m.Get(xt.TypeDescriptor()).Message(), true
}

func (r *Registry) flag(m protoreflect.Message, name protoreflect.Name) bool {
	xt, ok := r.field[name]
	if !ok || !m.Has(xt.TypeDescriptor()) {
		return false
	}
	return m.Get(xt.TypeDescriptor()).Bool()
}

func str(m protoreflect.Message, name protoreflect.Name) string {
	if fd := m.Descriptor().Fields().ByName(name); fd != nil {
		return m.Get(fd).String()
	}
	return ""
}

func flag(m protoreflect.Message, name protoreflect.Name) bool {
	if fd := m.Descriptor().Fields().ByName(name); fd != nil {
		return m.Get(fd).Bool()
	}
	return false
}

func enum(m protoreflect.Message, name protoreflect.Name) protoreflect.EnumNumber {
	if fd := m.Descriptor().Fields().ByName(name); fd != nil {
		return m.Get(fd).Enum()
	}
	return 0
}

func sub(m protoreflect.Message, name protoreflect.Name) (protoreflect.Message, bool) {
	fd := m.Descriptor().Fields().ByName(name)
	if fd == nil || !m.Has(fd) {
		return nil, false
	}
	return m.Get(fd).Message(), true
}
