package validate

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Validatable сообщение со сгенерированными проверками
type Validatable interface {
	proto.Message
	// ValidateAt проверяет сообщение, расположенное по пути parent внутри
	// сообщения parentType. Для корневого сообщения оба аргумента пусты.
	ValidateAt(parent FieldPath, parentType string) []*Violation
}

// Temporal значение, которое само знает, находится ли оно в прошлом или будущем
type Temporal interface {
	IsInPast() bool
	IsInFuture() bool
}

// KnownTypes реестр типов, по которому раскрываются Any
var KnownTypes protoregistry.MessageTypeResolver = protoregistry.GlobalTypes

// Now источник текущего времени для проверок when
var Now = time.Now

// IsDefault сообщает, что сообщение не задано или равно значению по умолчанию
func IsDefault(msg proto.Message) bool {
	if msg == nil || !msg.ProtoReflect().IsValid() {
		return true
	}
	return proto.Size(msg) == 0
}

// UnpackKnown раскрывает Any, если он задан и тип его содержимого известен
// KnownTypes. Пустой Any и неизвестный type URL не раскрываются.
func UnpackKnown(a *anypb.Any) (proto.Message, bool) {
	if IsDefault(a) {
		return nil, false
	}
	mt, err := KnownTypes.FindMessageByURL(a.GetTypeUrl())
	if err != nil {
		return nil, false
	}
	msg := mt.New().Interface()
	if err := proto.Unmarshal(a.GetValue(), msg); err != nil {
		return nil, false
	}
	return msg, true
}

// Nested проверяет вложенное сообщение, если оно реализует Validatable.
// Вложенные друг в друга Any раскрываются до первого не-Any сообщения.
func Nested(path FieldPath, parentType string, msg proto.Message) []*Violation {
	for {
		a, ok := msg.(*anypb.Any)
		if !ok {
			break
		}
		inner, ok := UnpackKnown(a)
		if !ok {
			return nil
		}
		msg = inner
	}
	if v, ok := msg.(Validatable); ok {
		return v.ValidateAt(path, parentType)
	}
	if msg == nil {
		return nil
	}
	if fn := lookup(msg.ProtoReflect().Descriptor().FullName()); fn != nil {
		return fn(msg, path, parentType)
	}
	return nil
}

// Func проверка сообщения, для которого нет сгенерированного кода
type Func func(msg proto.Message, parent FieldPath, parentType string) []*Violation

var (
	funcsMu sync.RWMutex
	funcs   = make(map[protoreflect.FullName]Func)
)

// Register задает проверку для типа сообщения без сгенерированного кода,
// например для типов из чужих пакетов. Повторная регистрация заменяет функцию.
func Register(name protoreflect.FullName, fn Func) {
	funcsMu.Lock()
	defer funcsMu.Unlock()
	if fn == nil {
		delete(funcs, name)
		return
	}
	funcs[name] = fn
}

func lookup(name protoreflect.FullName) Func {
	funcsMu.RLock()
	defer funcsMu.RUnlock()
	return funcs[name]
}

// CompareNow сравнивает метку времени с Now: -1 в прошлом, 0 сейчас, +1 в будущем
func CompareNow(ts *timestamppb.Timestamp) int {
	return ts.AsTime().Compare(Now())
}

// Stringify печатает значение поля для подстановки ${field.value}
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return fmt.Sprintf("%x", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case proto.Message:
		if !v.ProtoReflect().IsValid() {
			return ""
		}
		return prototext.MarshalOptions{}.Format(v)
	default:
		return fmt.Sprint(v)
	}
}

// SortedKeys возвращает ключи map в детерминированном порядке, чтобы
// повторная проверка давала тот же список нарушений
func SortedKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b K) int { return compareKeys(a, b) })
	return keys
}

func compareKeys(a, b any) int {
	switch a := a.(type) {
	case string:
		return cmp.Compare(a, b.(string))
	case int32:
		return cmp.Compare(a, b.(int32))
	case int64:
		return cmp.Compare(a, b.(int64))
	case uint32:
		return cmp.Compare(a, b.(uint32))
	case uint64:
		return cmp.Compare(a, b.(uint64))
	case bool:
		switch {
		case a == b.(bool):
			return 0
		case a:
			return 1
		default:
			return -1
		}
	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}
