package discovery

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Event событие обхода типа. События одного типа обрабатываются строго по порядку:
// TypeEntered, поля и группы oneof в порядке объявления, TypeExited.
type Event interface {
	event()
}

// TypeEntered начало обхода типа
type TypeEntered struct {
	Message protoreflect.MessageDescriptor
}

// FieldEntered очередное поле типа
type FieldEntered struct {
	Field protoreflect.FieldDescriptor
	Order int
}

// OneofEntered группа oneof. Выдается перед первым полем группы.
type OneofEntered struct {
	Oneof protoreflect.OneofDescriptor
	Order int
}

// TypeExited конец обхода типа
type TypeExited struct {
	Message protoreflect.MessageDescriptor
	Order   int
}

func (TypeEntered) event()  {}
func (FieldEntered) event() {}
func (OneofEntered) event() {}
func (TypeExited) event()   {}

// Events возвращает поток событий обхода типа
func Events(md protoreflect.MessageDescriptor) []Event {
	fields := md.Fields()
	events := make([]Event, 0, fields.Len()+md.Oneofs().Len()+2)
	events = append(events, TypeEntered{Message: md})

	order := 0
	seen := make(map[protoreflect.Name]bool)
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if od := fd.ContainingOneof(); od != nil && !seen[od.Name()] {
			seen[od.Name()] = true
			events = append(events, OneofEntered{Oneof: od, Order: order})
			order++
		}
		events = append(events, FieldEntered{Field: fd, Order: order})
		order++
	}
	return append(events, TypeExited{Message: md, Order: order})
}
