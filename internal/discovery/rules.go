package discovery

import (
	"errors"
	"regexp"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoval/protoval/internal/diag"
	"github.com/protoval/protoval/internal/ir"
	"github.com/protoval/protoval/internal/numeric"
	"github.com/protoval/protoval/internal/options"
	"github.com/protoval/protoval/internal/schema"
	"github.com/protoval/protoval/internal/tmpl"
)

var (
	rangeSeparator = regexp.MustCompile(`[0-9]\s?\.\.\s?[-+]?[0-9]`)
	identifier     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	requireName    = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// scanner обрабатывает поток событий одного типа
type scanner struct {
	reg     *options.Registry
	diags   *diag.Collector
	legacy  bool
	builder *ir.Builder

	md      protoreflect.MessageDescriptor
	require *requireState
	err     error
}

// requireState данные опции require, накапливаемые по мере обхода полей
type requireState struct {
	view     *ir.RequireType
	names    [][]string
	resolved map[string]protoreflect.FieldDescriptor
}

func (s *scanner) handle(ev Event) {
	if s.err != nil {
		return
	}
	switch ev := ev.(type) {
	case TypeEntered:
		s.enterType(ev)
	case FieldEntered:
		s.enterField(ev)
	case OneofEntered:
		s.enterOneof(ev)
	case TypeExited:
		s.exitType(ev)
	}
}

func (s *scanner) fail(err *diag.Error) { s.diags.Error(err) }

func (s *scanner) warn(w *diag.Warning) { s.diags.Warn(w) }

func (s *scanner) put(v ir.View, d protoreflect.Descriptor) {
	if err := s.builder.Put(v); err != nil {
		var dup *ir.DuplicateError
		if errors.As(err, &dup) {
			s.fail(errDuplicateOption(dup.Kind, d))
			return
		}
		s.err = err
	}
}

// template выбирает текст сообщения и проверяет подстановки
func (s *scanner) template(kind ir.Kind, d protoreflect.Descriptor, custom string) (string, bool) {
	text := custom
	if text == "" {
		text = DefaultTemplate(kind)
	}
	if token := tmpl.Check(text, Supported(kind)); token != "" {
		s.fail(errUnsupportedPlaceholder(kind, d, token, Supported(kind)))
		return "", false
	}
	return text, true
}

func (s *scanner) meta(kind ir.Kind, d protoreflect.Descriptor, order int, template string) ir.Meta {
	return ir.Meta{
		Kind:     kind,
		Subject:  ir.Subject{Name: d.FullName(), Order: order},
		Span:     schema.SpanOf(d),
		Template: template,
	}
}

func (s *scanner) enterType(ev TypeEntered) {
	s.md = ev.Message
	opt, err := s.reg.ReadMessage(ev.Message)
	if err != nil {
		s.err = err
		return
	}
	if opt == nil {
		return
	}
	text, ok := s.template(ir.Require, ev.Message, opt.ErrorMsg)
	if !ok {
		return
	}
	names, ok := parseRequire(opt.Fields)
	if !ok {
		s.fail(errRequireSyntax(ev.Message, opt.Fields))
		return
	}
	view := &ir.RequireType{
		Meta:    s.meta(ir.Require, ev.Message, 0, text),
		Message: ev.Message,
		Expr:    strings.TrimSpace(opt.Fields),
	}
	s.builder.Open(view)
	s.require = &requireState{
		view:     view,
		names:    names,
		resolved: make(map[string]protoreflect.FieldDescriptor),
	}
}

// parseRequire разбирает выражение "a | b & c" в группы имен.
// Пустое выражение дает ноль групп.
func parseRequire(expr string) ([][]string, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, true
	}
	var groups [][]string
	for _, alt := range strings.Split(expr, "|") {
		var group []string
		for _, name := range strings.Split(alt, "&") {
			name = strings.TrimSpace(name)
			if !requireName.MatchString(name) {
				return nil, false
			}
			group = append(group, name)
		}
		groups = append(groups, group)
	}
	return groups, true
}

func (s *scanner) exitType(ev TypeExited) {
	if r := s.require; r != nil {
		r.view.Subject.Order = ev.Order
		complete := true
		for _, names := range r.names {
			group := make([]protoreflect.FieldDescriptor, 0, len(names))
			for _, name := range names {
				fd, ok := r.resolved[name]
				if !ok {
					s.fail(errRequireFieldNotFound(ev.Message, name))
					complete = false
					continue
				}
				group = append(group, fd)
			}
			r.view.Groups = append(r.view.Groups, group)
		}
		if !complete {
			r.view.Groups = nil
		}
		s.require = nil
	}
	if err := s.builder.Close(); err != nil {
		s.err = err
	}
}

func (s *scanner) enterOneof(ev OneofEntered) {
	od := ev.Oneof
	opt, legacy, err := s.reg.ReadOneof(od, s.legacy)
	if err != nil {
		s.err = err
		return
	}
	if opt == nil {
		return
	}
	if od.IsSynthetic() {
		s.fail(errChoiceSynthetic(od))
		return
	}
	if legacy {
		s.warn(warnLegacyRules(od, []string{"required"}))
	}
	if !opt.Required {
		s.warn(warnChoiceNotRequired(od))
		return
	}
	text, ok := s.template(ir.Choice, od, opt.ErrorMsg)
	if !ok {
		return
	}
	s.put(&ir.ChoiceOneof{Meta: s.meta(ir.Choice, od, ev.Order, text), Oneof: od}, od)
}

func (s *scanner) enterField(ev FieldEntered) {
	fd := ev.Field
	if r := s.require; r != nil {
		r.resolved[string(fd.Name())] = fd
	}

	opts, err := s.reg.ReadField(fd, s.legacy)
	if err != nil {
		s.err = err
		return
	}
	if opts.Empty() {
		return
	}
	s.mergeLegacy(fd, &opts)

	if opts.DanglingIfMissing {
		s.warn(warnDanglingErrorMsg(fd, "if_missing", "required"))
	}
	if opts.DanglingIfInvalid {
		s.warn(warnDanglingErrorMsg(fd, "if_invalid", "validate"))
	}

	if opts.Required != nil {
		s.required(ev, opts.Required)
	}
	var lower, upper *ir.Bound
	if opts.Min != nil {
		lower = s.min(ev, opts.Min)
	}
	if opts.Max != nil {
		upper = s.max(ev, opts.Max)
	}
	if lower != nil && upper != nil && lower.Field == nil && upper.Field == nil {
		c := lower.Value.Compare(upper.Value)
		if c > 0 || (c == 0 && (lower.Value.Exclusive() || upper.Value.Exclusive())) {
			s.fail(errMinAboveMax(fd, *lower, *upper))
		}
	}
	if opts.Range != nil {
		s.rangeOption(ev, opts.Range)
	}
	if opts.Pattern != nil {
		s.pattern(ev, opts.Pattern)
	}
	if opts.Goes != nil {
		s.goes(ev, opts.Goes)
	}
	if opts.When != nil {
		s.when(ev, opts.When)
	}
	if opts.Validate != nil {
		s.validate(ev, opts.Validate)
	}
}

// mergeLegacy переносит правила protoc-gen-validate в опции protoval.
// Правило, дублирующее опцию protoval, является ошибкой.
func (s *scanner) mergeLegacy(fd protoreflect.FieldDescriptor, opts *options.Field) {
	l := opts.Legacy
	if l == nil {
		return
	}
	s.warn(warnLegacyRules(fd, l.Rules))
	if l.Min != nil {
		if opts.Min != nil {
			s.fail(errDuplicateOption(ir.Min, fd))
		} else {
			opts.Min = l.Min
		}
	}
	if l.Max != nil {
		if opts.Max != nil {
			s.fail(errDuplicateOption(ir.Max, fd))
		} else {
			opts.Max = l.Max
		}
	}
	if l.Required {
		if opts.Required != nil {
			s.fail(errDuplicateOption(ir.Required, fd))
		} else {
			opts.Required = &options.Required{}
		}
	}
	if l.When != options.TimeUndefined {
		if opts.When != nil {
			s.fail(errDuplicateOption(ir.When, fd))
		} else {
			opts.When = &options.When{In: l.When}
		}
	}
}

func (s *scanner) required(ev FieldEntered, opt *options.Required) {
	fd := ev.Field
	if schema.InRealOneof(fd) {
		s.fail(errRequiredInOneof(fd))
		return
	}
	if schema.ShapeOf(fd) == schema.Singular {
		switch fd.Kind() {
		case protoreflect.StringKind, protoreflect.BytesKind, protoreflect.EnumKind,
			protoreflect.MessageKind, protoreflect.GroupKind:
		default:
			s.fail(errUnsupportedType(ir.Required, fd, kindList("message", "enum", "string", "bytes", "repeated", "map")))
			return
		}
	}
	text, ok := s.template(ir.Required, fd, opt.ErrorMsg)
	if !ok {
		return
	}
	s.put(&ir.RequiredField{Meta: s.meta(ir.Required, fd, ev.Order, text), Field: fd}, fd)
}

// numericKind проверяет применимость числовой опции и возвращает вид поля
func (s *scanner) numericKind(kind ir.Kind, fd protoreflect.FieldDescriptor) (numeric.Kind, bool) {
	if fd.IsMap() {
		s.fail(errUnsupportedShape(kind, fd))
		return 0, false
	}
	nk, ok := numeric.KindOf(fd.Kind())
	if !ok {
		s.fail(errUnsupportedType(kind, fd, "numeric (float, double, int32, int64, uint32, uint64, sint, fixed and sfixed)"))
		return 0, false
	}
	return nk, true
}

// bound разбирает значение min/max: числовой литерал или имя соседнего поля
func (s *scanner) bound(kind ir.Kind, fd protoreflect.FieldDescriptor, nk numeric.Kind, value string, exclusive bool) (ir.Bound, bool) {
	value = strings.TrimSpace(value)
	if identifier.MatchString(value) {
		ref := s.md.Fields().ByName(protoreflect.Name(value))
		switch {
		case ref == nil:
			s.fail(errBoundRefNotFound(kind, fd, value))
			return ir.Bound{}, false
		case ref.Number() == fd.Number():
			s.fail(errBoundSelfReference(kind, fd))
			return ir.Bound{}, false
		}
		rk, ok := numeric.KindOf(ref.Kind())
		if !ok || rk != nk || ref.Cardinality() == protoreflect.Repeated {
			s.fail(errBoundRefKind(kind, fd, ref))
			return ir.Bound{}, false
		}
		return ir.Bound{Value: numeric.Bound{}.WithExclusive(exclusive), Field: ref}, true
	}
	b, err := numeric.Parse(nk, value)
	if err != nil {
		s.fail(numericError(kind, fd, err))
		return ir.Bound{}, false
	}
	if !b.Exact32() {
		s.warn(warnFloatInexact(kind, fd, value))
	}
	return ir.Bound{Value: b.WithExclusive(exclusive)}, true
}

func numericError(kind ir.Kind, fd protoreflect.FieldDescriptor, err error) *diag.Error {
	var re *numeric.RangeError
	if errors.As(err, &re) {
		return errLiteralOutOfRange(kind, fd, err)
	}
	return errMalformedLiteral(kind, fd, err)
}

func (s *scanner) min(ev FieldEntered, opt *options.Min) *ir.Bound {
	fd := ev.Field
	nk, ok := s.numericKind(ir.Min, fd)
	if !ok {
		return nil
	}
	b, ok := s.bound(ir.Min, fd, nk, opt.Value, opt.Exclusive)
	if !ok {
		return nil
	}
	text, ok := s.template(ir.Min, fd, opt.ErrorMsg)
	if !ok {
		return nil
	}
	s.put(&ir.MinField{Meta: s.meta(ir.Min, fd, ev.Order, text), Field: fd, Number: nk, Bound: b}, fd)
	return &b
}

func (s *scanner) max(ev FieldEntered, opt *options.Max) *ir.Bound {
	fd := ev.Field
	nk, ok := s.numericKind(ir.Max, fd)
	if !ok {
		return nil
	}
	b, ok := s.bound(ir.Max, fd, nk, opt.Value, opt.Exclusive)
	if !ok {
		return nil
	}
	text, ok := s.template(ir.Max, fd, opt.ErrorMsg)
	if !ok {
		return nil
	}
	s.put(&ir.MaxField{Meta: s.meta(ir.Max, fd, ev.Order, text), Field: fd, Number: nk, Bound: b}, fd)
	return &b
}

func (s *scanner) rangeOption(ev FieldEntered, opt *options.Range) {
	fd := ev.Field
	nk, ok := s.numericKind(ir.Range, fd)
	if !ok {
		return
	}
	lower, upper, derr := parseRange(fd, nk, opt.Value)
	if derr != nil {
		s.fail(derr)
		return
	}
	for _, b := range []numeric.Bound{lower, upper} {
		if !b.Exact32() {
			s.warn(warnFloatInexact(ir.Range, fd, b.Literal()))
		}
	}
	text, ok := s.template(ir.Range, fd, opt.ErrorMsg)
	if !ok {
		return
	}
	s.put(&ir.RangeField{
		Meta:    s.meta(ir.Range, fd, ev.Order, text),
		Field:   fd,
		Number:  nk,
		Lower:   lower,
		Upper:   upper,
		Literal: strings.TrimSpace(opt.Value),
	}, fd)
}

// parseRange разбирает диапазон вида "[a..b)". Нижняя граница должна быть
// строго меньше верхней, поэтому пустые диапазоны вроде (0..0) отклоняются.
func parseRange(fd protoreflect.FieldDescriptor, nk numeric.Kind, literal string) (lower, upper numeric.Bound, _ *diag.Error) {
	text := strings.TrimSpace(literal)
	loc := rangeSeparator.FindStringIndex(text)
	if loc == nil {
		return lower, upper, errRangeSyntax(fd, literal)
	}
	dots := loc[0] + strings.Index(text[loc[0]:loc[1]], "..")
	left, right := text[:dots], text[dots+2:]
	if left == "" || right == "" {
		return lower, upper, errRangeBrackets(fd, literal)
	}

	var lowerExclusive, upperExclusive bool
	switch left[0] {
	case '[':
	case '(':
		lowerExclusive = true
	default:
		return lower, upper, errRangeBrackets(fd, literal)
	}
	switch right[len(right)-1] {
	case ']':
	case ')':
		upperExclusive = true
	default:
		return lower, upper, errRangeBrackets(fd, literal)
	}

	var err error
	if lower, err = numeric.Parse(nk, strings.TrimSpace(left[1:])); err != nil {
		return lower, upper, numericError(ir.Range, fd, err)
	}
	if upper, err = numeric.Parse(nk, strings.TrimSpace(right[:len(right)-1])); err != nil {
		return lower, upper, numericError(ir.Range, fd, err)
	}
	if lower.Compare(upper) >= 0 {
		return lower, upper, errRangeOrder(fd, lower.String(), upper.String())
	}
	return lower.WithExclusive(lowerExclusive), upper.WithExclusive(upperExclusive), nil
}

func (s *scanner) pattern(ev FieldEntered, opt *options.Pattern) {
	fd := ev.Field
	if fd.IsMap() {
		s.fail(errUnsupportedShape(ir.Pattern, fd))
		return
	}
	if fd.Kind() != protoreflect.StringKind {
		s.fail(errUnsupportedType(ir.Pattern, fd, "string"))
		return
	}
	re, err := regexp.Compile(patternExpr(opt.Regex, opt.Modifier))
	if err != nil {
		s.fail(errInvalidRegex(fd, opt.Regex, err))
		return
	}
	text, ok := s.template(ir.Pattern, fd, opt.ErrorMsg)
	if !ok {
		return
	}
	s.put(&ir.PatternField{
		Meta:     s.meta(ir.Pattern, fd, ev.Order, text),
		Field:    fd,
		Regex:    opt.Regex,
		Modifier: opt.Modifier,
		Compiled: re,
	}, fd)
}

// patternExpr применяет флаги и якорит выражение, если не разрешено частичное совпадение
func patternExpr(regex string, m options.Modifier) string {
	var flags string
	if m.DotAll {
		flags += "s"
	}
	if m.CaseInsensitive {
		flags += "i"
	}
	if m.Multiline {
		flags += "m"
	}
	expr := regex
	if !m.PartialMatch {
		expr = "^(?:" + expr + ")$"
	}
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}
	return expr
}

// goesSupported сообщает, что у поля есть значение по умолчанию, отличимое от заданного.
// bool не поддерживается: false является и значением по умолчанию, и допустимым значением.
func goesSupported(fd protoreflect.FieldDescriptor) bool {
	return schema.Element(fd).Kind() != protoreflect.BoolKind
}

func (s *scanner) goes(ev FieldEntered, opt *options.Goes) {
	fd := ev.Field
	if !goesSupported(fd) {
		s.fail(errUnsupportedType(ir.Goes, fd, kindList("message", "enum", "string", "bytes", "numeric")))
		return
	}
	name := strings.TrimSpace(opt.With)
	companion := s.md.Fields().ByName(protoreflect.Name(name))
	switch {
	case name == string(fd.Name()):
		s.fail(errSelfCompanion(fd))
		return
	case companion == nil:
		s.fail(errCompanionNotFound(fd, name))
		return
	case !goesSupported(companion):
		s.fail(errCompanionUnsupported(fd, companion))
		return
	}
	text, ok := s.template(ir.Goes, fd, opt.ErrorMsg)
	if !ok {
		return
	}

	mutual := false
	if back, err := s.reg.ReadField(companion, false); err == nil && back.Goes != nil {
		mutual = strings.TrimSpace(back.Goes.With) == string(fd.Name())
	}
	s.put(&ir.GoesField{
		Meta:      s.meta(ir.Goes, fd, ev.Order, text),
		Field:     fd,
		Companion: companion,
		Mutual:    mutual,
	}, fd)
}

func (s *scanner) when(ev FieldEntered, opt *options.When) {
	fd := ev.Field
	if fd.IsMap() {
		s.fail(errUnsupportedShape(ir.When, fd))
		return
	}
	if !schema.IsMessage(fd) {
		s.fail(errUnsupportedType(ir.When, fd, kindList("google.protobuf.Timestamp", "messages implementing validate.Temporal")))
		return
	}
	if opt.In == options.TimeUndefined {
		s.warn(warnWhenUndefined(fd))
	}
	text, ok := s.template(ir.When, fd, opt.ErrorMsg)
	if !ok {
		return
	}
	s.put(&ir.WhenField{Meta: s.meta(ir.When, fd, ev.Order, text), Field: fd, In: opt.In}, fd)
}

func (s *scanner) validate(ev FieldEntered, opt *options.Validate) {
	fd := ev.Field
	if !schema.IsMessage(fd) {
		s.fail(errUnsupportedType(ir.Validate, fd, kindList("message", "google.protobuf.Any")))
		return
	}
	text, ok := s.template(ir.Validate, fd, opt.ErrorMsg)
	if !ok {
		return
	}
	s.put(&ir.ValidateField{
		Meta:  s.meta(ir.Validate, fd, ev.Order, text),
		Field: fd,
		Wrap:  opt.ErrorMsg != "",
	}, fd)
}
