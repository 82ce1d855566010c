// Package testutil содержит помощники тестов: компиляцию .proto фикстур в памяти,
// загрузку ожидаемых диагностик из YAML и сравнение текстов через unified diff.
package testutil

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/reflect/protoreflect"
	"gopkg.in/yaml.v3"

	"github.com/protoval/protoval/internal/compile"
	"github.com/protoval/protoval/internal/diag"
)

// Header заголовок фикстуры: синтаксис, пакет, go_package и импорт опций
const Header = `syntax = "proto3";

package fixture;

import "protoval/options.proto";
import "google/protobuf/any.proto";
import "google/protobuf/timestamp.proto";

option go_package = "example.com/fixture;fixture";
`

// ValidateProto минимальная копия validate/validate.proto из protoc-gen-validate
// с номерами полей оригинала
const ValidateProto = `syntax = "proto2";
package validate;
import "google/protobuf/descriptor.proto";
import "google/protobuf/timestamp.proto";
option go_package = "github.com/envoyproxy/protoc-gen-validate/validate";

extend google.protobuf.MessageOptions { optional bool disabled = 1071; optional bool ignored = 1072; }
extend google.protobuf.OneofOptions { optional bool required = 1071; }
extend google.protobuf.FieldOptions { optional FieldRules rules = 1071; }

message FieldRules {
  optional MessageRules message = 17;
  oneof type {
    FloatRules float = 1;
    UInt32Rules uint32 = 5;
    RepeatedRules repeated = 18;
    TimestampRules timestamp = 22;
  }
}
message FloatRules { optional float const = 1; optional float lt = 2; optional float lte = 3; optional float gt = 4; optional float gte = 5; }
message UInt32Rules { optional uint32 const = 1; optional uint32 lt = 2; optional uint32 lte = 3; optional uint32 gt = 4; optional uint32 gte = 5; }
message MessageRules { optional bool skip = 1; optional bool required = 2; }
message RepeatedRules { optional uint64 min_items = 1; optional uint64 max_items = 2; optional bool unique = 3; optional FieldRules items = 4; }
message TimestampRules { optional bool required = 1; optional google.protobuf.Timestamp const = 2; optional google.protobuf.Timestamp lt = 3; optional google.protobuf.Timestamp lte = 4; optional google.protobuf.Timestamp gt = 5; optional google.protobuf.Timestamp gte = 6; optional bool lt_now = 7; optional bool gt_now = 8; }
`

// sortedKeys возвращает пути фикстур в детерминированном порядке
func sortedKeys(sources map[string]string) []string {
	keys := make([]string, 0, len(sources))
	for k := range sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Compile компилирует фикстуры и возвращает их дескрипторы
func Compile(t testing.TB, sources map[string]string) []protoreflect.FileDescriptor {
	t.Helper()
	files, err := compile.Compile(context.Background(), compile.Request{
		Sources: sources,
		Files:   sortedKeys(sources),
	})
	if err != nil {
		t.Fatalf("compile fixtures: %v", err)
	}
	out := make([]protoreflect.FileDescriptor, 0, len(files))
	for _, f := range files {
		out = append(out, f)
	}
	return out
}

// Plugin компилирует фикстуры и создает protogen.Plugin
func Plugin(t testing.TB, parameter string, sources map[string]string) *protogen.Plugin {
	t.Helper()
	gen, err := compile.Plugin(context.Background(), compile.Request{
		Sources:   sources,
		Files:     sortedKeys(sources),
		Parameter: parameter,
	}, protogen.Options{})
	if err != nil {
		t.Fatalf("plugin from fixtures: %v", err)
	}
	return gen
}

// Case одна фикстура диагностик: исходник и ожидаемые ошибки/предупреждения
type Case struct {
	Name     string     `yaml:"name"`
	Proto    string     `yaml:"proto"`
	Errors   []Expected `yaml:"errors"`
	Warnings []Expected `yaml:"warnings"`
}

// Expected ожидаемая диагностика. Match регулярное выражение для текста.
type Expected struct {
	Code  uint32 `yaml:"code"`
	Line  int    `yaml:"line"`
	Match string `yaml:"match"`
}

// LoadCases читает YAML файл с фикстурами диагностик
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}
	var doc struct {
		Cases []Case `yaml:"cases"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal %s: %w", path, err)
	}
	return doc.Cases, nil
}

// ExpectDiagnostics сравнивает накопленные диагностики с ожидаемыми по коду,
// строке и тексту
func ExpectDiagnostics(t *testing.T, c Case, got *diag.Collector) {
	t.Helper()
	errs := got.Errors()
	var gotErrs []actual
	for _, e := range errs {
		gotErrs = append(gotErrs, actual{e.Code(), e.Span().Line, e.Message()})
	}
	var gotWarns []actual
	for _, w := range got.Warnings() {
		gotWarns = append(gotWarns, actual{w.Code(), w.Span().Line, w.Message()})
	}
	expectList(t, "error", c.Errors, gotErrs)
	expectList(t, "warning", c.Warnings, gotWarns)
}

type actual struct {
	code    uint32
	line    int
	message string
}

func expectList(t *testing.T, kind string, want []Expected, got []actual) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("expected %d %ss, got %d: %v", len(want), kind, len(got), got)
		return
	}
	for i, w := range want {
		g := got[i]
		if w.Code != g.code {
			t.Errorf("%s #%d: code = %d, want %d (%s)", kind, i, g.code, w.Code, g.message)
		}
		if w.Line != 0 && w.Line != g.line {
			t.Errorf("%s #%d: line = %d, want %d (%s)", kind, i, g.line, w.Line, g.message)
		}
		if w.Match != "" && !regexp.MustCompile(w.Match).MatchString(g.message) {
			t.Errorf("%s #%d: message %q does not match %q", kind, i, g.message, w.Match)
		}
	}
}

// ExpectNoDiff выводит unified diff, если тексты различаются
func ExpectNoDiff(t *testing.T, want, got string) {
	t.Helper()
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  5,
	})
	if diff != "" {
		t.Error(diff)
	}
}
