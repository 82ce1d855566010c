package codegen

import (
	"bytes"
	"fmt"
	"text/template"
)

// elementTemplate обходит значения поля: само значение для одиночного поля,
// элементы списка или значения map в порядке ключей. Тело видит v и path.
const elementTemplate = `
{{- if eq .Shape "repeated"}}
for i, v := range {{.Access}} {
	path := acc.Path({{.Name}}).Index(i)
	{{.Body}}
}
{{- else if eq .Shape "map"}}
for _, k := range {{.SortedKeys}}({{.Access}}) {
	v := {{.Access}}[k]
	path := acc.Path({{.Name}}).Key(k)
	{{.Body}}
}
{{- else}}
{
	v := {{.Access}}
	path := acc.Path({{.Name}})
	{{.Body}}
}
{{- end}}`

// checkTemplate записывает нарушение, если условие истинно
const checkTemplate = `if {{.Cond}} {
	{{.Report}}
}`

// nestedTemplate проверяет вложенное сообщение; одиночные поля по умолчанию пропускаются
const nestedTemplate = `
{{- if .SkipDefault}}if !{{.IsDefault}}(v) {
	acc.Nested(path, v, {{.Template}}, {{.Placeholders}})
}
{{- else}}acc.Nested(path, v, {{.Template}}, {{.Placeholders}})
{{- end}}`

// patternDeclTemplate объявление скомпилированного выражения
const patternDeclTemplate = `var {{.Var}} = {{.MustCompile}}({{.Expr}})`

// reportTemplate вызов накопителя для одного нарушения
const reportTemplate = `acc.Report({{.Path}}, {{.Value}}, {{.Template}}, {{.Placeholders}})`

var (
	elementTmpl     = template.Must(template.New("element").Parse(elementTemplate))
	checkTmpl       = template.Must(template.New("check").Parse(checkTemplate))
	nestedTmpl      = template.Must(template.New("nested").Parse(nestedTemplate))
	patternDeclTmpl = template.Must(template.New("patternDecl").Parse(patternDeclTemplate))
	reportTmpl      = template.Must(template.New("report").Parse(reportTemplate))
)

// executeTemplate выполняет шаблон и возвращает результат как строку
func executeTemplate(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
