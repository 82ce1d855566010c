package validate

import "regexp"

var token = regexp.MustCompile(`\$\{([^{}]*)\}`)

// TemplateString шаблон сообщения об ошибке и значения его подстановок
type TemplateString struct {
	Template     string
	Placeholders map[string]string
}

// Format подставляет значения в шаблон. Токены без значения остаются как есть.
func (t TemplateString) Format() string {
	return token.ReplaceAllStringFunc(t.Template, func(m string) string {
		if v, ok := t.Placeholders[m[2:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

func (t TemplateString) String() string { return t.Format() }
