// Package protoval содержит объявления опций валидации (options.proto).
//
// Пакет указан в go_package файла options.proto, поэтому код, сгенерированный
// protoc-gen-go для файлов с опциями, импортирует его. Сам файл доступен через
// Source для компиляции без protoc и для выгрузки на include path.
package protoval

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

// ImportPath путь, по которому options.proto импортируется в .proto файлах
const ImportPath = "protoval/options.proto"

//go:embed options.proto
var Source string

// Export записывает options.proto в каталог include так, чтобы его можно было
// импортировать по ImportPath. Возвращает путь к записанному файлу.
func Export(includeDir string) (string, error) {
	path := filepath.Join(includeDir, filepath.FromSlash(ImportPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("os.MkdirAll: %w", err)
	}
	if err := os.WriteFile(path, []byte(Source), 0o644); err != nil {
		return "", fmt.Errorf("os.WriteFile: %w", err)
	}
	return path, nil
}
