package pipeline

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	gengo "google.golang.org/protobuf/cmd/protoc-gen-go/internal_gengo"

	"github.com/protoval/protoval/internal/compile"
	"github.com/protoval/protoval/internal/testutil"
)

const modulePath = "github.com/protoval/protoval"

// writeModule создает go.mod временного модуля с зависимостями репозитория
// и заменой protoval на рабочую копию
func writeModule(t *testing.T, dir string) {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	require.NoError(t, err)

	mod := strings.Replace(string(data), "module "+modulePath, "module example.com/fixture", 1)
	mod += "\nrequire " + modulePath + " v0.0.0\n\nreplace " + modulePath + " => " + root + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(mod), 0o644))

	if sum, err := os.ReadFile(filepath.Join(root, "go.sum")); err == nil {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "go.sum"), sum, 0o644))
	}
}

// TestRun_GeneratedChecks генерирует protoc-gen-go и protoval код для фикстур
// testdata/runtime во временный модуль и запускает в нем fixture_test.go,
// который проверяет поведение сгенерированных проверок.
func TestRun_GeneratedChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a temporary module")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool is not available")
	}

	dir := filepath.Join("testdata", "runtime")
	sources := make(map[string]string)
	for _, name := range []string{"reading.proto", "legacy.proto"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		sources[name] = string(data)
	}

	gen := testutil.Plugin(t, "paths=source_relative", sources)
	for _, f := range gen.Files {
		if f.Generate {
			gengo.GenerateFile(gen, f)
		}
	}
	res, err := Run(context.Background(), gen, Options{})
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics.Errors())

	files, err := compile.Files(gen)
	require.NoError(t, err)
	for _, name := range []string{"reading.pb.go", "reading.pb.validate.go", "legacy.pb.go", "legacy.pb.validate.go"} {
		require.Contains(t, files, name)
	}

	mod := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(mod, name), []byte(content), 0o644))
	}
	test, err := os.ReadFile(filepath.Join(dir, "fixture_test.go"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(mod, "fixture_test.go"), test, 0o644))
	writeModule(t, mod)

	cmd := exec.Command(goBin, "test", "-count=1", "./...")
	cmd.Dir = mod
	cmd.Env = append(os.Environ(), "GOFLAGS=-mod=mod", "GOWORK=off")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "go test in generated module:\n%s", out)
}
