package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protoval/protoval/internal/testutil"
)

const valid = testutil.Header + `
message Ticket {
  string code = 1 [(protoval.pattern).regex = "[A-Z]+"];
  int32 seats = 2 [(protoval.range).value = "[1..10]"];
}
`

const invalid = testutil.Header + `
message Ticket {
  int32 seats = 1 [(protoval.range).value = "[10..1]"];
}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func protoDir(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ticket.proto"), []byte(src), 0o600))
	return dir
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "protoval", cmd.Use)
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"version", "check", "generate", "proto"})
}

func TestVersion(t *testing.T) {
	Version = "1.2.3-test"
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3-test")
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", "-I", protoDir(t, valid), "ticket.proto")
	require.NoError(t, err)
	assert.Contains(t, out, "ok 1 file(s), 0 warning(s)")

	out, err = execute(t, "check", "-I", protoDir(t, invalid), "ticket.proto")
	require.Error(t, err)
	assert.Contains(t, out, "ticket.proto:")
}

func TestCheck_Args(t *testing.T) {
	_, err := execute(t, "check")
	assert.Error(t, err)

	_, err = execute(t, "check", "-I", t.TempDir(), "missing.proto")
	assert.ErrorContains(t, err, "compiler.Compile")

	_, err = execute(t, "check", "--log-level", "loud", "-I", protoDir(t, valid), "ticket.proto")
	assert.ErrorContains(t, err, "logger.level")
}

func TestGenerate(t *testing.T) {
	out := t.TempDir()
	stdout, err := execute(t, "generate", "-I", protoDir(t, valid), "--out", out, "ticket.proto")
	require.NoError(t, err)

	path := filepath.Join(out, "ticket.pb.validate.go")
	assert.Contains(t, stdout, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "func (m *Ticket) ValidateAt(")
	assert.Contains(t, string(data), "if v < int32(1) || v > int32(10) {")
}

func TestGenerate_NothingOnErrors(t *testing.T) {
	out := t.TempDir()
	_, err := execute(t, "generate", "-I", protoDir(t, invalid), "--out", out, "ticket.proto")
	require.Error(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProtoExport(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "proto", "export", "--dir", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "protoval", "options.proto")
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
