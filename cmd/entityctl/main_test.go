package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	entity "github.com/goliatone/go-entities"
	"github.com/goliatone/go-entities/pkg/botschema"
	"github.com/goliatone/go-entities/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := buildRootCmd(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeBundle(t *testing.T, port int) string {
	t.Helper()
	reg := botschema.MustRegistry()
	tree := botschema.NewMain(reg)
	found, ok := entity.Lookup(tree, "port")
	require.True(t, ok)
	require.NoError(t, found.(*entity.Value).SetValue(port))
	snapshot, err := tree.Export()
	require.NoError(t, err)

	payload, err := json.Marshal(settings.Bundle{Main: &snapshot})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	return path
}

func TestDefaultsPrintsMainSnapshot(t *testing.T) {
	out, err := execute(t, "defaults", "--dir", t.TempDir())
	require.NoError(t, err)

	snapshot, err := entity.ParseSnapshot([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, botschema.TypeMain, snapshot.Type)
}

func TestDefaultsHonoursEnvironmentFormat(t *testing.T) {
	t.Setenv("ENTITYCTL_FORMAT", "yaml")
	out, err := execute(t, "defaults", "counter", "--dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "type: "+botschema.TypeModule)
}

func TestApplySavesBundleAndConfReadsIt(t *testing.T) {
	dir := t.TempDir()
	bundle := writeBundle(t, 4000)

	out, err := execute(t, "apply", bundle, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "saved")
	assert.FileExists(t, filepath.Join(dir, "main.config.json"))

	out, err = execute(t, "conf", "--dir", dir)
	require.NoError(t, err)
	var conf map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &conf))
	assert.EqualValues(t, 4000, conf["port"])

	out, err = execute(t, "validate", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ok      main")
}

func TestApplyRejectsInvalidBundle(t *testing.T) {
	dir := t.TempDir()
	bundle := writeBundle(t, 0)

	out, err := execute(t, "apply", bundle, "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, []string{settings.MainLabel, "Port"}, entity.PathOf(err))
	assert.Contains(t, out, `invalid at ["Main","Port"]`)
	assert.NoFileExists(t, filepath.Join(dir, "main.config.json"))
}

func TestApplyDryRunSavesNothing(t *testing.T) {
	dir := t.TempDir()
	bundle := writeBundle(t, 4000)

	out, err := execute(t, "apply", bundle, "--dry-run", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "bundle is valid")
	assert.NoFileExists(t, filepath.Join(dir, "main.config.json"))
}

func TestValidateReportsStoredFailures(t *testing.T) {
	dir := t.TempDir()
	stored := `{"type":"Main","descriptor":{"port":{"type":"Integer","descriptor":{"descriptor":70000}}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.config.json"), []byte(stored), 0o600))

	out, err := execute(t, "validate", "--dir", dir, "--modules", "counter")
	require.Error(t, err)
	assert.Contains(t, out, `invalid main at ["Main","Port"]`)
	assert.Contains(t, out, "ok      counter")
}

func TestSchemaDescribesMain(t *testing.T) {
	out, err := execute(t, "schema", "--title", "Bot Settings")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	info := doc["info"].(map[string]any)
	assert.Equal(t, "Bot Settings", info["title"])
	assert.Contains(t, doc, "paths")
}

func TestDescribeListsFields(t *testing.T) {
	out, err := execute(t, "describe", "--dir", t.TempDir())
	require.NoError(t, err)

	var fields []entity.FieldDescriptor
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	require.NotEmpty(t, fields)
	assert.Equal(t, botschema.TypeMain, fields[0].Type)
}

func TestEvalRunsExpressionAgainstTree(t *testing.T) {
	out, err := execute(t, "eval", "--dir", t.TempDir(), "port == 3333 && twitch.channel == ''")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = execute(t, "eval", "--dir", t.TempDir(), "--engine", "cel", "--tree", "counter", "enabled")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}
