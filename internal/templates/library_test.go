package templates

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/llm-code/internal/chat"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLibraryAddGetRemove(t *testing.T) {
	library := NewLibrary()
	tmpl := mustNew(t, "greeting", chat.RoleSystem, "Hello, World!")

	require.NoError(t, library.Add(tmpl))
	got, err := library.Get("greeting")
	require.NoError(t, err)
	assert.Same(t, tmpl, got)
	assert.True(t, library.Has("greeting"))
	assert.Equal(t, 1, library.Len())

	assert.True(t, library.Remove("greeting"))
	assert.False(t, library.Remove("greeting"))

	_, err = library.Get("greeting")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestLibraryAddUnnamed(t *testing.T) {
	library := NewLibrary()
	err := library.Add(mustNew(t, "", chat.RoleUser, "x"))
	assert.ErrorIs(t, err, ErrUnnamedTemplate)
	assert.Zero(t, library.Len())
}

func TestLibraryAddReplaces(t *testing.T) {
	library := NewLibrary()
	require.NoError(t, library.Add(mustNew(t, "a", chat.RoleUser, "first")))
	require.NoError(t, library.Add(mustNew(t, "a", chat.RoleUser, "second")))

	got, err := library.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Content())
	assert.Equal(t, []string{"a"}, library.Names())
}

func TestLoadFromPathMissing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "non_existent"))
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestLoadFromPathDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "greeting.json"), `{"content": "Hello from JSON", "name": "json_greeting", "role": "system"}`)
	writeFile(t, filepath.Join(dir, "nested", "greeting.toml"), "content = \"Hello from TOML\"\nname = \"toml_greeting\"\nrole = \"assistant\"\n")
	writeFile(t, filepath.Join(dir, "nested", "deeper", "greeting.yaml"), "content: Hello from YAML\nname: yaml_greeting\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# not a template")

	library, err := LoadFromPath(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"json_greeting", "toml_greeting", "yaml_greeting"}, library.Names())

	expected := map[string]struct {
		role    chat.Role
		content string
	}{
		"json_greeting": {chat.RoleSystem, "Hello from JSON"},
		"toml_greeting": {chat.RoleAssistant, "Hello from TOML"},
		"yaml_greeting": {chat.RoleUser, "Hello from YAML"},
	}
	for name, want := range expected {
		tmpl, err := library.Get(name)
		require.NoError(t, err)
		assert.Equal(t, want.role, tmpl.Role(), name)
		assert.Equal(t, want.content, tmpl.Content(), name)
	}
}

func TestLoadFromPathSingleFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "toml_greeting.toml")
	writeFile(t, filename, "content = \"Hello, World!\"\nname = \"toml_greeting\"\nrole = \"system\"\n")

	library, err := LoadFromPath(filename)
	require.NoError(t, err)
	assert.Equal(t, []string{"toml_greeting"}, library.Names())
}

func TestLoadFromPathSavedTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, mustNew(t, "coding/simple", chat.RoleUser, "Hello, World!").Save(filepath.Join(dir, "coding.json")))
	require.NoError(t, mustNew(t, "coding/system", chat.RoleSystem, "Hello, World!").Save(filepath.Join(dir, "system.yaml")))

	library, err := LoadFromPath(dir)
	require.NoError(t, err)

	simple, err := library.Get("coding/simple")
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", simple.Content())

	system, err := library.Get("coding/system")
	require.NoError(t, err)
	assert.Equal(t, chat.RoleSystem, system.Role())
}

func TestLoadFromPathDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"content": "json", "name": "greeting"}`)
	writeFile(t, filepath.Join(dir, "b.toml"), "content = \"toml\"\nname = \"greeting\"\n")

	_, err := LoadFromPath(dir)
	assert.ErrorIs(t, err, ErrDuplicateTemplate)
}

func TestLoadFromPathUnnamedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "anon.json"), `{"content": "json"}`)

	_, err := LoadFromPath(dir)
	assert.ErrorIs(t, err, ErrUnnamedTemplate)
}

func TestLoadFromPathParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.toml"), "content = ")

	_, err := LoadFromPath(dir)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "bad.toml", parseErr.Path)
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"prompts/one.json": {Data: []byte(`{"content": "1", "name": "one"}`)},
		"prompts/two.yml":  {Data: []byte("content: \"2\"\nname: two\n")},
		"other/three.json": {Data: []byte(`{"content": "3", "name": "three"}`)},
	}

	library, err := LoadFS(fsys, "prompts")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, library.Names())
}
