package repository_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/livepack/repository"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o644))
}

func TestDetectHostProject_FindsManifestInAncestor(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `{ "name": "acme-widgets", "type": "module", "engines": { "node": ">=18.0.0" } }`)

	nested := filepath.Join(root, "src", "lib")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	file := filepath.Join(nested, "index.js")
	require.NoError(t, os.WriteFile(file, []byte("export default 1;\n"), 0o644))

	d := repository.New()
	proj, err := d.DetectHostProject(file)
	require.NoError(t, err)

	rootAbs, _ := filepath.Abs(root)
	assert.Equal(t, rootAbs, proj.RootPath)
	assert.Equal(t, "acme-widgets", proj.Name)
	assert.True(t, proj.ESModule)
	assert.Equal(t, "src/lib/index.js", proj.RelativePath)
	assert.Equal(t, ">=18.0.0", proj.EngineRange)
}

func TestDetectHostProject_NoManifestFoundIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "standalone.js")
	require.NoError(t, os.WriteFile(file, []byte("1;\n"), 0o644))

	d := repository.New()
	proj, err := d.DetectHostProject(file)
	require.NoError(t, err)
	assert.Empty(t, proj.Name)
}

func TestHostConvention_ResolvesFromEngineRange(t *testing.T) {
	anon, ok := repository.HostConvention(">=18.0.0")
	require.True(t, ok)
	assert.True(t, anon)

	_, ok = repository.HostConvention("")
	assert.False(t, ok)
}
