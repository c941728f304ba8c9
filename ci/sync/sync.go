package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/monorepo-agent/ci/util"
	"github.com/sidkik/monorepo-agent/pkg/config"
)

// Test runs the end-to-end sync tests against a real rsync.
func Test(t *testing.T, helper *util.TestHelper) {
	t.Run("Init", func(t *testing.T) {
		testInit(t, helper)
	})
	t.Run("Mirror", func(t *testing.T) {
		testMirror(t, helper)
	})
	t.Run("FileChange", func(t *testing.T) {
		testFileChange(t, helper)
	})
}

func testInit(t *testing.T, helper *util.TestHelper) {
	output, err := helper.Run("init", "--submodules", "api,web")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Added submodule: api")
	assert.Contains(t, output, "Added submodule: web")

	// Registering again leaves the existing entries untouched.
	output, err = helper.Run("init", "-s", "api")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Submodule api already configured.")

	reg, err := config.Load(filepath.Join(helper.Root, config.Dir))
	require.NoError(t, err)
	require.Len(t, reg.Submodules, 2)
	assert.Equal(t, config.DefaultInclude, reg.Submodules[0].Include)
	assert.Equal(t, config.DefaultExclude, reg.Submodules[0].Exclude)

	// Invalid input fails without touching the registry.
	output, err = helper.Run("init", "-s", "api,,mobile")
	assert.Error(t, err, output)
	reg, err = config.Load(filepath.Join(helper.Root, config.Dir))
	require.NoError(t, err)
	assert.Len(t, reg.Submodules, 2)
}

func testMirror(t *testing.T, helper *util.TestHelper) {
	included := []file{
		newFile("api/pubspec.yaml", "name: api"),
		newFile("api/lib/api.dart", "library api;"),
		newFile("api/lib/src/handler.dart", "void handle() {}"),
		newFile("api/test/api_test.dart", "void main() {}"),
	}
	excluded := []file{
		newFile("api/README.md", "# api"),
		newFile("api/build/app.js", "compiled"),
	}
	// Stale files are only deleted if the include rules match them. rsync never
	// deletes excluded files from the target.
	stale := newFile("api/lib/stale.dart", "deleted from the monorepo")

	var ops []fsOp
	for _, f := range append(included, excluded...) {
		ops = append(ops, createFile(f))
	}
	ops = append(ops, createTargetFile(stale))
	for _, op := range ops {
		require.NoError(t, op(helper))
	}

	// The web submodule has no source, so it's skipped without failing the
	// sync.
	output, err := helper.Run("sync")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Synced 1, skipped 1, failed 0.")
	assertNoErrorLogs(t, output)

	for _, f := range included {
		assert.NoError(t, shouldExist("api", f)(helper))
	}
	for _, f := range append(excluded, stale) {
		assert.NoError(t, shouldNotExist("api", f)(helper))
	}
	_, err = os.Stat(filepath.Join(helper.Parent, "web"))
	assert.True(t, os.IsNotExist(err), "skipped submodules shouldn't get a target")
}

func testFileChange(t *testing.T, helper *util.TestHelper) {
	refFile := newFile("api/lib/change.dart", "original")
	require.NoError(t, createFile(refFile)(helper))
	output, err := helper.Run("sync", "--submodules", "api")
	require.NoError(t, err, output)
	require.NoError(t, shouldExist("api", refFile)(helper))

	changed := refFile.WithContents("changed").WithModTime(refFile.modTime.Add(1 * time.Minute))
	require.NoError(t, createFile(changed)(helper))

	// A dry run doesn't modify the target.
	output, err = helper.Run("sync", "--submodules", "api", "--dry-run")
	require.NoError(t, err, output)
	assert.NoError(t, shouldExist("api", refFile)(helper))

	output, err = helper.Run("sync", "--submodules", "api")
	require.NoError(t, err, output)
	assert.NoError(t, shouldExist("api", changed)(helper))

	require.NoError(t, removeFile(changed.path)(helper))
	output, err = helper.Run("sync", "-s", "api")
	require.NoError(t, err, output)
	assert.NoError(t, shouldNotExist("api", changed)(helper))
}

// assertNoErrorLogs fails if the command logged any errors. Warnings are
// expected for skipped submodules.
func assertNoErrorLogs(t *testing.T, output string) {
	for _, line := range strings.Split(output, "\n") {
		assert.NotContains(t, line, "level=error", "unexpected error log")
	}
}
