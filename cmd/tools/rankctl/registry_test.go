// cmd/tools/rankctl/registry_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ranking-workers/pkg/registry"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRegistryList(t *testing.T) {
	out, err := run(t, "registry", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "compute-rankings")
	assert.Contains(t, out, "publish-ranking-alerts")
}

func TestRegistryValidate(t *testing.T) {
	out, err := run(t, "registry", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 7 activities")
}

func TestRegistryUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, saveRegistry(registry.Default(), path))

	_, err := run(t, "registry", "update", "index-rankings", "--path", path, "--field", "retries", "--value", "5")
	require.NoError(t, err)

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	activity, ok := reg.Find("index-rankings")
	require.True(t, ok)
	assert.Equal(t, 5, activity.Retries)

	_, err = run(t, "registry", "update", "index-rankings", "--path", path, "--field", "timeout", "--value", "soon")
	assert.Error(t, err)

	_, err = run(t, "registry", "update", "no-such-task", "--path", path, "--field", "status", "--value", "planned")
	assert.Error(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFilterFlags(t *testing.T) {
	f := filterFlags{minReviews: 3, hasCashback: "true", countries: []string{"US"}}
	filters, err := f.filters()
	require.NoError(t, err)
	require.NotNil(t, filters.MinReviews)
	assert.Equal(t, 3, *filters.MinReviews)
	require.NotNil(t, filters.HasCashback)
	assert.True(t, *filters.HasCashback)

	f = filterFlags{minReviews: -1, hasCashback: "maybe"}
	_, err = f.filters()
	assert.Error(t, err)
}
