package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mixedGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[0, 0], [0.5, 0.5], [1, 1]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [9, 9]}}
  ]
}`

func runIngest(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	return execIngest(t, args...)
}

func execIngest(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_MODE", "prod")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"ingest"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		metricsOut = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestIngestCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roads.geojson")
	require.NoError(t, os.WriteFile(path, []byte(mixedGeoJSON), 0o600))

	out, err := runIngest(t, "--store", "memory", "--strict=false", "--simplify=true", path)
	require.NoError(t, err)
	assert.Contains(t, out, "要素: 2, 跳过: 1")
	assert.Contains(t, out, "边: 新建 1, 重复 0, 失败 0")
	assert.Contains(t, out, "内存图: 2 个节点, 1 条边")

	out, err = runIngest(t, "--store", "memory", "--strict=false", "--simplify=false", path)
	require.NoError(t, err)
	assert.Contains(t, out, "内存图: 3 个节点, 2 条边")

	_, err = runIngest(t, "--store", "memory", "--strict=true", "--simplify=true", path)
	assert.Error(t, err)
}

func TestIngestCommand_Errors(t *testing.T) {
	_, err := runIngest(t, "--store", "memory", "--strict=false", filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)

	_, err = runIngest(t, "--store", "cassandra", "--strict=false", "x.geojson")
	assert.Error(t, err)
}

func TestIngestCommand_FlagOverridesInvalidEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roads.geojson")
	require.NoError(t, os.WriteFile(path, []byte(mixedGeoJSON), 0o600))
	t.Setenv("STORE_DRIVER", "bogus")

	out, err := execIngest(t, "--store", "memory", "--strict=false", path)
	require.NoError(t, err)
	assert.Contains(t, out, "内存图: 2 个节点, 1 条边")
}

func TestIngestCommand_DirectoryAndMetrics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.geojson"), []byte(mixedGeoJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.geojson"), []byte(mixedGeoJSON), 0o600))
	prom := filepath.Join(t.TempDir(), "linegraph.prom")

	out, err := runIngest(t, "--store", "memory", "--strict=false", "--simplify=true", "--metrics-out", prom, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "要素: 2, 跳过: 1"))
	assert.Contains(t, out, "边: 新建 0, 重复 1, 失败 0")
	assert.Contains(t, out, "内存图: 2 个节点, 1 条边")

	raw, err := os.ReadFile(prom)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `linegraph_merge_total{case="neither",status="applied"} 1`)
	assert.Contains(t, text, `linegraph_merge_total{case="both_exist",status="duplicate"} 1`)
	assert.Contains(t, text, `linegraph_features_total{result="skipped"} 2`)
}
