// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	// distances from (0,0): A 1.11 km, B 5.56 km, C and D 3.34 km, E 8.9 km
	whataburger = `id,address,city,state,zip,lat,lng
A,1 First St,Quito,EC,10001,0,0.01
B,2 Second St,Quito,EC,10002,0,0.05
`
	starbucks = `C,3 Third St,Quito,EC,10003,0,0.03
D,4 Fourth St,Quito,EC,10004,0,-0.03
E,5 Fifth St,Quito,EC,10005,0,0.08
not,a,row
`
	queries = `0,0,2
0,0,0
bad,0,1
0,0.08,1
`
)

func writeFixtures(t *testing.T) (dir string) {
	t.Helper()

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "whataburger.csv"), []byte(whataburger), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "starbucks.csv"), []byte(starbucks), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "queries.csv"), []byte(queries), 0o600))

	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(zap.ReplaceGlobals(zap.NewNop()))

	var out bytes.Buffer

	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.Execute()

	return out.String(), err
}

func TestQueryCmd_Text(t *testing.T) {
	dir := writeFixtures(t)
	t.Chdir(dir)

	out, err := run(t, "query",
		"--records", "whataburger.csv",
		"--records", "starbucks.csv",
		"--queries", "queries.csv",
		"--seed", "1",
	)
	require.NoError(t, err)

	want := "The 2 closest Stores to (0,0):\n" +
		"Store #A. 1 First St, Quito, EC, 10001. - 1.112 km)\n" +
		"Store #C. 3 Third St, Quito, EC, 10003. - 3.336 km)\n" +
		"Store #D. 4 Fourth St, Quito, EC, 10004. - 3.336 km)\n" +
		"\n" +
		"The 0 closest Stores to (0,0):\n" +
		"\n" +
		"The 1 closest Stores to (0,0.08):\n" +
		"Store #E. 5 Fifth St, Quito, EC, 10005. - 0.000 km)\n" +
		"\n"
	assert.Equal(t, want, out)
}

func TestQueryCmd_JSONMiles(t *testing.T) {
	dir := writeFixtures(t)
	t.Chdir(dir)

	out, err := run(t, "query",
		"--records", "whataburger.csv",
		"--records", "starbucks.csv",
		"--queries", "queries.csv",
		"--format", "json",
		"--unit", "mi",
	)
	require.NoError(t, err)

	var got struct {
		Results []struct {
			Unit      string `json:"unit"`
			Neighbors []struct {
				Distance float64 `json:"distance"`
			} `json:"neighbors"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Results, 3)
	assert.Equal(t, "mi", got.Results[0].Unit)
	assert.Len(t, got.Results[0].Neighbors, 3)
	assert.InDelta(t, 0.691, got.Results[0].Neighbors[0].Distance, 1e-3)
}

func TestImportThenQueryFromCatalog(t *testing.T) {
	dir := writeFixtures(t)
	t.Chdir(dir)

	out, err := run(t, "import", "--db", "data/stores.duckdb", "whataburger.csv", "starbucks.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 5 stores (1 rows skipped), 5 stores in data/stores.duckdb\n"+
		"   starbucks.csv: 3\n"+
		"   whataburger.csv: 2\n")

	out, err = run(t, "import", "--db", "data/stores.duckdb", "--truncate", "whataburger.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 stores (0 rows skipped), 2 stores")
	assert.NotContains(t, out, "starbucks.csv")

	_, err = run(t, "import", "--db", "data/stores.duckdb", "starbucks.csv")
	require.NoError(t, err)

	out, err = run(t, "query", "--db", "data/stores.duckdb", "--queries", "queries.csv", "--seed", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Store #A. 1 First St, Quito, EC, 10001. - 1.112 km)\nStore #C.")
	assert.Contains(t, out, "Store #D. 4 Fourth St, Quito, EC, 10004. - 3.336 km)\n\nThe 0 closest")
}

func TestQueryCmd_Errors(t *testing.T) {
	dir := writeFixtures(t)
	t.Chdir(dir)

	_, err := run(t, "query", "--queries", "queries.csv")
	require.ErrorIs(t, err, errNoRecords)

	_, err = run(t, "query", "--db", "missing.duckdb", "--queries", "queries.csv")
	assert.ErrorContains(t, err, "database not found")

	_, err = run(t, "query", "--records", "whataburger.csv", "--queries", "queries.csv", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "query", "--records", "whataburger.csv", "--queries", "queries.csv", "--unit", "parsecs")
	assert.Error(t, err)

	_, err = run(t, "query", "--records", "whataburger.csv")
	assert.Error(t, err)

	_, err = run(t, "import", "whataburger.csv")
	assert.ErrorContains(t, err, "--db is required")
}

func TestVersionCmd(t *testing.T) {
	Version = "1.2.3"
	t.Cleanup(func() { Version = "dev" })

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}
