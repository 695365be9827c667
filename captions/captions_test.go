package captions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testTable = `id,modelId,description,category,topLevelSynsetId
0,a1,"A Wooden Chair, with arms",Chair,03001627
1,b2,Round table,Table,04379243
2,a1,tall back,Chair,03001627
3,c3,Glass TABLE,Table,04379243
`

func testRecords(t *testing.T) []*Record {
	records, err := Read(strings.NewReader(testTable))
	require.NoError(t, err)
	return records
}

func TestRead(t *testing.T) {
	records := testRecords(t)
	require.Len(t, records, 4)
	require.Equal(t, &Record{
		ModelID:     "a1",
		Category:    "Chair",
		Description: "A Wooden Chair, with arms",
	}, records[0])
}

func TestReadIDFallback(t *testing.T) {
	records, err := Read(strings.NewReader("id,category,description\nx9,Chair,a chair\n"))
	require.NoError(t, err)
	require.Equal(t, "x9", records[0].ModelID)
}

func TestReadMissingColumns(t *testing.T) {
	for _, header := range []string{
		"category,description",
		"modelId,description",
		"modelId,category",
	} {
		_, err := Read(strings.NewReader(header + "\n"))
		require.Error(t, err, header)
	}
	_, err := Read(strings.NewReader(""))
	require.Error(t, err)
}

func TestFindDescriptions(t *testing.T) {
	records := testRecords(t)
	require.Equal(t, []string{"A Wooden Chair, with arms", "tall back"},
		FindDescriptions(records, "a1"))
	require.Empty(t, FindDescriptions(records, "A1"))
	require.Empty(t, FindDescriptions(records, "zz"))
}

func TestBuildText(t *testing.T) {
	records := testRecords(t)
	require.Equal(t, "round table\n\nglass table", BuildText(records, "Table"))
	require.Equal(t, BuildText(records, "all"), BuildText(records, "All"))
	require.Equal(t, 4, strings.Count(BuildText(records, "ALL"), "\n\n")+1)
	require.Empty(t, BuildText(records, "table"))
	require.Empty(t, BuildText(records, "Lamp"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.csv")
	require.NoError(t, os.WriteFile(path, []byte(testTable), 0644))
	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
