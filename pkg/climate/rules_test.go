package climate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"agriadvisor/entities"
)

func TestDefault_CoversEveryCrop(t *testing.T) {
	r := Default()
	for _, c := range entities.Crops {
		rule, ok := r.Rule(c)
		require.True(t, ok, c)
		require.NoError(t, rule.validate(), c)
	}
	assert.Len(t, r.All(), len(entities.Crops))
}

func TestLoadCSV_HeaderAliasesAndPartialOverride(t *testing.T) {
	csv := "\uFEFFCrop Type,N-Min,Pest Rate\nwheat,65,0.5\nrice,,\n"
	r := Default()
	require.NoError(t, r.loadCSV(strings.NewReader(csv)))

	wheat, _ := r.Rule(entities.CropWheat)
	assert.Equal(t, 65.0, wheat.MinN)
	assert.Equal(t, 0.5, wheat.PestBaseRate)
	assert.Equal(t, 25.0, wheat.MinP, "untouched columns keep defaults")

	rice, _ := r.Rule(entities.CropRice)
	assert.Equal(t, 60.0, rice.MinN)
}

func TestLoadCSV_Errors(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"no crop column", "n_min\n10\n", "missing crop column"},
		{"unknown crop", "crop,n_min\nbarley,10\n", `row 2: unknown crop "barley"`},
		{"bad number", "crop,n_min\nwheat,lots\n", "row 2: n_min"},
		{"invalid range", "crop,pest_base_rate\nwheat,1.5\n", "row 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Default().loadCSV(strings.NewReader(tc.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFromFiles_CSVThenXLSX(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "crops.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("crop,k_min\ncotton,35\n"), 0o644))

	xlsxPath := filepath.Join(dir, "crops.xlsx")
	x := excelize.NewFile()
	sheet := x.GetSheetName(0)
	require.NoError(t, x.SetSheetRow(sheet, "A1", &[]any{"Crop", "K Min", "Base Yield"}))
	require.NoError(t, x.SetSheetRow(sheet, "A2", &[]any{"cotton", "40", "30"}))
	require.NoError(t, x.SaveAs(xlsxPath))
	require.NoError(t, x.Close())

	r, err := LoadFromFiles(csvPath, xlsxPath)
	require.NoError(t, err)
	cotton, _ := r.Rule(entities.CropCotton)
	assert.Equal(t, 40.0, cotton.MinK, "xlsx applied after csv")
	assert.Equal(t, 30.0, cotton.BaseYieldQHa)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "nope.csv"), "")
	assert.Error(t, err)
}
