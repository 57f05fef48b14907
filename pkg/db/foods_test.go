package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "foods.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFoods(t *testing.T) {
	path := writeCatalog(t, `
foods:
  - category_id: 0
    category_name: bibimbap
    kcal: "586.5"
    car: 85
    prot: 20.1
    fat: 17.3
  - category_id: 7
    category_name: kimchi stew
    kcal: 250
    car: 12
    prot: 18
    fat: 14
`)

	foods, err := LoadFoods(path)
	require.NoError(t, err)
	require.Len(t, foods, 2)
	assert.Equal(t, "bibimbap", foods[0].CategoryName)
	assert.Equal(t, "586.5", foods[0].FoodKcal.String())
	assert.Equal(t, "20.1", foods[0].FoodProt.String())
	assert.Equal(t, 7, foods[1].CategoryID)
}

func TestLoadFoodsRejects(t *testing.T) {
	cases := map[string]string{
		"empty":      "foods: []\n",
		"no name":    "foods:\n  - {category_id: 1, kcal: 1, car: 1, prot: 1, fat: 1}\n",
		"duplicate":  "foods:\n  - {category_id: 1, category_name: a, kcal: 1, car: 1, prot: 1, fat: 1}\n  - {category_id: 1, category_name: b, kcal: 1, car: 1, prot: 1, fat: 1}\n",
		"negative":   "foods:\n  - {category_id: 1, category_name: a, kcal: -1, car: 1, prot: 1, fat: 1}\n",
		"not number": "foods:\n  - {category_id: 1, category_name: a, kcal: lots, car: 1, prot: 1, fat: 1}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFoods(writeCatalog(t, body))
			assert.Error(t, err)
		})
	}

	_, err := LoadFoods(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
