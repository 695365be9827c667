package views

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategorySynset(t *testing.T) {
	synset, ok := CategorySynset("Chair")
	require.True(t, ok)
	require.Equal(t, "03001627", synset)

	synset, ok = CategorySynset("airplane")
	require.True(t, ok)
	require.Equal(t, "02691156", synset)

	synset, ok = CategorySynset("04379243")
	require.True(t, ok)
	require.Equal(t, "04379243", synset)

	_, ok = CategorySynset("Spaceship")
	require.False(t, ok)
}

func TestCategoryNames(t *testing.T) {
	names := CategoryNames()
	require.Len(t, names, len(categorySynsets))
	require.True(t, sort.StringsAreSorted(names))
	for _, name := range names {
		_, ok := CategorySynset(name)
		require.True(t, ok, name)
	}
}
