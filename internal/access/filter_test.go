package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDSetFilterDeduplicatesAndSorts(t *testing.T) {
	filter := IDSetFilter([]string{"c", "a", "b", "a", ""})
	require.False(t, filter.Unrestricted)
	require.Equal(t, []string{"a", "b", "c"}, filter.IDs)
}

func TestIDSetFilterEmptyIsDenyAll(t *testing.T) {
	filter := IDSetFilter(nil)
	require.False(t, filter.Unrestricted)
	require.Empty(t, filter.IDs)
	require.False(t, filter.Contains("anything"))
}

func TestUnrestrictedFilterContainsEverything(t *testing.T) {
	filter := UnrestrictedFilter()
	require.True(t, filter.Unrestricted)
	require.True(t, filter.Contains("anything"))
}

func TestFilterContains(t *testing.T) {
	filter := IDSetFilter([]string{"d1", "d2"})
	require.True(t, filter.Contains("d1"))
	require.False(t, filter.Contains("d3"))
}
