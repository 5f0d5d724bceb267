package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllTopicsLoaded(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)

	env, ok := all["environment"]
	require.True(t, ok)
	assert.Equal(t, "Environment & Climate", env.Name)
	assert.NotEmpty(t, env.Keywords)
	assert.Contains(t, env.Agencies, "EPA")
}

func TestCategorizeByKeyword(t *testing.T) {
	ids := Categorize("Proposed Emissions Standards", "Limits on greenhouse gas output.", "XYZ")
	assert.Contains(t, ids, "environment")
}

func TestCategorizeByAgency(t *testing.T) {
	ids := Categorize("Quarterly filing procedures", "", "SEC")
	assert.Contains(t, ids, "finance")
}

func TestCategorizeIsCaseInsensitive(t *testing.T) {
	upper := Categorize("NATIONAL EMISSION STANDARDS", "", "")
	lower := Categorize("national emission standards", "", "")
	assert.Equal(t, lower, upper)
	assert.Contains(t, upper, "environment")
}

func TestCategorizeNoMatch(t *testing.T) {
	assert.Empty(t, Categorize("Notice of meeting", "", "XYZ"))
}

func TestCategorizeIsSortedAndStable(t *testing.T) {
	// FDA matches both healthcare and agriculture by agency.
	first := Categorize("Generic notice", "", "FDA")
	second := Categorize("Generic notice", "", "FDA")
	require.Equal(t, first, second)
	assert.Equal(t, []string{"agriculture", "healthcare"}, first)
}

func TestHashtagsSplitCompoundNames(t *testing.T) {
	tags := Hashtags([]string{"environment"})
	assert.Equal(t, []string{"#Climate", "#Environment"}, tags)
}

func TestHashtagsIgnoreUnknownIDs(t *testing.T) {
	assert.Empty(t, Hashtags([]string{"nonexistent"}))
}

func TestHashtagsStripSpaces(t *testing.T) {
	tags := Hashtags([]string{"privacy"})
	assert.Contains(t, tags, "#Privacy")
	assert.Contains(t, tags, "#Security")
}
