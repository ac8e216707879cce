package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSideMerge(t *testing.T) {
	consumer := Parse("requests==2.20.0\nexisting==1.0\n")
	neuron := Parse("requests==2.28.1\n")

	got := Merge(consumer, neuron)
	assert.Equal(t, "requests==2.28.1\nexisting==1.0\n", got)
}

func TestMergeAppendsNewNamesInNeuronOrder(t *testing.T) {
	consumer := Parse("alpha==1.0\n")
	neuron := Parse("gamma==1.0\nbeta==2.0\nalpha==1.1\n")

	got := Merge(consumer, neuron)
	assert.Equal(t, "alpha==1.1\ngamma==1.0\nbeta==2.0\n", got)
}

func TestMergePreservesCommentsAndBlankLines(t *testing.T) {
	consumer := Parse("# pinned core deps\nrequests==2.20.0\n\n# dev-only\npytest==7.0\n")
	neuron := Parse("requests==2.28.1\n")

	got := Merge(consumer, neuron)
	assert.Equal(t, "# pinned core deps\nrequests==2.28.1\n\n# dev-only\npytest==7.0\n", got)
}

func TestMergeNeuronWinsEvenUnpinnedOverConsumerPin(t *testing.T) {
	consumer := Parse("requests==2.20.0\n")
	neuron := Parse("requests\n")

	got := Merge(consumer, neuron)
	assert.Equal(t, "requests\n", got)
}

func TestParseNames(t *testing.T) {
	rf := Parse("a==1\nb\n# comment\n\nc==3\n")
	require.Equal(t, []string{"a", "b", "c"}, rf.Names())
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, -1, CompareVersions("1.0.0", "2.0.0"))
	assert.Equal(t, 0, CompareVersions("not-a-version", "also-not"))
}
