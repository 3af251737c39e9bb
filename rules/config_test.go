package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogKnowsEveryDefaultRule(t *testing.T) {
	for _, name := range append(DefaultDowngrade(), Minify()...) {
		rule, err := New(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, rule.RuleName())
	}
}

func TestCatalogUnknownName(t *testing.T) {
	_, err := New("remove_everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown rule "remove_everything"`)
}

func TestCatalogNamesSorted(t *testing.T) {
	names := Names()
	assert.Len(t, names, 9)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestConfigDisableWins(t *testing.T) {
	c := NewConfig("a", "b")
	c.Set("a", false)
	// Re-enabling after a disable does not revive the rule.
	c.Set("a", true)
	assert.Equal(t, []string{"b"}, c.Enabled())
}

func TestConfigPreservesFirstMentionOrder(t *testing.T) {
	c := NewConfig()
	c.Set("z", true)
	c.Set("a", true)
	c.Set("m", true)
	c.Set("z", true)
	assert.Equal(t, []string{"z", "a", "m"}, c.Enabled())
}

func TestBuildPipelinePartitionsByKind(t *testing.T) {
	p, err := BuildPipeline(nil, false)
	require.NoError(t, err)

	var treeNames, visitorNames []string
	for _, r := range p.Tree {
		treeNames = append(treeNames, r.RuleName())
	}
	for _, r := range p.Visitor {
		visitorNames = append(visitorNames, r.RuleName())
	}
	assert.Equal(t, []string{
		RemoveCompoundAssignmentName,
		RemoveContinueName,
		RemoveIfExpressionName,
		RemoveRedeclaredKeysName,
		ResolveRequirePathsName,
	}, treeNames)
	assert.Equal(t, []string{
		NormalizeNumberLiteralsName,
		ConvertBit32Name,
	}, visitorNames)
}

func TestBuildPipelineOverrideDisables(t *testing.T) {
	p, err := BuildPipeline([]Override{{Name: ConvertBit32Name, Enabled: false}}, false)
	require.NoError(t, err)
	for _, r := range p.Visitor {
		assert.NotEqual(t, ConvertBit32Name, r.RuleName())
	}
}

func TestBuildPipelineMinifyAppends(t *testing.T) {
	p, err := BuildPipeline(nil, true)
	require.NoError(t, err)

	var names []string
	for _, r := range p.Tree {
		names = append(names, r.RuleName())
	}
	assert.Contains(t, names, FoldConstantsName)
	assert.Contains(t, names, RemoveEmptyDoName)
}

func TestBuildPipelineUnknownOverride(t *testing.T) {
	_, err := BuildPipeline([]Override{{Name: "bogus", Enabled: false}}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown rule "bogus"`)
}
