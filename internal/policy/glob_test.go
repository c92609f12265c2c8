package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_globToRegex_TranslatesWildcards(t *testing.T) {
	require.Equal(t, `a.*\.txt`, globToRegex("a*.txt"))
	require.Equal(t, `a.b`, globToRegex("a?b"))
}

func Test_compileGlobPatterns_MatchesTranslated(t *testing.T) {
	m, err := compileGlobPatterns([]string{"*.log"})
	require.NoError(t, err)
	require.Len(t, m, 1)
	require.True(t, m[0].MatchString("debug.log"))
	require.False(t, m[0].MatchString("debug.logx"))
}

func Test_compileRegexPatterns_LeavesRegexUnmangled(t *testing.T) {
	m, err := compileRegexPatterns([]string{`.*\.log`})
	require.NoError(t, err)
	require.Len(t, m, 1)
	require.True(t, m[0].MatchString("debug.log"))
	require.True(t, m[0].MatchString("anything.log"))
}

func Test_compileRegexPatterns_DoesNotEscapeDots(t *testing.T) {
	// "a.b" as a raw regex means "a", any char, "b" - unlike the glob
	// translation, which would escape the dot to a literal.
	m, err := compileRegexPatterns([]string{"a.b"})
	require.NoError(t, err)
	require.True(t, m[0].MatchString("axb"))
	require.True(t, m[0].MatchString("a.b"))
}

func Test_compileFilterGroup_CombinesGlobAndRegex(t *testing.T) {
	m, err := compileFilterGroup([]string{"*.tmp"}, []string{`.*\.bak`})
	require.NoError(t, err)
	require.Len(t, m, 2)

	matched := false
	for _, p := range m {
		if p.MatchString("file.bak") {
			matched = true
		}
	}
	require.True(t, matched)
}

func Test_newCompiledFilters_RejectFileRegexNotGlobMangled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RejectFileRegex = []string{`.*\.log`}

	filters, err := newCompiledFilters(cfg)
	require.NoError(t, err)
	require.Len(t, filters.rejectFile, 1)
	require.True(t, filters.rejectFile[0].MatchString("debug.log"))
}
