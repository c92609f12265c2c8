package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// matcher is a single compiled accept/reject pattern.
type matcher struct {
	pattern *regexp.Regexp
	source  string
}

func (m matcher) MatchString(s string) bool {
	return m.pattern.MatchString(s)
}

// globToRegex translates a shell-glob-flavored pattern into an equivalent
// regex, grounded on toHDF5.cpp's translation table: `*` becomes `.*`,
// `?` becomes `.`, and a literal `.` is escaped so it isn't read as "any
// character". Any other regex metacharacter in the input is passed
// through unescaped. Only applied to the glob-flavored flags; the
// *regex flags are compiled as-is by compileRegexPatterns.
func globToRegex(pattern string) string {
	var b strings.Builder

	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '.':
			b.WriteString(`\.`)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// compilePatternList compiles each pattern with full-string anchors, so a
// pattern matches only if it describes the entire name, matching grep -x
// semantics rather than grep's default substring search. translate, when
// non-nil, is applied to each pattern before compiling; pass globToRegex
// for glob-sourced patterns and nil to compile a pattern as the regex it
// already is.
func compilePatternList(patterns []string, translate func(string) string) ([]matcher, error) {
	out := make([]matcher, 0, len(patterns))

	for _, p := range patterns {
		translated := p
		if translate != nil {
			translated = translate(p)
		}

		re, err := regexp.Compile("^(?:" + translated + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %w", ErrBadPattern, p, err)
		}

		out = append(out, matcher{pattern: re, source: p})
	}

	return out, nil
}

// compileGlobPatterns compiles --acceptfile/--rejectfile/--acceptdir/
// --rejectdir style patterns, translating glob syntax to regex first.
func compileGlobPatterns(patterns []string) ([]matcher, error) {
	return compilePatternList(patterns, globToRegex)
}

// compileRegexPatterns compiles --acceptfileregex/--rejectfileregex/
// --acceptdirregex/--rejectdirregex style patterns verbatim: these are
// already grep-flavored regex (toHDF5.cpp's matchesRegex), and running
// them through globToRegex would mangle `.` and `*` into glob meaning.
func compileRegexPatterns(patterns []string) ([]matcher, error) {
	return compilePatternList(patterns, nil)
}

func combinePatterns(glob, regex []matcher) []matcher {
	if len(glob) == 0 {
		return regex
	}
	if len(regex) == 0 {
		return glob
	}

	out := make([]matcher, 0, len(glob)+len(regex))
	out = append(out, glob...)
	out = append(out, regex...)

	return out
}

func compileFilterGroup(globPatterns, regexPatterns []string) ([]matcher, error) {
	glob, err := compileGlobPatterns(globPatterns)
	if err != nil {
		return nil, err
	}

	regex, err := compileRegexPatterns(regexPatterns)
	if err != nil {
		return nil, err
	}

	return combinePatterns(glob, regex), nil
}

func newCompiledFilters(cfg Config) (compiledFilters, error) {
	acceptFile, err := compileFilterGroup(cfg.AcceptFileGlob, cfg.AcceptFileRegex)
	if err != nil {
		return compiledFilters{}, err
	}

	rejectFile, err := compileFilterGroup(cfg.RejectFileGlob, cfg.RejectFileRegex)
	if err != nil {
		return compiledFilters{}, err
	}

	acceptDir, err := compileFilterGroup(cfg.AcceptDirGlob, cfg.AcceptDirRegex)
	if err != nil {
		return compiledFilters{}, err
	}

	rejectDir, err := compileFilterGroup(cfg.RejectDirGlob, cfg.RejectDirRegex)
	if err != nil {
		return compiledFilters{}, err
	}

	return compiledFilters{
		acceptFile: acceptFile,
		rejectFile: rejectFile,
		acceptDir:  acceptDir,
		rejectDir:  rejectDir,
	}, nil
}

// passes applies the accept/reject membership test of spec §4.1: an
// empty accept list accepts everything, otherwise at least one accept
// pattern must match; any reject match overrides.
func passes(name string, accept, reject []matcher) bool {
	if len(accept) > 0 {
		matched := false
		for _, m := range accept {
			if m.MatchString(name) {
				matched = true

				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, m := range reject {
		if m.MatchString(name) {
			return false
		}
	}

	return true
}
