package event

import (
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// playerPronouns are word-boundary cues that narration is addressing the
// player rather than a named character.
var playerPronouns = []string{"you", "your", "yours", "party", "heroes", "adventurers"}

// publicCues mark narration as happening in front of everyone present.
var publicCues = []string{
	"shouted", "shouts", "announced", "announces", "proclaimed", "proclaims",
	"declared", "declares", "crowd", "witnessed", "publicly", "in front of everyone",
}

func buildMatcher(patterns []string, wholeWords bool) ahocorasick.AhoCorasick {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  wholeWords,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return builder.Build(patterns)
}

// mentionHit is one scene entity found in narration text.
type mentionHit struct {
	presence Presence
	start    int
}

// scanMentions finds candidates whose names appear in content, ordered by
// first appearance and deduplicated by entity ID. Name matching is
// substring-based and case-insensitive.
func scanMentions(content string, candidates []Presence) []mentionHit {
	if content == "" || len(candidates) == 0 {
		return nil
	}

	patterns := make([]string, 0, len(candidates))
	index := make([]int, 0, len(candidates))
	for i, candidate := range candidates {
		if candidate.Name == "" {
			continue
		}
		patterns = append(patterns, candidate.Name)
		index = append(index, i)
	}
	if len(patterns) == 0 {
		return nil
	}

	matcher := buildMatcher(patterns, false)
	seen := make(map[string]struct{})
	var hits []mentionHit
	for _, m := range matcher.FindAll(content) {
		candidate := candidates[index[m.Pattern()]]
		if _, dup := seen[candidate.ID]; dup {
			continue
		}
		seen[candidate.ID] = struct{}{}
		hits = append(hits, mentionHit{presence: candidate, start: m.Start()})
	}
	return hits
}

// firstMatch returns the byte offset of the earliest automaton match, or
// (-1, false) when nothing matches.
func firstMatch(matcher ahocorasick.AhoCorasick, content string) (int, bool) {
	matches := matcher.FindAll(content)
	if len(matches) == 0 {
		return -1, false
	}
	best := matches[0].Start()
	for _, m := range matches[1:] {
		if m.Start() < best {
			best = m.Start()
		}
	}
	return best, true
}
