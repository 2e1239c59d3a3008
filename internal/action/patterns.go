package action

import "regexp"

// PatternDef is one data-driven classification rule: a compiled expression,
// the action it votes for, and a static confidence. Tables are built once at
// package init and never mutated.
type PatternDef struct {
	re         *regexp.Regexp
	action     Action
	confidence float64
}

func pat(expr string, a Action, confidence float64) PatternDef {
	return PatternDef{
		re:         regexp.MustCompile(`(?i)` + expr),
		action:     a,
		confidence: confidence,
	}
}

// patternTables holds the per-category rule sets in category precedence
// order. Word boundaries keep substrings like "unskilled" from matching
// "kill". Negation is a known blind spot: "did not kill" still matches.
var patternTables = []struct {
	category Category
	patterns []PatternDef
}{
	{CategoryMercy, []PatternDef{
		pat(`\bspare[sd]?\b`, SpareEnemy, 0.9),
		pat(`\bsparing\b`, SpareEnemy, 0.85),
		pat(`\blowers? (his|her|their|your) (blade|sword|weapon)\b`, SpareEnemy, 0.75),
		pat(`\bmercy\b`, ShowMercy, 0.85),
		pat(`\bmerciful\b`, ShowMercy, 0.8),
		pat(`\bforgiv(e|es|en|ing)\b`, Forgive, 0.9),
		pat(`\bforgave\b`, Forgive, 0.9),
		pat(`\blet (it|them|him|her) go\b`, Forgive, 0.6),
		pat(`\bprotect(s|ed|ing)?\b`, ProtectAlly, 0.8),
		pat(`\bshield(s|ed|ing)? (him|her|them|the)\b`, ProtectAlly, 0.75),
		pat(`\bdefend(s|ed|ing)?\b`, ProtectAlly, 0.7),
		pat(`\bheal(s|ed|ing)?\b`, HealOther, 0.85),
		pat(`\bbandage[sd]?\b`, HealOther, 0.8),
		pat(`\btend(s|ed)? (to )?(his|her|their) wounds\b`, HealOther, 0.8),
		pat(`\brelease(s|d)? (the )?(prisoner|captive)s?\b`, FreePrisoner, 0.9),
		pat(`\bunshackle[sd]?\b`, FreePrisoner, 0.85),
		pat(`\bsets? (him|her|them) free\b`, FreePrisoner, 0.8),
	}},
	{CategoryViolence, []PatternDef{
		pat(`\bkill(s|ed|ing)?\b`, Kill, 0.9),
		pat(`\bsl(ay|ays|ew|ain)\b`, Kill, 0.85),
		pat(`\bstruck down\b`, Kill, 0.8),
		pat(`\battack(s|ed|ing)?\b`, Attack, 0.85),
		pat(`\bcharge(s|d)? at\b`, Attack, 0.7),
		pat(`\blunge(s|d)?\b`, Attack, 0.7),
		pat(`\bstab(s|bed|bing)?\b`, Wound, 0.85),
		pat(`\bslash(es|ed|ing)?\b`, Wound, 0.8),
		pat(`\bwound(s|ed|ing)?\b`, Wound, 0.75),
		pat(`\btortur(e|es|ed|ing)\b`, Torture, 0.95),
		pat(`\bthreaten(s|ed|ing)?\b`, Threaten, 0.85),
		pat(`\bor else\b`, Threaten, 0.6),
		pat(`\bambush(es|ed|ing)?\b`, Ambush, 0.9),
		pat(`\bsprings? the trap\b`, Ambush, 0.7),
		pat(`\bbehead(s|ed)?\b`, ExecutePrisoner, 0.9),
		pat(`\bexecut(e|es|ed|ion)\b`, ExecutePrisoner, 0.8),
		pat(`\bdestroy(s|ed|ing)?\b`, DestroyObject, 0.8),
		pat(`\bburn(s|ed|ing)? down\b`, DestroyObject, 0.8),
		pat(`\bsmash(es|ed|ing)?\b`, DestroyObject, 0.75),
	}},
	{CategoryHonesty, []PatternDef{
		pat(`\b(tells?|told) the truth\b`, TellTruth, 0.9),
		pat(`\bhonest(ly)?\b`, TellTruth, 0.65),
		pat(`\bconfess(es|ed|ing|ion)?\b`, Confess, 0.9),
		pat(`\badmit(s|ted|ting)?\b`, Confess, 0.75),
		pat(`\b(keeps?|kept) (his|her|their|your) (word|promise)\b`, KeepPromise, 0.9),
		pat(`\bas promised\b`, KeepPromise, 0.75),
		pat(`\bl(ie|ies|ied)\b`, Lie, 0.7),
		pat(`\blying\b`, Lie, 0.65),
		pat(`\bdeceiv(e|es|ed|ing)\b`, Deceive, 0.9),
		pat(`\bmislead(s|ing)?\b`, Deceive, 0.8),
		pat(`\bmisled\b`, Deceive, 0.8),
		pat(`\btrick(s|ed|ing)?\b`, Deceive, 0.75),
		pat(`\b(breaks?|broke) (his|her|their|your) (word|promise)\b`, BreakPromise, 0.9),
		pat(`\bbetray(s|ed|ing|al)?\b`, Betray, 0.9),
		pat(`\bdouble[- ]cross(es|ed)?\b`, Betray, 0.85),
		pat(`\bturns? on (his|her|their) (allies|friends)\b`, Betray, 0.7),
	}},
	{CategorySocial, []PatternDef{
		pat(`\bpersuad(e|es|ed|ing)\b`, Persuade, 0.9),
		pat(`\bconvinc(e|es|ed|ing)\b`, Persuade, 0.85),
		pat(`\bintimidat(e|es|ed|ing)\b`, Intimidate, 0.9),
		pat(`\blooms? over\b`, Intimidate, 0.6),
		pat(`\bbefriend(s|ed|ing)?\b`, Befriend, 0.9),
		pat(`\bwins? (his|her|their) trust\b`, Befriend, 0.8),
		pat(`\bmakes? friends\b`, Befriend, 0.75),
		pat(`\binsult(s|ed|ing)?\b`, Insult, 0.9),
		pat(`\bmock(s|ed|ing|ery)?\b`, Insult, 0.8),
		pat(`\bsneer(s|ed|ing)?\b`, Insult, 0.65),
		pat(`\bnegotiat(e|es|ed|ing|ion)\b`, Negotiate, 0.9),
		pat(`\bstrikes? a (deal|bargain)\b`, Negotiate, 0.8),
		pat(`\bhaggl(e|es|ed|ing)\b`, Negotiate, 0.75),
		pat(`\bshares? (a|the) secret\b`, ShareSecret, 0.85),
		pat(`\bconfid(e|es|ed|ing) in\b`, ShareSecret, 0.8),
		pat(`\bapologi[sz](e|es|ed|ing)\b`, Apologize, 0.9),
		pat(`\b(i'?m|is|was) sorry\b`, Apologize, 0.7),
	}},
	{CategoryExploration, []PatternDef{
		pat(`\bdiscover(s|ed|ing)?\b`, DiscoverLocation, 0.85),
		pat(`\bstumbl(e|es|ed) (upon|across)\b`, DiscoverLocation, 0.8),
		pat(`\bfinds? a (hidden|secret)\b`, DiscoverLocation, 0.8),
		pat(`\binvestigat(e|es|ed|ing)\b`, Investigate, 0.9),
		pat(`\bexamin(e|es|ed|ing)\b`, Investigate, 0.8),
		pat(`\binspect(s|ed|ing)?\b`, Investigate, 0.75),
		pat(`\bsearch(es|ed)? the bod(y|ies)\b`, LootRemains, 0.85),
		pat(`\bsearch(es|ed|ing)?\b`, SearchArea, 0.8),
		pat(`\brummag(e|es|ed|ing)\b`, SearchArea, 0.75),
		pat(`\bfollow(s|ed|ing)? the (trail|tracks|footprints)\b`, TrackQuarry, 0.85),
		pat(`\btrack(s|ed|ing)?\b`, TrackQuarry, 0.75),
		pat(`\bscout(s|ed|ing)?\b`, ScoutAhead, 0.85),
		pat(`\bloot(s|ed|ing)?\b`, LootRemains, 0.9),
		pat(`\bpilfer(s|ed|ing)?\b`, LootRemains, 0.8),
	}},
	{CategoryCharacter, []PatternDef{
		pat(`\btrain(s|ed|ing)?\b`, TrainSkill, 0.85),
		pat(`\bpractic(e|es|ed|ing)\b`, TrainSkill, 0.8),
		pat(`\bspar(s|ring)\b`, TrainSkill, 0.7),
		pat(`\bpray(s|ed|ing|er)?\b`, Pray, 0.9),
		pat(`\bkneels? (at|before) the (altar|shrine)\b`, Pray, 0.8),
		pat(`\breflect(s|ed|ing)?\b`, Reflect, 0.75),
		pat(`\bponder(s|ed|ing)?\b`, Reflect, 0.75),
		pat(`\bdeep in thought\b`, Reflect, 0.7),
		pat(`\bcelebrat(e|es|ed|ing|ion)\b`, Celebrate, 0.9),
		pat(`\btoast(s|ed|ing)?\b`, Celebrate, 0.7),
		pat(`\bfeast(s|ed|ing)?\b`, Celebrate, 0.7),
		pat(`\bmourn(s|ed|ing)?\b`, Mourn, 0.9),
		pat(`\bgriev(e|es|ed|ing)\b`, Mourn, 0.85),
		pat(`\bmakes? camp\b`, Rest, 0.8),
		pat(`\bsleep(s|ing)?\b`, Rest, 0.7),
		pat(`\brest(s|ed|ing)?\b`, Rest, 0.65),
		pat(`\bcraft(s|ed|ing)?\b`, CraftItem, 0.85),
		pat(`\bforg(e|es|ed|ing)\b`, CraftItem, 0.75),
		pat(`\bsmith(s|ed|ing)?\b`, CraftItem, 0.7),
	}},
}

// InferAction runs the pattern tables as an ordered ladder: categories in
// precedence order, rules in table order, first match wins. Confidence is
// ignored; this is the event builder's fallback when AI metadata omits the
// action.
func InferAction(content string) (Action, bool) {
	for _, table := range patternTables {
		for _, p := range table.patterns {
			if p.re.MatchString(content) {
				return p.action, true
			}
		}
	}
	return "", false
}
