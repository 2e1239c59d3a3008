// Package action defines the fixed narrative action vocabulary and the
// rule-based classifier that maps free-form narration onto it.
//
// The vocabulary is a contract shared with the language-model fallback
// prompt and with any reporting consumer. Changing it requires updating the
// pattern tables and the model's allowed-output set together.
package action

// Action is one of a fixed vocabulary of narrative verbs.
type Action string

// Category groups actions by narrative register. Categories are evaluated in
// a fixed precedence order; ClassifierCategories lists them in that order.
type Category string

const (
	CategoryMercy       Category = "mercy"
	CategoryViolence    Category = "violence"
	CategoryHonesty     Category = "honesty"
	CategorySocial      Category = "social"
	CategoryExploration Category = "exploration"
	CategoryCharacter   Category = "character"
)

// Mercy actions.
const (
	SpareEnemy   Action = "spare_enemy"
	ShowMercy    Action = "show_mercy"
	Forgive      Action = "forgive"
	ProtectAlly  Action = "protect_ally"
	HealOther    Action = "heal_other"
	FreePrisoner Action = "free_prisoner"
)

// Violence actions.
const (
	Kill            Action = "kill"
	Attack          Action = "attack"
	Wound           Action = "wound"
	Torture         Action = "torture"
	Threaten        Action = "threaten"
	Ambush          Action = "ambush"
	ExecutePrisoner Action = "execute_prisoner"
	DestroyObject   Action = "destroy_object"
)

// Honesty actions.
const (
	TellTruth    Action = "tell_truth"
	Confess      Action = "confess"
	KeepPromise  Action = "keep_promise"
	Lie          Action = "lie"
	Deceive      Action = "deceive"
	BreakPromise Action = "break_promise"
	Betray       Action = "betray"
)

// Social actions.
const (
	Persuade    Action = "persuade"
	Intimidate  Action = "intimidate"
	Befriend    Action = "befriend"
	Insult      Action = "insult"
	Negotiate   Action = "negotiate"
	ShareSecret Action = "share_secret"
	Apologize   Action = "apologize"
)

// Exploration actions.
const (
	DiscoverLocation Action = "discover_location"
	Investigate      Action = "investigate"
	SearchArea       Action = "search_area"
	TrackQuarry      Action = "track_quarry"
	ScoutAhead       Action = "scout_ahead"
	LootRemains      Action = "loot_remains"
)

// Character actions.
const (
	TrainSkill Action = "train_skill"
	Pray       Action = "pray"
	Reflect    Action = "reflect"
	Celebrate  Action = "celebrate"
	Mourn      Action = "mourn"
	Rest       Action = "rest"
	CraftItem  Action = "craft_item"
)

// ClassifierCategories is the fixed category precedence order. When two
// categories tie on confidence, the earlier category wins.
var ClassifierCategories = []Category{
	CategoryMercy,
	CategoryViolence,
	CategoryHonesty,
	CategorySocial,
	CategoryExploration,
	CategoryCharacter,
}

// Vocabulary maps each category to its actions, in stable order.
var Vocabulary = map[Category][]Action{
	CategoryMercy:       {SpareEnemy, ShowMercy, Forgive, ProtectAlly, HealOther, FreePrisoner},
	CategoryViolence:    {Kill, Attack, Wound, Torture, Threaten, Ambush, ExecutePrisoner, DestroyObject},
	CategoryHonesty:     {TellTruth, Confess, KeepPromise, Lie, Deceive, BreakPromise, Betray},
	CategorySocial:      {Persuade, Intimidate, Befriend, Insult, Negotiate, ShareSecret, Apologize},
	CategoryExploration: {DiscoverLocation, Investigate, SearchArea, TrackQuarry, ScoutAhead, LootRemains},
	CategoryCharacter:   {TrainSkill, Pray, Reflect, Celebrate, Mourn, Rest, CraftItem},
}

var actionCategories = buildActionCategories()

func buildActionCategories() map[Action]Category {
	m := make(map[Action]Category)
	for _, category := range ClassifierCategories {
		for _, a := range Vocabulary[category] {
			m[a] = category
		}
	}
	return m
}

// CategoryOf returns the category an action belongs to.
func CategoryOf(a Action) (Category, bool) {
	category, ok := actionCategories[a]
	return category, ok
}

// Valid reports whether a is part of the closed vocabulary.
func Valid(a Action) bool {
	_, ok := actionCategories[a]
	return ok
}

// All returns every action in category precedence order.
func All() []Action {
	out := make([]Action, 0, len(actionCategories))
	for _, category := range ClassifierCategories {
		out = append(out, Vocabulary[category]...)
	}
	return out
}
