package event

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"reckoning/internal/action"
)

// tagKeywordClasses drive context and emotion tagging. Class order is fixed
// so generated tags are deterministic.
var tagKeywordClasses = []struct {
	tag   string
	words []string
}{
	{"combat", []string{"sword", "blade", "axe", "fight", "fought", "battle", "blood", "strike", "struck", "clash", "weapon", "arrow", "shield"}},
	{"dialogue", []string{"says", "said", "asks", "asked", "replies", "replied", "tells", "told", "whispers", "whispered", "shouts", "shouted", "speaks", "spoke"}},
	{"discovery", []string{"found", "finds", "discovered", "discovers", "reveals", "revealed", "uncovered", "uncovers", "hidden", "secret"}},
	{"anger", []string{"angry", "furious", "rage", "fury", "snarls", "snarled", "scowls", "seethes"}},
	{"sadness", []string{"sad", "weeps", "wept", "tears", "sorrow", "grief", "grieves", "mourns"}},
	{"joy", []string{"laughs", "laughed", "smiles", "smiled", "joy", "delight", "cheers", "grins"}},
	{"fear", []string{"afraid", "terror", "terrified", "fear", "trembles", "trembled", "dread", "panics"}},
}

// GenerationContext is everything known about one generated narration beat:
// where it came from, the raw text, optional AI metadata, and who is in the
// scene.
type GenerationContext struct {
	EventType    EventType
	Content      string
	Speaker      string
	Metadata     *Metadata
	NPCsPresent  []Presence
	PartyMembers []Presence
}

// Builder derives StructuredData from generation context. It performs no
// I/O; Build is a deterministic function of its inputs and is safe for
// concurrent use.
type Builder struct {
	pronouns    ahocorasick.AhoCorasick
	cues        ahocorasick.AhoCorasick
	keywords    ahocorasick.AhoCorasick
	keywordTags []string
}

func NewBuilder() *Builder {
	var words []string
	var tags []string
	for _, class := range tagKeywordClasses {
		for _, w := range class.words {
			words = append(words, w)
			tags = append(tags, class.tag)
		}
	}
	return &Builder{
		pronouns:    buildMatcher(playerPronouns, true),
		cues:        buildMatcher(publicCues, true),
		keywords:    buildMatcher(words, true),
		keywordTags: tags,
	}
}

// BuildFromGeneration reconciles AI-supplied metadata with heuristic
// inference from the raw text. Each field resolves independently: explicit
// metadata first, then content inference, then absent.
func (b *Builder) BuildFromGeneration(gen GenerationContext) StructuredData {
	var data StructuredData

	data.Action = b.resolveAction(gen)
	data.ActorType, data.ActorID = resolveActor(gen)
	data.TargetType, data.TargetID = b.resolveTarget(gen, data.ActorID)
	data.Witnesses = b.resolveWitnesses(gen, data.ActorID, data.TargetID)
	data.Tags = b.resolveTags(gen, data.Action)

	return data
}

func (b *Builder) resolveAction(gen GenerationContext) action.Action {
	if gen.Metadata != nil && action.Valid(gen.Metadata.Action) {
		return gen.Metadata.Action
	}
	if a, ok := action.InferAction(gen.Content); ok {
		return a
	}
	return ""
}

func resolveActor(gen GenerationContext) (EntityType, string) {
	switch {
	case npcOriginated(gen.EventType):
		if key := NormalizeName(gen.Speaker); key != "" {
			return EntityNPC, key
		}
		return EntitySystem, "narrator"
	case partyOriginated(gen.EventType):
		speaker := strings.TrimSpace(gen.Speaker)
		for _, member := range gen.PartyMembers {
			if strings.EqualFold(speaker, strings.TrimSpace(member.Name)) {
				return EntityPartyMember, member.ID
			}
		}
		return EntityPlayer, "player"
	case gen.EventType == TypeDMInjection:
		return EntitySystem, "dm"
	default:
		return EntitySystem, "narrator"
	}
}

// resolveTarget extracts the canonical target: explicit metadata first, then
// the earliest scene-appropriate mention in the text. NPC-originated events
// also honor the player-mention pronoun check.
func (b *Builder) resolveTarget(gen GenerationContext, actorID string) (EntityType, string) {
	if gen.Metadata != nil && gen.Metadata.TargetID != "" && gen.Metadata.TargetType != "" {
		return gen.Metadata.TargetType, gen.Metadata.TargetID
	}

	switch {
	case partyOriginated(gen.EventType):
		for _, hit := range scanMentions(gen.Content, gen.NPCsPresent) {
			if hit.presence.ID == actorID {
				continue
			}
			return EntityNPC, hit.presence.ID
		}
	case npcOriginated(gen.EventType):
		var bestType EntityType
		var bestID string
		bestStart := -1
		for _, hit := range scanMentions(gen.Content, gen.PartyMembers) {
			if hit.presence.ID == actorID {
				continue
			}
			bestType, bestID, bestStart = EntityPartyMember, hit.presence.ID, hit.start
			break
		}
		if at, ok := firstMatch(b.pronouns, gen.Content); ok && (bestStart < 0 || at < bestStart) {
			return EntityPlayer, "player"
		}
		if bestStart >= 0 {
			return bestType, bestID
		}
	default:
		present := append(append([]Presence{}, gen.NPCsPresent...), gen.PartyMembers...)
		for _, hit := range scanMentions(gen.Content, present) {
			if hit.presence.ID == actorID {
				continue
			}
			entityType := EntityNPC
			if containsID(gen.PartyMembers, hit.presence.ID) {
				entityType = EntityPartyMember
			}
			return entityType, hit.presence.ID
		}
	}
	return "", ""
}

// resolveWitnesses collects present entities mentioned in the text that are
// neither actor nor target. When nothing is mentioned but the narration
// carries a public cue, every present NPC except actor and target witnesses
// the event by default.
func (b *Builder) resolveWitnesses(gen GenerationContext, actorID, targetID string) []string {
	present := append(append([]Presence{}, gen.NPCsPresent...), gen.PartyMembers...)

	var witnesses []string
	seen := make(map[string]struct{})
	add := func(p Presence) {
		if p.ID == "" || p.ID == actorID || p.ID == targetID {
			return
		}
		if NormalizeName(p.Name) == actorID {
			return
		}
		if _, dup := seen[p.ID]; dup {
			return
		}
		seen[p.ID] = struct{}{}
		witnesses = append(witnesses, p.ID)
	}

	for _, hit := range scanMentions(gen.Content, present) {
		add(hit.presence)
	}

	if len(witnesses) == 0 {
		if _, public := firstMatch(b.cues, gen.Content); public {
			for _, npc := range gen.NPCsPresent {
				add(npc)
			}
		}
	}
	return witnesses
}

// resolveTags always includes the action's category, the action, and the
// event type, then keyword-driven context and emotion tags, then any
// AI-supplied tags. First occurrence wins on duplicates.
func (b *Builder) resolveTags(gen GenerationContext, a action.Action) []string {
	var tags []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	if category, ok := action.CategoryOf(a); ok {
		add(string(category))
		add(string(a))
	}
	add(string(gen.EventType))

	matched := make(map[string]struct{})
	for _, m := range b.keywords.FindAll(gen.Content) {
		matched[b.keywordTags[m.Pattern()]] = struct{}{}
	}
	for _, class := range tagKeywordClasses {
		if _, ok := matched[class.tag]; ok {
			add(class.tag)
		}
	}

	if gen.Metadata != nil {
		for _, tag := range gen.Metadata.Tags {
			add(tag)
		}
	}
	return tags
}

func containsID(list []Presence, id string) bool {
	for _, p := range list {
		if p.ID == id {
			return true
		}
	}
	return false
}
