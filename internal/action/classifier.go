package action

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reckoning/internal/llm"
)

const (
	defaultMinRuleConfidence = 0.7
	defaultAIFallbackTimeout = 10 * time.Second
)

// Options tunes classifier behavior. Zero values mean the defaults: a 0.7
// rule-confidence threshold, fallback enabled, a 10s fallback timeout.
type Options struct {
	MinRuleConfidence float64
	DisableAIFallback bool
	AIFallbackTimeout time.Duration
}

// Result is the outcome of one classification. A zero Action means no
// confident match.
type Result struct {
	Action         Action
	Category       Category
	Confidence     float64
	UsedAIFallback bool
	MatchedPattern string
}

// Classifier maps narration text onto the action vocabulary. Classify is
// pure and safe for concurrent use; the fallback path makes one bounded
// external call per invocation.
type Classifier struct {
	minRuleConfidence float64
	enableAIFallback  bool
	aiTimeout         time.Duration
	provider          llm.Provider
}

func NewClassifier(provider llm.Provider, opts Options) *Classifier {
	c := &Classifier{
		minRuleConfidence: opts.MinRuleConfidence,
		enableAIFallback:  !opts.DisableAIFallback,
		aiTimeout:         opts.AIFallbackTimeout,
		provider:          provider,
	}
	if c.minRuleConfidence <= 0 {
		c.minRuleConfidence = defaultMinRuleConfidence
	}
	if c.aiTimeout <= 0 {
		c.aiTimeout = defaultAIFallbackTimeout
	}
	return c
}

// Classify evaluates every category table against content. Within a category
// only a strictly higher confidence replaces the running best; across
// categories the first-found global maximum wins, so ties resolve to the
// earlier category in precedence order. Below the threshold the best-match
// confidence is reported without an action.
func (c *Classifier) Classify(content string) Result {
	if strings.TrimSpace(content) == "" {
		return Result{}
	}

	var best *PatternDef
	var bestCategory Category
	for _, table := range patternTables {
		var categoryBest *PatternDef
		for i := range table.patterns {
			p := &table.patterns[i]
			if !p.re.MatchString(content) {
				continue
			}
			if categoryBest == nil || p.confidence > categoryBest.confidence {
				categoryBest = p
			}
		}
		if categoryBest == nil {
			continue
		}
		if best == nil || categoryBest.confidence > best.confidence {
			best = categoryBest
			bestCategory = table.category
		}
	}

	if best == nil {
		return Result{}
	}
	if best.confidence < c.minRuleConfidence {
		return Result{Confidence: clampConfidence(best.confidence)}
	}
	return Result{
		Action:         best.action,
		Category:       bestCategory,
		Confidence:     clampConfidence(best.confidence),
		MatchedPattern: best.re.String(),
	}
}

// ClassifyWithFallback runs the rule path first and escalates to the model
// only when no action cleared the threshold and fallback is enabled.
func (c *Classifier) ClassifyWithFallback(ctx context.Context, content string) Result {
	result := c.Classify(content)
	if result.Action != "" || !c.enableAIFallback {
		return result
	}
	if c.provider == nil || !c.provider.Available() {
		return result
	}
	return c.aiClassify(ctx, content)
}

// aiClassify asks the model for a vocabulary-constrained reply. Transport
// failures, timeouts, malformed replies, and out-of-vocabulary actions all
// degrade to a zero-confidence result; this path never returns an error.
func (c *Classifier) aiClassify(ctx context.Context, content string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.aiTimeout)
	defer cancel()

	fallback := Result{UsedAIFallback: true}

	resp, err := c.provider.Execute(ctx, llm.Request{
		Prompt: buildClassificationPrompt(content),
		Schema: classificationSchema(),
	})
	if err != nil {
		return fallback
	}

	var reply struct {
		Action     string  `json:"action"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &reply); err != nil {
		return fallback
	}

	a := Action(strings.TrimSpace(reply.Action))
	category, ok := CategoryOf(a)
	if !ok {
		return fallback
	}
	return Result{
		Action:         a,
		Category:       category,
		Confidence:     clampConfidence(reply.Confidence),
		UsedAIFallback: true,
	}
}

func buildClassificationPrompt(content string) string {
	var b strings.Builder
	b.WriteString("Classify one line of tabletop-RPG narration as a single action verb.\n\n")
	b.WriteString("Allowed actions by category:\n")
	for _, category := range ClassifierCategories {
		b.WriteString(fmt.Sprintf("- %s: ", category))
		for i, a := range Vocabulary[category] {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(string(a))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nNarration:\n")
	b.WriteString(content)
	b.WriteString("\n\nReply with the single best-fit action from the allowed list, a confidence between 0 and 1, and a short reasoning.")
	return b.String()
}

func classificationSchema() *llm.Schema {
	var vocabulary []string
	for _, a := range All() {
		vocabulary = append(vocabulary, string(a))
	}
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"action":     {Type: llm.TypeString, Enum: vocabulary, Description: "best-fit action"},
			"confidence": {Type: llm.TypeNumber, Description: "confidence between 0 and 1"},
			"reasoning":  {Type: llm.TypeString, Description: "short justification"},
		},
		Required: []string{"action", "confidence", "reasoning"},
	}
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
