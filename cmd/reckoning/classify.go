package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reckoning/internal/action"
	"reckoning/internal/config"
	"reckoning/internal/llm"
)

func classifyCmd() *cobra.Command {
	var useFallback bool
	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify narration text against the action vocabulary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(strings.Join(args, " "), useFallback)
		},
	}
	cmd.Flags().BoolVar(&useFallback, "fallback", false, "Escalate to the language model when rules fail")
	return cmd
}

func runClassify(content string, useFallback bool) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig("reckoning.yaml")
	if err != nil {
		return err
	}

	classifier, err := buildClassifier(ctx, cfg, useFallback)
	if err != nil {
		return err
	}

	var result action.Result
	if useFallback {
		result = classifier.ClassifyWithFallback(ctx, content)
	} else {
		result = classifier.Classify(content)
	}

	if result.Action == "" {
		fmt.Fprintf(os.Stdout, "no confident match (best confidence %.2f)\n", result.Confidence)
		return nil
	}
	fmt.Fprintf(os.Stdout, "action:     %s\n", result.Action)
	fmt.Fprintf(os.Stdout, "category:   %s\n", result.Category)
	fmt.Fprintf(os.Stdout, "confidence: %.2f\n", result.Confidence)
	if result.UsedAIFallback {
		fmt.Fprintln(os.Stdout, "source:     ai fallback")
	} else {
		fmt.Fprintf(os.Stdout, "pattern:    %s\n", result.MatchedPattern)
	}
	return nil
}

// buildClassifier wires the rule classifier, attaching the Gemini provider
// only when the fallback is both requested and configured.
func buildClassifier(ctx context.Context, cfg *config.ProjectConfig, needProvider bool) (*action.Classifier, error) {
	opts := action.Options{
		MinRuleConfidence: cfg.Classifier.MinRuleConfidence,
		DisableAIFallback: !cfg.Classifier.FallbackEnabled(),
		AIFallbackTimeout: time.Duration(cfg.Classifier.AIFallbackTimeoutMS) * time.Millisecond,
	}

	var provider llm.Provider
	if needProvider && cfg.Classifier.FallbackEnabled() {
		apiKey := os.Getenv(cfg.Classifier.APIKeyEnv)
		if apiKey != "" {
			gemini, err := llm.NewGemini(ctx, apiKey, cfg.Classifier.Model)
			if err != nil {
				return nil, err
			}
			provider = gemini
		}
	}
	return action.NewClassifier(provider, opts), nil
}
