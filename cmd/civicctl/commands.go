package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/civic-india/backend/internal/aggregator"
	"github.com/civic-india/backend/internal/cache"
	"github.com/civic-india/backend/internal/evidence/sources"
	"github.com/civic-india/backend/internal/intent"
	"github.com/civic-india/backend/internal/language"
	"github.com/civic-india/backend/internal/prompt"
	"github.com/civic-india/backend/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "civicctl",
		Short: "Inspect the civic query pipeline locally",
		Long: `civicctl runs intent classification, language detection and evidence
aggregation in-process with the in-memory cache, printing JSON.

Example usage:
  civicctl classify "Who is the MLA for Mylapore?"
  civicctl detect "मेरे सांसद कौन हैं?"
  civicctl evidence "What is the RTI Act?" --intent law --context`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				return nil
			}
			return logger.Init(logLevel, "console", "stderr")
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "enable logging to stderr at this level (debug, info, warn, error)")

	root.AddCommand(newClassifyCmd(), newDetectCmd(), newEvidenceCmd())
	return root
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Print the intent a query classifies to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"text":   text,
				"intent": intent.Classify(text),
			})
		},
	}
}

func newDetectCmd() *cobra.Command {
	var override string

	cmd := &cobra.Command{
		Use:   "detect <text>",
		Short: "Print the response language for a text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"text":     text,
				"detected": language.Detect(text),
				"resolved": language.Resolve(override, text),
			})
		},
	}

	cmd.Flags().StringVar(&override, "language", "", "explicit language override")
	return cmd
}

func newEvidenceCmd() *cobra.Command {
	var (
		rawIntent   string
		disabled    []string
		timeout     time.Duration
		showContext bool
	)

	cmd := &cobra.Command{
		Use:   "evidence <query>",
		Short: "Aggregate and print the evidence bundle for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			in := intent.Classify(query)
			if rawIntent != "" {
				parsed, ok := intent.Parse(rawIntent)
				if !ok {
					return fmt.Errorf("unknown intent %q", rawIntent)
				}
				in = parsed
			}

			providers, err := sources.Default().Without(disabled...)
			if err != nil {
				return err
			}

			agg, err := aggregator.New(cache.NewMemoryStore(cache.DefaultTTL), providers, aggregator.DefaultRoutes(), aggregator.Config{
				ProviderTimeout: timeout,
			})
			if err != nil {
				return err
			}

			bundle := agg.FetchRelevantData(cmd.Context(), query, in)

			out := map[string]interface{}{
				"query":     query,
				"intent":    in,
				"providers": agg.Providers(in),
				"bundle":    bundle,
			}
			if showContext {
				out["context"] = prompt.BuildContext(in, bundle)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&rawIntent, "intent", "", "force an intent instead of classifying")
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "provider IDs to leave out")
	cmd.Flags().DurationVar(&timeout, "timeout", aggregator.DefaultProviderTimeout, "per-provider timeout")
	cmd.Flags().BoolVar(&showContext, "context", false, "include the rendered prompt context")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
