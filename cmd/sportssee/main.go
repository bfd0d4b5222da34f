// Package main provides the Sports-See command line interface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/client"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/engine"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/evaluation"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sportssee",
		Short: "Sports-See - natural-language sports question answering",
		Long: `Sports-See answers natural-language sports questions by routing each
one to SQL over the stats database, vector retrieval over the discussion
corpus, or both.

Most commands talk to a running sportssee-server (see --server, or set
SPORTSSEE_SERVER). The ingest command writes to Qdrant directly so a
corpus can be indexed before the server is up.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("server", defaultServer(), "API server base URL")
	rootCmd.PersistentFlags().Duration("timeout", 60*time.Second, "request timeout")
	rootCmd.PersistentFlags().String("format", "text", "output format (text, json)")

	rootCmd.AddCommand(
		askCmd(),
		searchCmd(),
		conversationCmd(),
		ingestCmd(),
		evaluateCmd(),
		healthCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// defaultServer resolves the server URL from SPORTSSEE_SERVER so scripts
// set it once instead of passing --server to every command.
func defaultServer() string {
	if v := os.Getenv("SPORTSSEE_SERVER"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func newClient(cmd *cobra.Command) *client.Client {
	base, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return client.New(client.Config{BaseURL: base, Timeout: timeout})
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return context.WithTimeout(cmd.Context(), timeout)
}

func jsonOutput(cmd *cobra.Command) bool {
	format, _ := cmd.Flags().GetString("format")
	return format == "json"
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a sports question",
		Long: `Ask routes a natural-language question through the answer pipeline and
prints the composed answer.

Pass --conversation to keep follow-up questions in context:

  sportssee ask "who scored the most goals in 2015?"
  sportssee ask --conversation fans-1 "what about the season after?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conversationID, _ := cmd.Flags().GetString("conversation")
			turn, _ := cmd.Flags().GetInt("turn")
			k, _ := cmd.Flags().GetInt("k")
			sources, _ := cmd.Flags().GetBool("sources")

			ctx, cancel := commandContext(cmd)
			defer cancel()

			answer, err := newClient(cmd).Answer(ctx, engine.AnswerRequest{
				Query:          strings.Join(args, " "),
				ConversationID: conversationID,
				TurnNumber:     turn,
				K:              k,
				IncludeSources: sources,
			})
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(answer)
			}

			fmt.Println(answer.Text)
			fmt.Println()
			route := fmt.Sprintf("route: %s", answer.RoutingDecision)
			if answer.RoutingActuallyUsed != answer.RoutingDecision {
				route += fmt.Sprintf(" (answered via %s)", answer.RoutingActuallyUsed)
			}
			fmt.Printf("  %s, %dms\n", route, answer.ProcessingTimeMs)
			if answer.ConversationID != "" {
				fmt.Printf("  conversation: %s, turn %d\n", answer.ConversationID, answer.TurnNumber)
			}
			if answer.GeneratedSQL != "" {
				fmt.Printf("  sql: %s\n", answer.GeneratedSQL)
			}
			if len(answer.SourcesUsed) > 0 {
				fmt.Printf("  sources: %s\n", strings.Join(answer.SourcesUsed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().String("conversation", "", "conversation ID for follow-up context")
	cmd.Flags().Int("turn", 0, "explicit turn number (defaults to the next turn)")
	cmd.Flags().IntP("k", "k", 0, "number of chunks to retrieve")
	cmd.Flags().Bool("sources", false, "show which sources informed the answer")

	return cmd
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the discussion corpus",
		Long: `Search runs a raw vector search over the indexed corpus and prints the
ranked chunks without composing an answer. Filters restrict results by
payload fields:

  sportssee search --filter data_type=recap "cup final reaction"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := cmd.Flags().GetInt("k")
			rawFilters, _ := cmd.Flags().GetStringArray("filter")

			filters, err := parseFilters(rawFilters)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			resp, err := newClient(cmd).Search(ctx, client.SearchRequest{
				Query:   strings.Join(args, " "),
				K:       k,
				Filters: filters,
			})
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(resp)
			}

			for i, r := range resp.Results {
				fmt.Printf("%2d. [%.3f] %s", i+1, r.BoostedScore, r.ID)
				if r.Metadata.Source != "" {
					fmt.Printf(" (%s)", r.Metadata.Source)
				}
				fmt.Println()
				fmt.Printf("    %s\n", truncate(strings.TrimSpace(r.Text), 160))
			}
			fmt.Printf("\n%d results\n", resp.Count)
			return nil
		},
	}

	cmd.Flags().IntP("k", "k", 0, "number of results")
	cmd.Flags().StringArray("filter", nil, "payload filter as key=value (repeatable)")

	return cmd
}

func parseFilters(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(raw))
	for _, f := range raw {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", f)
		}
		filters[key] = value
	}
	return filters, nil
}

func conversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversation",
		Aliases: []string{"conv"},
		Short:   "Inspect and manage conversations",
	}

	cmd.AddCommand(conversationListCmd(), conversationArchiveCmd())

	return cmd
}

func conversationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [conversation-id]",
		Short: "List the turns of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			detail, err := newClient(cmd).Conversation(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(detail)
			}

			fmt.Printf("conversation %s (%s, %d turns)\n",
				detail.ConversationID, detail.State, len(detail.Turns))
			for _, turn := range detail.Turns {
				fmt.Printf("\n%2d. Q: %s\n", turn.TurnNumber, turn.Query)
				fmt.Printf("    A: %s\n", truncate(turn.AnswerText, 200))
				if turn.RoutingLabel != "" {
					fmt.Printf("       route: %s\n", turn.RoutingLabel)
				}
			}
			return nil
		},
	}
}

func conversationArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive [conversation-id]",
		Short: "Archive a conversation",
		Long: `Archive closes a conversation for new turns. Archiving an already
archived conversation succeeds without effect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			result, err := newClient(cmd).ArchiveConversation(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(result)
			}

			fmt.Printf("conversation %s is now %s\n", result.ConversationID, result.State)
			return nil
		},
	}
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [judgments.jsonl]",
		Short: "Score retrieval quality against judged queries",
		Long: `Evaluate loads a JSONL file of judged queries (query text plus relevance
grades per chunk ID), runs each one through the server's search, and
prints ranking metrics at the requested cutoffs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, _ := cmd.Flags().GetIntSlice("k")

			queries, err := evaluation.LoadQueries(args[0])
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				return fmt.Errorf("no judged queries in %s", args[0])
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			report, err := newClient(cmd).Evaluate(ctx, queries, ks)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(report)
			}

			for _, r := range report.Results {
				fmt.Printf("%-8s mrr=%.3f ap=%.3f  %s\n",
					r.QueryID, r.MRR, r.AP, truncate(r.Query, 60))
			}

			s := report.Summary
			fmt.Printf("\n%d queries: MRR %.3f, MAP %.3f\n", s.QueryCount, s.MeanMRR, s.MAP)
			for _, k := range sortedCutoffs(s.MeanNDCG) {
				fmt.Printf("  @%-3d ndcg %.3f, precision %.3f, recall %.3f\n",
					k, s.MeanNDCG[k], s.MeanPrecision[k], s.MeanRecall[k])
			}
			return nil
		},
	}

	cmd.Flags().IntSlice("k", nil, "cutoff depths (default 1,3,5,10)")

	return cmd
}

func sortedCutoffs(m map[int]float64) []int {
	ks := make([]int, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	return ks
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server and dependency health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			status, err := newClient(cmd).Health(ctx)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				if err := printJSON(status); err != nil {
					return err
				}
			} else {
				header := fmt.Sprintf("server %s", status.Status)
				if status.Version != "" {
					header += fmt.Sprintf(" (version %s, up %s)", status.Version, status.Uptime)
				}
				fmt.Println(header)

				names := make([]string, 0, len(status.Components))
				for name := range status.Components {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					comp := status.Components[name]
					line := fmt.Sprintf("  %-14s %s", name, comp.Status)
					if comp.Latency > 0 {
						line += fmt.Sprintf(" (%dms)", comp.Latency)
					}
					if comp.Message != "" {
						line += ": " + comp.Message
					}
					fmt.Println(line)
				}
			}

			// Unhealthy maps to a nonzero exit code.
			if status.Status == "unhealthy" {
				return fmt.Errorf("server is unhealthy")
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sportssee %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)

			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()
			if info, err := newClient(cmd).Version(ctx); err == nil {
				fmt.Printf("  server: %s (up %s, %s)\n", info.Version, info.Uptime, info.GoVersion)
			} else {
				fmt.Println("  server: unreachable")
			}
		},
	}
}
