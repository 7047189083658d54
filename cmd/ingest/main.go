// Package main provides the ingest CLI: ingest a user's commits or search
// the stored ones from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/commitscope/internal/app"
	"github.com/bull/commitscope/internal/config"
)

var (
	envFile     string
	searchLimit int
)

var rootCmd = &cobra.Command{
	Use:          "ingest",
	Short:        "GitHub commit ingestion and semantic search",
	Long:         "CLI tool for ingesting a GitHub user's commits into the commit store and searching them.",
	SilenceUsage: true,
}

var processCmd = &cobra.Command{
	Use:   "process <user>",
	Short: "Ingest the commits a GitHub user made",
	Long: `Discovers the repositories the user contributed to and ingests their
commits on each default branch.

Commits already stored, commits with an empty patch and commits whose patch
exceeds MAX_PATCH_BYTES are skipped. Each remaining commit is summarized,
embedded and inserted. Running again only processes new commits.

Environment variables:
  GITHUB_TOKEN      GitHub token (required)
  OPENAI_API_KEY    OpenAI API key for embeddings (required)
  SUMMARY_PROVIDER  gemini (default) or openai
  GEMINI_API_KEY    Gemini API key (required for gemini)
  STORE_BACKEND     mongo (default), sql or qdrant`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank stored commits against a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of commits to print (0 for all)")
	rootCmd.AddCommand(processCmd, searchCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.New(ctx, cfg, cfg.Logger(os.Stderr))
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()
	user := args[0]

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Processing commits for %s...\n", user)
	result, err := a.Pipeline.Process(ctx, user)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Processing complete!")
	fmt.Printf("  Expected:  %d\n", result.TotalExpected)
	fmt.Printf("  Processed: %d\n", result.TotalProcessed)
	fmt.Printf("  Duration:  %s\n", time.Since(start).Round(time.Second))
	if len(result.Repositories) > 0 {
		fmt.Println()
		fmt.Println("Repositories:")
		for _, repo := range result.Repositories {
			fmt.Printf("  - %s\n", repo)
		}
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.Ranker.Search(ctx, strings.Join(args, " "))
	if len(results) == 0 {
		fmt.Println("No commits found.")
		return nil
	}
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	for i, r := range results {
		c := r.Commit
		fmt.Printf("%2d. %.4f  %s/%s  %s  %s\n", i+1, r.Similarity, c.Org, c.Repo, shortSHA(c.SHA), c.Message)
		if langs := c.Summary.Languages; len(langs) > 0 {
			fmt.Printf("    languages: %s\n", strings.Join(langs, ", "))
		}
		if patterns := c.Summary.Patterns; len(patterns) > 0 {
			fmt.Printf("    patterns:  %s\n", strings.Join(patterns, ", "))
		}
	}
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
