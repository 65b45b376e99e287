package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/webscraper/internal/config"
	"github.com/nao1215/webscraper/internal/database"
	"github.com/nao1215/webscraper/internal/model"
)

// historyDateLayout is how run timestamps are printed.
const historyDateLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command shows the runs stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [target-url]",
		Short: "Show saved runs and compare them",
		Long: `History displays the runs saved by 'webscraper scan' for a target.

By default it lists every run, newest first, and the most frequent words of
the latest run. With --compare it shows what changed between the latest run
and the one before it (or the run given by --with-run-id):
- whether the target page or the linked page changed
- external resources that appeared or disappeared
- words whose counts changed

Examples:
  # List runs for a target
  webscraper history https://www.example.com

  # Compare the two latest runs
  webscraper history --compare https://www.example.com

  # Compare the latest run with run 3
  webscraper history --compare --with-run-id 3 https://www.example.com

  # List every target in the database
  webscraper history --list-targets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-targets", "L", false,
		"List all targets in the database")
	cmd.Flags().BoolP("compare", "C", false,
		"Compare the latest run with a previous one")
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use the listing to see IDs)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().IntP("top", "n", config.DefaultTopWords,
		"Number of most frequent words shown for the latest run")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	listTargets bool
	compare     bool
	withRunID   int64
	jsonOutput  bool
	top         int
	dbDir       string
}

// parseHistoryOptions reads the history flags.
func parseHistoryOptions(cmd *cobra.Command) (historyOptions, error) {
	var (
		opts historyOptions
		err  error
	)
	flags := cmd.Flags()
	if opts.listTargets, err = flags.GetBool("list-targets"); err != nil {
		return opts, err
	}
	if opts.compare, err = flags.GetBool("compare"); err != nil {
		return opts, err
	}
	if opts.withRunID, err = flags.GetInt64("with-run-id"); err != nil {
		return opts, err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.top, err = flags.GetInt("top"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return opts, err
	}
	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd)
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var target string
	if !opts.listTargets {
		if len(args) == 0 {
			return errors.New("target URL is required (use --list-targets to see saved targets)")
		}
		target = args[0]
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.listTargets {
		return listTargets(ctx, db, out, opts.jsonOutput)
	}
	if opts.compare {
		return runComparison(ctx, db, out, target, opts)
	}
	return listRunHistory(ctx, db, out, target, opts)
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// listTargets lists every target that has runs in the database.
func listTargets(ctx context.Context, db *database.HistoryDB, out io.Writer, jsonOutput bool) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, targets)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No saved runs found in the database.")
		fmt.Fprintln(out, "\nUse 'webscraper scan <url>' to scan a page.")
		return nil
	}

	fmt.Fprintf(out, "Scanned targets (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  • %s\n", target)
	}
	fmt.Fprintln(out, "\nUse 'webscraper history <url>' to see the runs of a target.")
	return nil
}

// historyListing is the JSON form of the run listing.
type historyListing struct {
	TargetURL string                 `json:"target_url"`
	Runs      []database.RunMetadata `json:"runs"`
	TopWords  []wordCount            `json:"top_words"`
}

// wordCount is one word of the latest run.
type wordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// listRunHistory lists the runs of target and the top words of the latest.
func listRunHistory(ctx context.Context, db *database.HistoryDB, out io.Writer, target string, opts historyOptions) error {
	runs, err := db.GetRunHistory(ctx, target)
	if err != nil {
		return err
	}

	top := make([]wordCount, 0)
	if len(runs) > 0 {
		latest, err := db.GetRunByID(ctx, runs[0].ID)
		if err != nil {
			return err
		}
		if latest != nil && latest.WordFrequency != nil {
			for _, e := range latest.WordFrequency.Top(opts.top) {
				top = append(top, wordCount{Word: e.Word, Count: e.Count})
			}
		}
	}

	if opts.jsonOutput {
		return writeJSON(out, historyListing{TargetURL: target, Runs: runs, TopWords: top})
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No saved runs found for %s\n", target)
		fmt.Fprintln(out, "\nUse 'webscraper scan' to scan this target.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", target, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-6s  %-9s  %s\n", "ID", "Date", "Found", "Resources", "Words")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
	for _, run := range runs {
		found := "no"
		if run.PolicyFound {
			found = "yes"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-6s  %-9d  %d\n",
			run.ID,
			run.Timestamp.Local().Format(historyDateLayout),
			found,
			run.Summary.ExternalResources,
			run.Summary.TotalWords,
		)
	}

	if len(top) > 0 {
		fmt.Fprintf(out, "\nTop words of the latest run:\n")
		for i, wc := range top {
			fmt.Fprintf(out, "  %2d. %-20s %d\n", i+1, wc.Word, wc.Count)
		}
	}
	return nil
}

// RunComparison holds the differences between two runs of a target.
type RunComparison struct {
	TargetURL        string       `json:"target_url"`
	PreviousRunID    int64        `json:"previous_run_id"`
	CurrentRunID     int64        `json:"current_run_id"`
	TargetChanged    bool         `json:"target_changed"`
	PolicyChanged    bool         `json:"policy_changed"`
	PolicyURLChanged bool         `json:"policy_url_changed"`
	AddedResources   []string     `json:"added_resources"`
	RemovedResources []string     `json:"removed_resources"`
	WordChanges      []WordChange `json:"word_changes"`
}

// WordChange is a word whose count differs between two runs.
// A zero count means the word is absent from that run.
type WordChange struct {
	Word     string `json:"word"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
}

// compareRuns computes the differences from previous to current.
// Page changes are detected by content hash; a page missing from one run
// and present in the other counts as changed.
func compareRuns(previous, current *model.Report) *RunComparison {
	result := &RunComparison{
		TargetURL:        current.TargetURL,
		TargetChanged:    pageHash(previous.Target) != pageHash(current.Target),
		PolicyChanged:    pageHash(previous.Policy) != pageHash(current.Policy),
		PolicyURLChanged: previous.PolicyURL != current.PolicyURL,
		AddedResources:   difference(current.ExternalResources, previous.ExternalResources),
		RemovedResources: difference(previous.ExternalResources, current.ExternalResources),
		WordChanges:      make([]WordChange, 0),
	}

	prevWords := wordCounts(previous)
	curWords := wordCounts(current)
	seen := make(map[string]struct{})
	for _, words := range [][]wordCount{curWords, prevWords} {
		for _, wc := range words {
			if _, ok := seen[wc.Word]; ok {
				continue
			}
			seen[wc.Word] = struct{}{}
			p, c := countOf(previous, wc.Word), countOf(current, wc.Word)
			if p != c {
				result.WordChanges = append(result.WordChanges, WordChange{Word: wc.Word, Previous: p, Current: c})
			}
		}
	}
	return result
}

// pageHash returns the content hash of page, or "" when it is nil.
func pageHash(page *model.Page) string {
	if page == nil {
		return ""
	}
	return page.Hash
}

// difference returns the values of a missing from b, in a's order and
// without duplicates.
func difference(a, b []string) []string {
	out := make([]string, 0)
	for _, v := range a {
		if !slices.Contains(b, v) && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// wordCounts returns the words of the report in first-seen order.
func wordCounts(r *model.Report) []wordCount {
	if r.WordFrequency == nil {
		return nil
	}
	entries := r.WordFrequency.Entries()
	out := make([]wordCount, 0, len(entries))
	for _, e := range entries {
		out = append(out, wordCount{Word: e.Word, Count: e.Count})
	}
	return out
}

// countOf returns how often word occurs in the report.
func countOf(r *model.Report, word string) int {
	if r.WordFrequency == nil {
		return 0
	}
	return r.WordFrequency.Get(word)
}

// runComparison compares the latest run of target with an earlier one.
func runComparison(ctx context.Context, db *database.HistoryDB, out io.Writer, target string, opts historyOptions) error {
	runs, err := db.GetRunHistory(ctx, target)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no saved runs found for %s", target)
	}

	currentID := runs[0].ID
	previousID := opts.withRunID
	if previousID == 0 {
		if len(runs) < 2 {
			return fmt.Errorf("need at least two runs of %s to compare (found %d)", target, len(runs))
		}
		previousID = runs[1].ID
	}

	current, err := db.GetRunByID(ctx, currentID)
	if err != nil {
		return err
	}
	previous, err := db.GetRunByID(ctx, previousID)
	if err != nil {
		return err
	}
	if previous == nil {
		return fmt.Errorf("run %d not found", previousID)
	}
	if previous.TargetURL != target {
		return fmt.Errorf("run %d belongs to %s, not %s", previousID, previous.TargetURL, target)
	}

	result := compareRuns(previous, current)
	result.PreviousRunID = previousID
	result.CurrentRunID = currentID

	if opts.jsonOutput {
		return writeJSON(out, result)
	}
	return outputComparisonText(out, result)
}

// changedText renders a page change flag.
func changedText(changed bool) string {
	if changed {
		return "changed"
	}
	return "unchanged"
}

// outputComparisonText prints the comparison for humans.
func outputComparisonText(out io.Writer, result *RunComparison) error {
	fmt.Fprintf(out, "Run Comparison: %s\n", result.TargetURL)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "\nPrevious run: %d\n", result.PreviousRunID)
	fmt.Fprintf(out, "Current run:  %d\n", result.CurrentRunID)
	fmt.Fprintf(out, "\nTarget page:  %s\n", changedText(result.TargetChanged))
	fmt.Fprintf(out, "Linked page:  %s\n", changedText(result.PolicyChanged))
	if result.PolicyURLChanged {
		fmt.Fprintln(out, "Linked URL:   changed")
	}

	if len(result.AddedResources) > 0 {
		fmt.Fprintf(out, "\nNew external resources (%d):\n", len(result.AddedResources))
		for _, r := range result.AddedResources {
			fmt.Fprintf(out, "  [+] %s\n", r)
		}
	}
	if len(result.RemovedResources) > 0 {
		fmt.Fprintf(out, "\nRemoved external resources (%d):\n", len(result.RemovedResources))
		for _, r := range result.RemovedResources {
			fmt.Fprintf(out, "  [-] %s\n", r)
		}
	}

	if len(result.WordChanges) > 0 {
		fmt.Fprintf(out, "\nWord count changes (%d):\n", len(result.WordChanges))
		for _, wc := range result.WordChanges {
			fmt.Fprintf(out, "  %-20s %d -> %d\n", wc.Word, wc.Previous, wc.Current)
		}
	} else {
		fmt.Fprintln(out, "\nNo word count changes")
	}
	return nil
}
