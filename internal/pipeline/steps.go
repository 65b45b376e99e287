package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/nao1215/webscraper/internal/extract"
	"github.com/nao1215/webscraper/internal/fetch"
	"github.com/nao1215/webscraper/internal/model"
	"github.com/nao1215/webscraper/internal/report"
	"github.com/nao1215/webscraper/internal/wordfreq"
)

// errNoTargetPage is returned by steps that run before the target was fetched.
var errNoTargetPage = errors.New("target page has not been fetched")

// PageFetcher downloads and parses a single page.
// *fetch.Fetcher implements it; tests substitute their own.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*model.Page, error)
}

// Resolver resolves a link destination against the page it was found on.
type Resolver func(base, ref string) (string, error)

// targetDocument returns the parsed target page or an error when the fetch
// step has not run.
func targetDocument(r *model.Report) (*model.Page, error) {
	if r.Target == nil || r.Target.Document == nil {
		return nil, errNoTargetPage
	}
	return r.Target, nil
}

// requirePolicy returns ErrSkipped wrapping extract.ErrLinkNotFound when the
// link search came up empty.
func requirePolicy(r *model.Report) error {
	if !r.PolicyFound {
		return fmt.Errorf("%w: %w", ErrSkipped, extract.ErrLinkNotFound)
	}
	return nil
}

// FetchTargetStep downloads and parses the target page.
// A fetch failure is fatal for the run.
type FetchTargetStep struct {
	fetcher PageFetcher
}

// NewFetchTargetStep creates a step that fetches report.TargetURL.
func NewFetchTargetStep(fetcher PageFetcher) *FetchTargetStep {
	return &FetchTargetStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchTargetStep) Name() string {
	return "fetch_target"
}

// Do executes the fetch.
func (s *FetchTargetStep) Do(ctx context.Context, r *model.Report) error {
	page, err := s.fetcher.Fetch(ctx, r.TargetURL)
	if err != nil {
		return fmt.Errorf("failed to fetch target page: %w", err)
	}
	r.Target = page
	return nil
}

// ExternalResourcesStep extracts the externally hosted resources of the
// target page and exports them to external_resources.json.
type ExternalResourcesStep struct {
	rules     []extract.Rule
	outputDir string
	output    io.Writer
}

// ExternalResourcesStepOption configures an ExternalResourcesStep.
type ExternalResourcesStepOption func(*ExternalResourcesStep)

// WithResourceRules replaces the tag/attribute table.
// An empty table keeps the default.
func WithResourceRules(rules []extract.Rule) ExternalResourcesStepOption {
	return func(s *ExternalResourcesStep) {
		if len(rules) > 0 {
			s.rules = rules
		}
	}
}

// NewExternalResourcesStep creates the step. Confirmation lines go to output.
func NewExternalResourcesStep(outputDir string, output io.Writer, opts ...ExternalResourcesStepOption) *ExternalResourcesStep {
	s := &ExternalResourcesStep{
		rules:     extract.DefaultRules,
		outputDir: outputDir,
		output:    output,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ExternalResourcesStep) Name() string {
	return "external_resources"
}

// Do executes the extraction and export.
func (s *ExternalResourcesStep) Do(_ context.Context, r *model.Report) error {
	page, err := targetDocument(r)
	if err != nil {
		return err
	}
	r.ExternalResources = extract.ExternalResources(page.Document, s.rules)

	path := filepath.Join(s.outputDir, report.ExternalResourcesFile)
	if err := report.ExportJSON(s.output, path, r.ExternalResources); err != nil {
		return err
	}
	r.AddExportedFile(path)
	return nil
}

// HyperlinksStep enumerates the anchors of the target page.
// It can print every destination and export the list.
type HyperlinksStep struct {
	printTo   io.Writer
	exportDir string
	output    io.Writer
}

// HyperlinksStepOption configures a HyperlinksStep.
type HyperlinksStepOption func(*HyperlinksStep)

// WithPrintLinks prints each destination, one per line, to w.
func WithPrintLinks(w io.Writer) HyperlinksStepOption {
	return func(s *HyperlinksStep) {
		s.printTo = w
	}
}

// WithExportLinks exports the hyperlinks to dir/hyperlinks.json and prints
// the confirmation line to output.
func WithExportLinks(dir string, output io.Writer) HyperlinksStepOption {
	return func(s *HyperlinksStep) {
		s.exportDir = dir
		s.output = output
	}
}

// NewHyperlinksStep creates the step.
func NewHyperlinksStep(opts ...HyperlinksStepOption) *HyperlinksStep {
	s := &HyperlinksStep{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *HyperlinksStep) Name() string {
	return "hyperlinks"
}

// Do executes the enumeration.
func (s *HyperlinksStep) Do(_ context.Context, r *model.Report) error {
	page, err := targetDocument(r)
	if err != nil {
		return err
	}
	r.Hyperlinks = extract.Hyperlinks(page.Document)

	if s.printTo != nil {
		for _, dest := range extract.Destinations(r.Hyperlinks) {
			if _, err := fmt.Fprintln(s.printTo, dest); err != nil {
				return fmt.Errorf("failed to print hyperlinks: %w", err)
			}
		}
	}

	if s.output != nil {
		path := filepath.Join(s.exportDir, report.HyperlinksFile)
		if err := report.ExportJSON(s.output, path, r.Hyperlinks); err != nil {
			return err
		}
		r.AddExportedFile(path)
	}
	return nil
}

// LinkSearchStep looks for the hyperlink whose text matches report.LinkText
// and resolves its destination against the target URL.
//
// Not finding the link is a normal outcome: the step completes with
// PolicyFound=false and the steps that need the linked page skip.
type LinkSearchStep struct {
	resolve Resolver
	logger  *slog.Logger
}

// LinkSearchStepOption configures a LinkSearchStep.
type LinkSearchStepOption func(*LinkSearchStep)

// WithLinkSearchLogger sets a custom logger for the link search step.
func WithLinkSearchLogger(logger *slog.Logger) LinkSearchStepOption {
	return func(s *LinkSearchStep) {
		s.logger = logger
	}
}

// NewLinkSearchStep creates the step. A nil resolve means fetch.Resolve.
func NewLinkSearchStep(resolve Resolver, opts ...LinkSearchStepOption) *LinkSearchStep {
	if resolve == nil {
		resolve = fetch.Resolve
	}
	s := &LinkSearchStep{
		resolve: resolve,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LinkSearchStep) Name() string {
	return "link_search"
}

// Do executes the search.
func (s *LinkSearchStep) Do(_ context.Context, r *model.Report) error {
	// The first matching link decides; an empty href there means not found.
	href, ok := extract.FindByText(r.Hyperlinks, r.LinkText)
	if !ok || href == "" {
		s.logger.Warn("link not found",
			"link_text", r.LinkText,
			"hyperlinks", len(r.Hyperlinks),
		)
		r.PolicyFound = false
		return nil
	}

	resolved, err := s.resolve(r.TargetURL, href)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", href, err)
	}
	r.PolicyFound = true
	r.PolicyHref = href
	r.PolicyURL = resolved
	s.logger.Debug("link found", "href", href, "url", resolved)
	return nil
}

// FetchPolicyStep downloads the page the link search found.
type FetchPolicyStep struct {
	fetcher PageFetcher
}

// NewFetchPolicyStep creates a step that fetches report.PolicyURL.
func NewFetchPolicyStep(fetcher PageFetcher) *FetchPolicyStep {
	return &FetchPolicyStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchPolicyStep) Name() string {
	return "fetch_policy"
}

// Do executes the fetch.
func (s *FetchPolicyStep) Do(ctx context.Context, r *model.Report) error {
	if err := requirePolicy(r); err != nil {
		return err
	}
	page, err := s.fetcher.Fetch(ctx, r.PolicyURL)
	if err != nil {
		return fmt.Errorf("failed to fetch linked page: %w", err)
	}
	r.Policy = page
	return nil
}

// WordFrequencyStep counts the words of the linked page's visible text.
// The page body is released afterwards; only its metadata is kept.
type WordFrequencyStep struct{}

// NewWordFrequencyStep creates the step.
func NewWordFrequencyStep() *WordFrequencyStep {
	return &WordFrequencyStep{}
}

// Name returns the step name.
func (s *WordFrequencyStep) Name() string {
	return "word_frequency"
}

// Do executes the count.
func (s *WordFrequencyStep) Do(_ context.Context, r *model.Report) error {
	if err := requirePolicy(r); err != nil {
		return err
	}
	if r.Policy == nil {
		return fmt.Errorf("%w: linked page has not been fetched", ErrSkipped)
	}
	r.WordFrequency = wordfreq.Count(extract.VisibleText(r.Policy.Document))
	r.Policy.Release()
	return nil
}

// ExportWordFrequencyStep writes the frequency table to word_frequency.json.
type ExportWordFrequencyStep struct {
	outputDir string
	output    io.Writer
}

// NewExportWordFrequencyStep creates the step. Confirmation lines go to output.
func NewExportWordFrequencyStep(outputDir string, output io.Writer) *ExportWordFrequencyStep {
	return &ExportWordFrequencyStep{outputDir: outputDir, output: output}
}

// Name returns the step name.
func (s *ExportWordFrequencyStep) Name() string {
	return "export_word_frequency"
}

// Do executes the export.
func (s *ExportWordFrequencyStep) Do(_ context.Context, r *model.Report) error {
	if err := requirePolicy(r); err != nil {
		return err
	}
	if r.WordFrequency == nil {
		return fmt.Errorf("%w: no word frequency to export", ErrSkipped)
	}
	path := filepath.Join(s.outputDir, report.WordFrequencyFile)
	if err := report.ExportJSON(s.output, path, r.WordFrequency); err != nil {
		return err
	}
	r.AddExportedFile(path)
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// OutputDir is where the JSON files are written.
	OutputDir string

	// Rules is the tag/attribute table for resource extraction.
	Rules []extract.Rule

	// Stdout receives the "File saved to" lines and printed links.
	Stdout io.Writer

	// PrintLinks prints every hyperlink destination.
	PrintLinks bool

	// ExportLinks writes hyperlinks.json.
	ExportLinks bool

	// Resolve resolves the found link against the target URL.
	Resolve Resolver

	// Logger is passed to the steps that log on their own.
	Logger *slog.Logger
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineOutputDir sets the export directory.
func WithPipelineOutputDir(dir string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.OutputDir = dir
	}
}

// WithPipelineRules sets the resource extraction table.
func WithPipelineRules(rules []extract.Rule) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Rules = rules
	}
}

// WithPipelineStdout sets where confirmations and printed links go.
func WithPipelineStdout(w io.Writer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Stdout = w
	}
}

// WithPipelinePrintLinks enables printing of hyperlink destinations.
func WithPipelinePrintLinks(enabled bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.PrintLinks = enabled
	}
}

// WithPipelineExportLinks enables hyperlinks.json.
func WithPipelineExportLinks(enabled bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ExportLinks = enabled
	}
}

// WithPipelineResolver sets the link resolver.
func WithPipelineResolver(resolve Resolver) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Resolve = resolve
	}
}

// WithPipelineLogger sets the logger handed to the steps.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates the pipeline the scan command runs:
// fetch the target, export its external resources, enumerate its
// hyperlinks, search for the link text, then fetch, count and export the
// linked page.
//
// The first parameter accepts pipeline options (WithLogger, etc).
// The variadic parameter accepts pipeline config options.
func DefaultPipeline(fetcher PageFetcher, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		OutputDir: ".",
		Rules:     extract.DefaultRules,
		Stdout:    io.Discard,
		Resolve:   fetch.Resolve,
		Logger:    slog.Default(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	linkOpts := make([]HyperlinksStepOption, 0, 2)
	if cfg.PrintLinks {
		linkOpts = append(linkOpts, WithPrintLinks(cfg.Stdout))
	}
	if cfg.ExportLinks {
		linkOpts = append(linkOpts, WithExportLinks(cfg.OutputDir, cfg.Stdout))
	}

	p.AddSteps(
		NewFetchTargetStep(fetcher),
		NewExternalResourcesStep(cfg.OutputDir, cfg.Stdout, WithResourceRules(cfg.Rules)),
		NewHyperlinksStep(linkOpts...),
		NewLinkSearchStep(cfg.Resolve, WithLinkSearchLogger(cfg.Logger)),
		NewFetchPolicyStep(fetcher),
		NewWordFrequencyStep(),
		NewExportWordFrequencyStep(cfg.OutputDir, cfg.Stdout),
	)
	return p
}
