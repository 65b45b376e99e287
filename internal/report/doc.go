// Package report writes scraping results.
//
// There are two kinds of output:
//   - exported data files (external_resources.json, hyperlinks.json,
//     word_frequency.json) written by ExportJSON with four-space indentation
//   - run summaries written by a Writer:
//     SimpleWriter for the terminal, JSONWriter for tools and
//     MarkdownWriter for sharing
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) so that a new output format never
// changes what the pipeline records.
package report
