// Package pipeline runs the steps of one scraping run in sequence.
//
// A run fetches the target page, exports its external resources, enumerates
// its hyperlinks, looks for the link whose text matches the configured link
// text and, when one is found, fetches the linked page and counts the words
// of its visible text. Each stage is a Step that receives the shared Report
// and adds its results to it.
//
// Design decision: We keep the stages as separate steps instead of one
// function because the CLI and the tests assemble different subsets of them,
// and the pipeline gives every stage the same logging and cancellation
// handling. A step with nothing to do returns ErrSkipped, which is recorded
// in the report without stopping the run.
package pipeline
