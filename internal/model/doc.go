// Package model defines the data structures shared by the extractors,
// the pipeline, the report writers and the history database.
//
// This package contains the following main types:
//   - Page: A fetched web page with its parsed document
//   - Hyperlink: An anchor destination paired with its optional link text
//   - Report: The result of one scraping run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The extract, pipeline, report and database packages all use
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
