// Package main provides the entry point for the webscraper CLI.
//
// webscraper fetches a web page, exports the externally hosted resources it
// references, finds the hyperlink with a given text (by default "privacy
// policy") and counts the words of the linked page.
//
// Usage:
//
//	webscraper scan [target-url]
//	webscraper history [target-url]
//
// See --help for all available options.
package main

// main is the entry point for webscraper.
func main() {
	Execute()
}
