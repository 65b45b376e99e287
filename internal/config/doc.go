// Package config provides configuration structures and utilities for webscraper.
// It defines the target page, output locations, request settings and the
// resource rule table, plus the optional .webscraper YAML file that
// overrides the built-in defaults.
package config
