// Package report turns the derived variant entries into their two outputs:
// a machine-readable JSON file rewritten after every item, and a markdown
// section spliced between stable marker lines in the README.
package report
