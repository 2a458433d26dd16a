// Package scanner drives the variant hunt: the Searcher settles one card by
// probing its candidate pages, and the Orchestrator walks whole catalogs
// through the Searcher while keeping the checkpoint store and derived report
// current after every item.
package scanner
