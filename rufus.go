// Package rufus crawls a handful of seed pages, follows one hop of nested
// list-item links, and serves semantic similarity queries over the collected
// paragraph text.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, gemini/).
package rufus
