// Package record writes and reads the CSV files trials are stored in.
//
// Two row schemas exist, one per paradigm, and both match the files already
// collected by the group so old and new data can be combined. Table is a
// small header-plus-rows type used by the combine and analysis steps.
package record
