package transform

import "github.com/cocosip/flif16/ranges"

// rngEntry is a tiny constructor shorthand used across the transform
// implementations below.
func rngEntry(min, max int32) ranges.Entry {
	return ranges.Entry{Min: min, Max: max}
}
