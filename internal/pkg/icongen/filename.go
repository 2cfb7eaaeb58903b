package icongen

import "regexp"

var extPattern = regexp.MustCompile(`\.\w+$`)

// suffixedName inserts suffix right before the final extension of name.
// A name without an extension is returned unchanged.
func suffixedName(name, suffix string) string {
	return extPattern.ReplaceAllStringFunc(name, func(ext string) string {
		return suffix + ext
	})
}
