package recorder

import (
	"path/filepath"

	"go.viam.com/simrecord/utils"
)

// Resolve returns the first directory in paths containing filename.
func Resolve(paths []string, filename string) (string, bool) {
	for _, p := range paths {
		if utils.FileExists(filepath.Join(p, filename)) {
			return p, true
		}
	}
	return "", false
}
