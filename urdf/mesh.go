package urdf

import (
	"path/filepath"
	"strings"

	"go.viam.com/simrecord/utils"
)

const (
	packageScheme = "package://"
	fileScheme    = "file://"
)

// ResolveMesh maps a mesh reference to a file on disk. package:// references are looked up in
// the mesh directory both with and without their package name and may not escape it.
func (d *Description) ResolveMesh(link, filename string) (string, error) {
	var candidates []string
	switch {
	case strings.HasPrefix(filename, packageScheme):
		rest := strings.TrimPrefix(filename, packageScheme)
		rels := []string{rest}
		if _, rel, found := strings.Cut(rest, "/"); found {
			rels = []string{rel, rest}
		}
		for _, rel := range rels {
			joined, err := utils.SafeJoinDir(d.meshDir, rel)
			if err != nil {
				return "", &MeshResolutionError{Link: link, Filename: filename, Tried: candidates, Err: err}
			}
			candidates = append(candidates, joined)
		}
	case strings.HasPrefix(filename, fileScheme):
		candidates = append(candidates, strings.TrimPrefix(filename, fileScheme))
	case filepath.IsAbs(filename):
		candidates = append(candidates, filename)
	default:
		candidates = append(candidates, filepath.Join(d.meshDir, filename))
	}
	for _, c := range candidates {
		if utils.FileExists(c) {
			return c, nil
		}
	}
	return "", &MeshResolutionError{Link: link, Filename: filename, Tried: candidates}
}
