// Package robots operates the global registry of robot types. A robot type names the URDF file
// that describes it; the recorder uses that file name purely as a lookup key in its search paths.
package robots

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Type is a kind of robot that can be recorded.
type Type struct {
	// Name identifies the type in configs, e.g. "franka_panda".
	Name string `json:"name"`
	// Description is the file name of the type's URDF, e.g. "panda.urdf".
	Description string `json:"description"`
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Type{}
)

// Register registers a robot type. Registering two types with the same name panics.
func Register(t Type) {
	if t.Name == "" || t.Description == "" {
		panic(errors.Errorf("robot type must have a name and a description file, got %+v", t))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, old := registry[t.Name]; old {
		panic(errors.Errorf("trying to register two robot types with same name %s", t.Name))
	}
	registry[t.Name] = t
}

// Lookup looks up a robot type by name.
func Lookup(name string) (Type, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[name]
	return t, ok
}

// RegisteredTypes returns every registered type sorted by name.
func RegisteredTypes() []Type {
	registryMu.RLock()
	types := lo.Values(registry)
	registryMu.RUnlock()
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types
}

// Custom returns an unregistered type for a one-off description file.
func Custom(descriptionFile string) Type {
	return Type{Name: descriptionFile, Description: descriptionFile}
}
