package core

import (
	"os"
	"sort"
	"strings"

	"github.com/wansing/healthregistry/util"
)

// Municipalities maps the names of known municipalities to their state.
// An empty Municipalities accepts any name.
type Municipalities map[string]string

// LoadMunicipalities reads dir/municipalities.ini. A missing file yields an empty Municipalities.
func LoadMunicipalities(dir string) (Municipalities, error) {
	m, err := util.Ini(dir, "municipalities.ini")
	if os.IsNotExist(err) {
		return Municipalities{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Municipalities(m), nil
}

func (m Municipalities) Known(name string) bool {
	if len(m) == 0 {
		return true
	}
	_, ok := m[strings.TrimSpace(name)]
	return ok
}

// Names returns the sorted names.
func (m Municipalities) Names() []string {
	var names = make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
