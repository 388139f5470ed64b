package util

import (
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Ini loads dir/ininame and returns the keys of its default section.
func Ini(dir, ininame string) (map[string]string, error) {
	cfg, err := ini.Load(filepath.Join(dir, ininame))
	if err != nil {
		return nil, err
	}
	return cfg.Section("").KeysHash(), nil
}
