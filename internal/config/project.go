package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	"github.com/banshee-data/openfield.report/internal/fsutil"
)

// FilenameStructure describes how video file names encode experimental
// factors, e.g. field names [genotype, sex, animal] for
// "wt_f_01.mp4".
type FilenameStructure struct {
	FieldNames []string
}

// LoadFilenameStructure reads filename_structure.field_names from a project
// YAML file. A project without that section yields an empty structure.
func LoadFilenameStructure(fsys fsutil.FileSystem, path string) (FilenameStructure, error) {
	cleanPath, err := checkFile(fsys, path, ".yaml", ".yml")
	if err != nil {
		return FilenameStructure{}, err
	}

	k := koanf.New(".")
	if err := k.Load(fsProvider{fsys: fsys, path: cleanPath}, yaml.Parser()); err != nil {
		return FilenameStructure{}, fmt.Errorf("failed to parse project file %s: %w", cleanPath, err)
	}
	return FilenameStructure{FieldNames: k.Strings("filename_structure.field_names")}, nil
}
