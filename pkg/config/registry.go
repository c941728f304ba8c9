package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// Submodule is a subtree of the monorepo that's mirrored into a sibling
// directory of the monorepo.
type Submodule struct {
	// Name uniquely identifies the submodule, and is also the name of the
	// sibling directory that it's synced to.
	Name string `json:"name"`

	// Path is the location of the submodule's content, relative to the
	// monorepo root.
	Path string `json:"path"`

	// Include and Exclude are rsync filter patterns. Their order is
	// significant since rsync applies the first rule that matches.
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

// DefaultInclude are the include rules given to newly registered submodules.
// Only library sources, tests and the package manifest are mirrored.
var DefaultInclude = []string{"lib/***", "pubspec.yaml", "test/***"}

// DefaultExclude drops everything that wasn't explicitly included, so that
// build artifacts never leak into the sibling directories.
var DefaultExclude = []string{"*"}

// Registry is the ordered collection of configured submodules.
type Registry struct {
	Submodules []Submodule
}

// Registration is the result of registering a single name.
type Registration struct {
	Name string

	// Added is false if the submodule was already configured, in which case
	// the registry was left untouched.
	Added bool
}

// Get returns the submodule named `name`.
func (reg Registry) Get(name string) (Submodule, bool) {
	for _, submodule := range reg.Submodules {
		if submodule.Name == name {
			return submodule, true
		}
	}
	return Submodule{}, false
}

// Register adds a submodule for each name that isn't already configured.
// All names are validated before the registry is modified, so an invalid name
// leaves the registry unchanged.
func (reg *Registry) Register(names []string) ([]Registration, error) {
	if err := validateNames(names); err != nil {
		return nil, err
	}

	var results []Registration
	for _, name := range names {
		if _, ok := reg.Get(name); ok {
			results = append(results, Registration{Name: name})
			continue
		}

		reg.Submodules = append(reg.Submodules, Submodule{
			Name:    name,
			Path:    name,
			Include: append([]string{}, DefaultInclude...),
			Exclude: append([]string{}, DefaultExclude...),
		})
		results = append(results, Registration{Name: name, Added: true})
	}
	return results, nil
}

// RegisterSubmodules registers `names` in the registry stored in `dir`, and
// persists the result. Nothing is written if any of the names are invalid.
func RegisterSubmodules(dir string, names []string) ([]Registration, error) {
	if err := validateNames(names); err != nil {
		return nil, err
	}

	if err := Init(dir); err != nil {
		return nil, err
	}

	reg, err := Load(dir)
	if err != nil {
		return nil, errors.WithContext(err, "load")
	}

	results, err := reg.Register(names)
	if err != nil {
		return nil, err
	}

	if err := Save(dir, reg); err != nil {
		return nil, errors.WithContext(err, "save")
	}
	return results, nil
}

// ParseNames splits a comma-separated list of submodule names. Whitespace
// around each name is ignored.
func ParseNames(csv string) ([]string, error) {
	var names []string
	for _, name := range strings.Split(csv, ",") {
		names = append(names, strings.TrimSpace(name))
	}

	if err := validateNames(names); err != nil {
		return nil, err
	}
	return names, nil
}

func validateNames(names []string) error {
	if len(names) == 0 {
		return errors.InvalidInput{
			Field:  "submodule list",
			Reason: "at least one submodule name is required",
		}
	}

	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return err
		}
	}
	return nil
}

// ValidateName checks that `name` can be used as a submodule name. Names
// become the names of sibling directories, so they must be a single path
// element.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.InvalidInput{
			Field:  "submodule name",
			Reason: "submodule names cannot be empty",
		}
	case name == "." || name == "..",
		strings.ContainsRune(name, '/'),
		strings.ContainsRune(name, filepath.Separator):
		return errors.InvalidInput{
			Field:  "submodule name",
			Reason: fmt.Sprintf("%q must not contain path separators or be a relative directory", name),
		}
	}
	return nil
}

// validate checks invariants that a hand-edited document could violate.
func (reg Registry) validate() error {
	seen := map[string]struct{}{}
	for i, submodule := range reg.Submodules {
		if err := ValidateName(submodule.Name); err != nil {
			return errors.WithContext(err, fmt.Sprintf("submodule %d", i))
		}

		if _, ok := seen[submodule.Name]; ok {
			return fmt.Errorf("submodule %q is configured more than once", submodule.Name)
		}
		seen[submodule.Name] = struct{}{}

		if strings.TrimSpace(submodule.Path) == "" {
			return fmt.Errorf("submodule %q is missing its path", submodule.Name)
		}
	}
	return nil
}
