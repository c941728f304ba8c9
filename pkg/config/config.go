package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in the tests.
var fs = afero.NewOsFs()

// Dir is the name of the hidden directory in the monorepo root that holds the
// registry.
const Dir = ".monorepo"

const fileName = "config.json"

// InitialVersion is the first version of the registry document. Documents
// that do not specify a version default to this version.
const InitialVersion = "v1alpha1"

// SupportedVersion is the registry document version written and understood
// by this binary.
const SupportedVersion = "v1alpha1"

// parseConfigErrTemplate is shown when the registry document can't be
// parsed. The parser's errors lose most of their context, so the best we can
// do is point the user at the file and pass the message on.
const parseConfigErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the config file\n" +
	" - Listing the same submodule twice\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// document is the on-disk layout of the registry.
type document struct {
	Version    string      `json:"version,omitempty"`
	Submodules []Submodule `json:"submodules"`
}

// ParseError is returned by Load when the registry document exists but is
// corrupt. It's distinct from the document being absent, which is a normal
// first run.
type ParseError struct {
	Path string
	Err  error
}

func (err ParseError) Error() string {
	return err.FriendlyMessage()
}

// FriendlyMessage implements errors.FriendlyError.
func (err ParseError) FriendlyMessage() string {
	return fmt.Sprintf(parseConfigErrTemplate, err.Path, err.Err)
}

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The configuration file %q is incompatible "+
		"with this version of monorepo-agent.\n"+
		"Expected version %q, but got %q.", err.path, err.exp, err.actual)
}

// Path returns the path of the registry document within `dir`.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// Init creates the registry directory if it doesn't already exist.
func Init(dir string) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return errors.WithContext(err, "create config dir")
	}
	return nil
}

// Exists returns whether the registry directory has been created.
func Exists(dir string) (bool, error) {
	return afero.DirExists(fs, dir)
}

// Load reads the registry stored in `dir`. If no document has been written
// yet, an empty registry is returned.
func Load(dir string) (Registry, error) {
	path := Path(dir)
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Registry{}, nil
		}
		return Registry{}, errors.WithContext(err, "read file")
	}

	doc := document{Version: InitialVersion}
	if err := json.Unmarshal(configBytes, &doc); err != nil {
		return Registry{}, ParseError{Path: path, Err: err}
	}

	if doc.Version != SupportedVersion {
		return Registry{}, incompatibleVersionError{path, SupportedVersion, doc.Version}
	}

	// Do a strict unmarshal to check for any extra fields. We do a non-strict
	// unmarshal first so that we can catch version errors before erroring on
	// extra fields.
	strict := document{Version: InitialVersion}
	decoder := json.NewDecoder(bytes.NewReader(configBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&strict); err != nil {
		return Registry{}, ParseError{Path: path, Err: err}
	}

	reg := Registry{Submodules: strict.Submodules}
	if len(reg.Submodules) == 0 {
		reg.Submodules = nil
	}
	if err := reg.validate(); err != nil {
		return Registry{}, ParseError{Path: path, Err: err}
	}
	return reg, nil
}

// Save writes `reg` to `dir`, replacing any existing document. The new
// document is written to a temporary file first and then renamed into place,
// so readers never observe a partially written registry.
func Save(dir string, reg Registry) error {
	doc := document{
		Version:    SupportedVersion,
		Submodules: reg.Submodules,
	}
	if doc.Submodules == nil {
		doc.Submodules = []Submodule{}
	}

	configBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WithContext(err, "marshal")
	}
	configBytes = append(configBytes, '\n')

	tmp, err := afero.TempFile(fs, dir, fileName+".tmp")
	if err != nil {
		return errors.WithContext(err, "create temp file")
	}

	_, err = tmp.Write(configBytes)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = fs.Chmod(tmp.Name(), 0644)
	}
	if err == nil {
		err = fs.Rename(tmp.Name(), Path(dir))
	}
	if err != nil {
		// Best effort. The temp file doesn't affect future loads.
		_ = fs.Remove(tmp.Name())
		return errors.WithContext(err, "write config")
	}
	return nil
}
