package version

import (
	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Guess is a version found in project metadata, labeled with the
// strategy that produced it.
type Guess struct {
	Source  string
	Version string
}

// guessers are tried in declaration order; the first strategy returning
// a value wins and partial results are never merged.
var guessers = []struct {
	source string
	fn     func(fsys billy.Filesystem) (string, bool)
}{
	{source: "package.json", fn: packageJSONVersion},
}

// Detect attempts to guess the project version from metadata documents
// under the project root.
func Detect(fsys billy.Filesystem) (Guess, bool) {
	for _, g := range guessers {
		if value, ok := g.fn(fsys); ok {
			return Guess{Source: g.source, Version: value}, true
		}
	}
	return Guess{}, false
}

// Parse reads a semantic version, tolerating a leading v. Callers
// render the parsed value, so v1.2.3 normalizes to 1.2.3.
func Parse(value string) (*semver.Version, error) {
	return semver.NewVersion(value)
}

// packageJSONVersion reads the version field from package.json. A
// missing file, unparseable document or absent field all mean no guess.
func packageJSONVersion(fsys billy.Filesystem) (string, bool) {
	data, err := util.ReadFile(fsys, "package.json")
	if err != nil {
		return "", false
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), json.Parser()); err != nil {
		return "", false
	}
	value := k.String("version")
	return value, value != ""
}
