package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidSpecifier       = errors.New("invalid path specifier")
	ErrInvalidDefaultFilename = errors.New("invalid default filename")
)

// Kind is the shape of a path specifier, either a directory to place the
// default filename under or a file to write to directly.
type Kind string

const (
	KindDirectory Kind = "directory"
	KindFile      Kind = "file"
)

// Classify reports whether the specifier names a file or a directory. A
// specifier is a file when its final segment contains a '.', which includes
// dotfiles such as ".log". Trailing separators are ignored and the navigation
// segments "." and ".." are always directories.
func Classify(specifier string) Kind {
	trimmed := strings.TrimRight(specifier, string(filepath.Separator)+"/")

	segment := trimmed
	if i := strings.LastIndexAny(trimmed, string(filepath.Separator)+"/"); i >= 0 {
		segment = trimmed[i+1:]
	}

	if segment == "." || segment == ".." {
		return KindDirectory
	}

	if strings.Contains(segment, ".") {
		return KindFile
	}

	return KindDirectory
}

// Resolution describes how a specifier was turned into a path.
type Resolution struct {
	Specifier string
	Kind      Kind
	Absolute  bool
	Path      string
}

// PathResolver turns an output specifier and a fallback filename into the
// path an artifact should be written to. Relative specifiers are rooted at
// workDir. With an empty workDir relative specifiers stay relative.
type PathResolver struct {
	workDir string // directory relative specifiers are joined onto

	// ExpandHome replaces a bare "~" or a leading "~/" with the user's home
	// directory before the specifier is classified. "~user" forms are left
	// untouched.
	ExpandHome bool
}

func NewPathResolver(workDir string) PathResolver {
	return PathResolver{workDir: workDir}
}

// PathResolverFromCwd returns a resolver rooted at the process working
// directory, read once at construction.
func PathResolverFromCwd() (PathResolver, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return PathResolver{}, fmt.Errorf("failed to get working directory: %w", err)
	}

	return NewPathResolver(cwd), nil
}

func (pr PathResolver) WorkDir() string {
	return pr.workDir
}

// Resolve returns the path an artifact should be written to. Directory
// specifiers get defaultFilename appended; file specifiers ignore it.
// Absolute file specifiers are returned verbatim.
func (pr PathResolver) Resolve(specifier, defaultFilename string) (string, error) {
	res, err := pr.Explain(specifier, defaultFilename)
	if err != nil {
		return "", err
	}

	return res.Path, nil
}

// Explain is like Resolve but also reports the classification that led to
// the path.
func (pr PathResolver) Explain(specifier, defaultFilename string) (Resolution, error) {
	if err := validateSpecifier(specifier); err != nil {
		return Resolution{}, err
	}

	if pr.ExpandHome && isHomeRelative(specifier) {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Resolution{}, err
		}
		specifier = filepath.Join(homeDir, specifier[1:])
	}

	res := Resolution{
		Specifier: specifier,
		Kind:      Classify(specifier),
		Absolute:  filepath.IsAbs(specifier),
	}

	if res.Kind == KindDirectory {
		if err := validateFilename(defaultFilename); err != nil {
			return Resolution{}, err
		}
	}

	switch {
	case res.Kind == KindDirectory && res.Absolute:
		res.Path = filepath.Join(specifier, defaultFilename)
	case res.Kind == KindDirectory:
		res.Path = filepath.Join(pr.workDir, specifier, defaultFilename)
	case res.Absolute:
		res.Path = specifier
	default:
		res.Path = filepath.Join(pr.workDir, specifier)
	}

	log.Debug().
		Str("specifier", specifier).
		Str("kind", string(res.Kind)).
		Bool("absolute", res.Absolute).
		Str("path", res.Path).
		Msg("resolved output path")

	return res, nil
}

// isHomeRelative reports whether the specifier is "~" or starts with "~/".
func isHomeRelative(specifier string) bool {
	if !strings.HasPrefix(specifier, "~") {
		return false
	}

	return len(specifier) == 1 || specifier[1] == '/' || specifier[1] == filepath.Separator
}

func validateSpecifier(specifier string) error {
	switch {
	case strings.TrimSpace(specifier) == "":
		return fmt.Errorf("%w: specifier is empty", ErrInvalidSpecifier)
	case strings.ContainsRune(specifier, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidSpecifier, specifier)
	}

	return nil
}

func validateFilename(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: filename is empty", ErrInvalidDefaultFilename)
	case strings.ContainsAny(name, string(filepath.Separator)+"/"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidDefaultFilename, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidDefaultFilename, name)
	}

	return nil
}
