// Package resolver maps archive filenames to the external tool stages that
// extract them.
package resolver

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/teamcutter/simple-extract/internal/domain"
)

type Resolver struct {
	specs []domain.ArchiveSpec
}

var std = New(builtin)

// Default returns the resolver for the built-in archive table.
func Default() *Resolver {
	return std
}

// New builds a resolver whose table is checked longest suffix first, so a
// compound suffix such as .tar.gz always wins over .gz.
func New(specs []domain.ArchiveSpec) *Resolver {
	sorted := slices.Clone(specs)
	slices.SortStableFunc(sorted, func(a, b domain.ArchiveSpec) int {
		return len(b.Suffix()) - len(a.Suffix())
	})
	return &Resolver{specs: sorted}
}

// Lookup returns a copy of the most specific spec whose suffix ends the base
// name of path. Suffix matching is case-sensitive; the stem may use any case.
// A name that is nothing but a known suffix never falls through to a shorter one.
func (r *Resolver) Lookup(path string) (*domain.ArchiveSpec, error) {
	name := filepath.Base(path)
	for i := range r.specs {
		suffix := r.specs[i].Suffix()
		if name == suffix {
			break
		}
		if len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
			return clone(r.specs[i]), nil
		}
	}
	return nil, &domain.UnknownFormatError{Name: name}
}

// Resolve returns the ordered stages needed to extract path.
func (r *Resolver) Resolve(path string) ([]domain.Stage, error) {
	spec, err := r.Lookup(path)
	if err != nil {
		return nil, err
	}
	return spec.Stages, nil
}

func clone(spec domain.ArchiveSpec) *domain.ArchiveSpec {
	spec.Suffixes = slices.Clone(spec.Suffixes)
	stages := make([]domain.Stage, len(spec.Stages))
	for i, s := range spec.Stages {
		s.Args = slices.Clone(s.Args)
		stages[i] = s
	}
	spec.Stages = stages
	return &spec
}

// Destination is where extracting path into outputDir is expected to land:
// the base name with the archive suffix removed.
func (r *Resolver) Destination(path, outputDir string) (string, error) {
	spec, err := r.Lookup(path)
	if err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(filepath.Base(path), spec.Suffix())
	return filepath.Join(outputDir, stem), nil
}

// Specs lists the table in match order.
func (r *Resolver) Specs() []domain.ArchiveSpec {
	return slices.Clone(r.specs)
}
