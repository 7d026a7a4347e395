package index

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"typelift/internal/crawler"
	"typelift/internal/extractor"
	"typelift/internal/metamodel"
)

// Indexer turns scanned source into a type registry.
type Indexer struct {
	crawler *crawler.Crawler
	mode    metamodel.IndexMode
	sealed  []string
	logger  *slog.Logger
}

// NewIndexer creates a new indexer. sealed lists type names (plain or
// package-qualified) to seal in addition to those carrying the directive.
func NewIndexer(c *crawler.Crawler, mode metamodel.IndexMode, sealed []string, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		crawler: c,
		mode:    mode,
		sealed:  sealed,
		logger:  logger.With("component", "index"),
	}
}

// BuildRegistry scans the project root and constructs the type hierarchy.
func (i *Indexer) BuildRegistry(root string) (*metamodel.Registry, error) {
	var units []*extractor.TypeUnit
	err := i.crawler.ScanProject(root, func(unit *extractor.TypeUnit) {
		units = append(units, unit)
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return i.FromUnits(units)
}

// FromUnits resolves embedded names and field types among the given units.
// Embeds that name no scanned struct are dropped; fields whose type names a
// scanned struct become references.
func (i *Indexer) FromUnits(units []*extractor.TypeUnit) (*metamodel.Registry, error) {
	known := make(map[string]*extractor.TypeUnit, len(units))
	var kept []*extractor.TypeUnit
	for _, u := range units {
		qn := u.QualifiedName()
		if prev, ok := known[qn]; ok {
			i.logger.Warn("duplicate type, keeping first", "type", qn, "kept", prev.Filepath, "skipped", u.Filepath)
			continue
		}
		known[qn] = u
		kept = append(kept, u)
	}

	resolve := func(ref, pkg string) (string, bool) {
		if !strings.Contains(ref, ".") && pkg != "" {
			ref = pkg + "." + ref
		}
		_, ok := known[ref]
		return ref, ok
	}

	reg := metamodel.NewRegistry(i.mode)
	for _, u := range kept {
		mutability := metamodel.Generated
		if u.Sealed || slices.Contains(i.sealed, u.Name) || slices.Contains(i.sealed, u.QualifiedName()) {
			mutability = metamodel.Sealed
		}

		features := make([]*metamodel.Feature, 0, len(u.Fields))
		for _, f := range u.Fields {
			feature := &metamodel.Feature{
				Name:  f.Name,
				Kind:  metamodel.Attribute,
				Type:  f.Type,
				Lower: f.Lower,
				Upper: f.Upper,
			}
			if target, ok := resolve(f.Type, u.Package); ok {
				feature.Kind = metamodel.Reference
				feature.Type = target
			}
			features = append(features, feature)
		}

		node := metamodel.NewTypeNode(u.QualifiedName(), mutability, features...)
		node.Origin = metamodel.Origin{Filepath: u.Filepath, StartLine: u.StartLine, EndLine: u.EndLine}
		if err := reg.Add(node); err != nil {
			return nil, err
		}
	}

	for _, u := range kept {
		for _, embed := range u.Embeds {
			super, ok := resolve(embed, u.Package)
			if !ok {
				i.logger.Debug("ignoring embedded type outside the scan", "type", u.QualifiedName(), "embed", embed)
				continue
			}
			if err := reg.Link(u.QualifiedName(), super); err != nil {
				return nil, err
			}
		}
	}

	return reg, nil
}
