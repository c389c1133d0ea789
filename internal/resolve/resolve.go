// Package resolve matches call references to declaration targets using
// name-based heuristics. Resolution is static and best-effort: it trades
// recall for precision and never guesses between ambiguous candidates.
package resolve

import (
	"sort"

	"github.com/kestrelworks/codegraph/internal/model"
)

// Outcome tags the result of resolving one call reference, so consumers can
// tell "no call target found" from "target found but ambiguous".
type Outcome string

const (
	Resolved   Outcome = "resolved"
	Unresolved Outcome = "unresolved"
	Ambiguous  Outcome = "ambiguous"
)

// Resolution is the outcome of resolving one call reference.
// TargetID is set only when Outcome is Resolved.
type Resolution struct {
	Ref      model.CallReference
	Outcome  Outcome
	TargetID string
}

// index holds the name lookup tables built once per resolution run.
type index struct {
	byQualified map[string][]*model.Declaration
	byBare      map[string][]*model.Declaration
}

func buildIndex(decls []model.Declaration) *index {
	idx := &index{
		byQualified: make(map[string][]*model.Declaration),
		byBare:      make(map[string][]*model.Declaration),
	}
	for i := range decls {
		d := &decls[i]
		idx.byQualified[d.QualifiedName] = append(idx.byQualified[d.QualifiedName], d)
		idx.byBare[d.Name] = append(idx.byBare[d.Name], d)
	}
	return idx
}

// Calls resolves every call reference against the repository-wide
// declaration set. It is a pure function of its inputs: the same
// declarations and references always produce the same resolutions,
// regardless of worker count or extraction order.
//
// Tie-break order per reference:
//  1. exact qualified-name match within the caller's file
//  2. exact qualified-name match repository-wide
//  3. bare-name match repository-wide
//
// At the deciding tier the match must be unique; multiple candidates yield
// Ambiguous, never a guessed edge.
func Calls(decls []model.Declaration, refs []model.CallReference) []Resolution {
	idx := buildIndex(decls)

	resolutions := make([]Resolution, 0, len(refs))
	for _, ref := range refs {
		resolutions = append(resolutions, resolveOne(idx, ref))
	}
	return resolutions
}

func resolveOne(idx *index, ref model.CallReference) Resolution {
	res := Resolution{Ref: ref}

	// Tier 1: qualified match in the caller's own file.
	var sameFile []*model.Declaration
	for _, d := range idx.byQualified[ref.Callee] {
		if d.File == ref.File {
			sameFile = append(sameFile, d)
		}
	}
	if out, ok := decide(sameFile); ok {
		res.Outcome, res.TargetID = out.Outcome, out.TargetID
		return res
	}

	// Tier 2: qualified match repository-wide.
	if out, ok := decide(idx.byQualified[ref.Callee]); ok {
		res.Outcome, res.TargetID = out.Outcome, out.TargetID
		return res
	}

	// Tier 3: bare-name match repository-wide.
	if out, ok := decide(idx.byBare[ref.Callee]); ok {
		res.Outcome, res.TargetID = out.Outcome, out.TargetID
		return res
	}

	res.Outcome = Unresolved
	return res
}

// decide reports the outcome for one tier's candidate set. ok is false when
// the tier is empty and resolution should fall through to the next tier.
func decide(candidates []*model.Declaration) (Resolution, bool) {
	switch len(candidates) {
	case 0:
		return Resolution{}, false
	case 1:
		return Resolution{Outcome: Resolved, TargetID: candidates[0].ID}, true
	default:
		return Resolution{Outcome: Ambiguous}, true
	}
}

// Edges derives the deduplicated, sorted edge set from resolutions.
// When externalEdges is set, unresolved references are retained as edges to
// the synthetic external node; ambiguous references are always dropped since
// their candidates exist in the graph but cannot be chosen safely.
func Edges(resolutions []Resolution, externalEdges bool) []model.Edge {
	type edgeKey struct {
		src, tgt string
		kind     model.EdgeKind
	}
	seen := make(map[edgeKey]struct{})

	var edges []model.Edge
	add := func(src, tgt string, kind model.EdgeKind) {
		key := edgeKey{src, tgt, kind}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		edges = append(edges, model.Edge{SourceID: src, TargetID: tgt, Kind: kind})
	}

	for _, r := range resolutions {
		switch r.Outcome {
		case Resolved:
			add(r.Ref.CallerID, r.TargetID, model.Calls)
		case Unresolved:
			if externalEdges {
				add(r.Ref.CallerID, model.ExternalNodeID, model.External)
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		if edges[i].TargetID != edges[j].TargetID {
			return edges[i].TargetID < edges[j].TargetID
		}
		return edges[i].Kind < edges[j].Kind
	})

	return edges
}

// Count tallies resolutions by outcome for diagnostic summaries.
func Count(resolutions []Resolution) (resolved, unresolved, ambiguous int) {
	for _, r := range resolutions {
		switch r.Outcome {
		case Resolved:
			resolved++
		case Unresolved:
			unresolved++
		case Ambiguous:
			ambiguous++
		}
	}
	return
}
