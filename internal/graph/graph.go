// Package graph assembles folder, file, and declaration nodes plus
// relationship edges into one immutable snapshot.
package graph

import (
	"fmt"
	"path"
	"sort"

	"github.com/kestrelworks/codegraph/internal/model"
)

// Build merges file nodes and relationship edges into a graph snapshot.
// Invariants enforced here rather than assumed:
//   - every declaration's owning file node exists (declarations arrive
//     attached to their file, so ownership is structural),
//   - edges whose endpoints are not present are dropped, not errored,
//   - folder/file containment forms a strict tree, verified after building.
//
// The returned graph must not be mutated by callers.
func Build(repoName string, files []model.FileNode, edges []model.Edge) (*model.Graph, error) {
	g := &model.Graph{
		RepoName:     repoName,
		Root:         &model.FolderNode{Path: "."},
		Files:        make(map[string]*model.FileNode, len(files)),
		Declarations: make(map[string]*model.Declaration),
	}

	folders := map[string]*model.FolderNode{".": g.Root}

	for i := range files {
		f := files[i]
		if _, dup := g.Files[f.Path]; dup {
			return nil, fmt.Errorf("duplicate file node %q", f.Path)
		}
		node := &f
		g.Files[f.Path] = node
		parent := ensureFolder(folders, path.Dir(f.Path))
		parent.Files = append(parent.Files, node)

		for j := range node.Declarations {
			d := &node.Declarations[j]
			g.Declarations[d.ID] = d
		}
	}

	sortChildren(g.Root)

	if err := validateTree(g); err != nil {
		return nil, err
	}

	g.Edges = admitEdges(g, edges)
	rankFiles(g)
	return g, nil
}

// ensureFolder returns the folder node for dir, creating it and linking it
// (and any missing ancestors) under its parent. Each folder is created and
// linked exactly once, which is what makes containment a strict tree.
func ensureFolder(folders map[string]*model.FolderNode, dir string) *model.FolderNode {
	if dir == "" || dir == "/" {
		dir = "."
	}
	if node, ok := folders[dir]; ok {
		return node
	}
	node := &model.FolderNode{Path: dir}
	folders[dir] = node
	parent := ensureFolder(folders, path.Dir(dir))
	parent.Folders = append(parent.Folders, node)
	return node
}

func sortChildren(node *model.FolderNode) {
	sort.Slice(node.Folders, func(i, j int) bool { return node.Folders[i].Path < node.Folders[j].Path })
	sort.Slice(node.Files, func(i, j int) bool { return node.Files[i].Path < node.Files[j].Path })
	for _, child := range node.Folders {
		sortChildren(child)
	}
}

// validateTree checks that containment is a strict tree: every file node is
// reachable exactly once and no folder appears twice (which would be a
// shared child or a cycle).
func validateTree(g *model.Graph) error {
	seenFolders := make(map[*model.FolderNode]struct{})
	seenFiles := make(map[string]struct{})

	var walk func(node *model.FolderNode) error
	walk = func(node *model.FolderNode) error {
		if _, dup := seenFolders[node]; dup {
			return fmt.Errorf("folder %q has multiple parents", node.Path)
		}
		seenFolders[node] = struct{}{}
		for _, f := range node.Files {
			if _, dup := seenFiles[f.Path]; dup {
				return fmt.Errorf("file %q has multiple parents", f.Path)
			}
			seenFiles[f.Path] = struct{}{}
		}
		for _, child := range node.Folders {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(g.Root); err != nil {
		return err
	}

	if len(seenFiles) != len(g.Files) {
		return fmt.Errorf("containment tree holds %d files, graph has %d", len(seenFiles), len(g.Files))
	}
	return nil
}

// admitEdges keeps only edges whose endpoints are known declarations.
// External edges carry the synthetic target and need only a valid source.
func admitEdges(g *model.Graph, edges []model.Edge) []model.Edge {
	kept := make([]model.Edge, 0, len(edges))
	for _, e := range edges {
		if _, ok := g.Declarations[e.SourceID]; !ok {
			continue
		}
		if e.Kind != model.External {
			if _, ok := g.Declarations[e.TargetID]; !ok {
				continue
			}
		}
		kept = append(kept, e)
	}
	return kept
}

// rankFiles applies PageRank over cross-file call edges so consumers can
// size or order files by how referenced they are.
func rankFiles(g *model.Graph) {
	if len(g.Files) == 0 {
		return
	}

	nodes := make(map[string]struct{}, len(g.Files))
	for p := range g.Files {
		nodes[p] = struct{}{}
	}

	outEdges := make(map[string][]string)
	outDegree := make(map[string]int)
	for _, e := range g.Edges {
		if e.Kind != model.Calls {
			continue
		}
		src := g.Declarations[e.SourceID].File
		tgt := g.Declarations[e.TargetID].File
		if src == tgt {
			continue
		}
		outEdges[src] = append(outEdges[src], tgt)
		outDegree[src]++
	}

	if len(outEdges) == 0 {
		uniform := 1.0 / float64(len(g.Files))
		for _, f := range g.Files {
			f.Rank = uniform
		}
		return
	}

	ranks := pageRank(nodes, outEdges, outDegree, 0.85, 100, 1e-6)
	for p, f := range g.Files {
		f.Rank = ranks[p]
	}
}
