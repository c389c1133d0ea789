// Package model defines the core data structures for codegraph.
package model

import "fmt"

// DeclKind indicates the syntactic kind of a declaration.
type DeclKind string

const (
	Function DeclKind = "function"
	Method   DeclKind = "method"
	Class    DeclKind = "class"
)

// Parameter is one formal parameter of a function or method.
// Type is empty when the source carries no declared type.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Declaration represents a function, method, or class extracted from source.
// A declaration is owned by exactly one file and is rebuilt wholesale
// whenever that file's content identity changes.
type Declaration struct {
	ID            string      `json:"id"`
	Kind          DeclKind    `json:"kind"`
	Name          string      `json:"name"`
	QualifiedName string      `json:"qualified_name"`
	Signature     string      `json:"signature"`
	Docstring     string      `json:"docstring,omitempty"`
	Parameters    []Parameter `json:"parameters,omitempty"`
	ReturnType    string      `json:"return_type,omitempty"`
	File          string      `json:"file"`
	StartLine     int         `json:"start_line"`
	EndLine       int         `json:"end_line"`
}

// DeclarationID derives the stable identifier for a declaration. It stays
// stable across re-extraction only while the declaration's file, qualified
// name, and starting line are unchanged.
func DeclarationID(file, qualifiedName string, startLine int) string {
	return fmt.Sprintf("%s:%s:%d", file, qualifiedName, startLine)
}

// CallReference is an unresolved textual record of one declaration calling a
// named target. Resolution requires the repository-wide declaration set, so
// single-file extraction only records the callee's name text.
type CallReference struct {
	CallerID string `json:"caller_id"`
	File     string `json:"file"`
	Callee   string `json:"callee"`
	Line     int    `json:"line"`
}

// EdgeKind classifies a relationship edge.
type EdgeKind string

const (
	// Calls is a resolved call relationship between two declarations.
	Calls EdgeKind = "calls"
	// External marks a call whose target is not a known declaration.
	// Only emitted when the graph is built with external edges enabled.
	External EdgeKind = "external"
)

// ExternalNodeID is the synthetic target of External edges.
const ExternalNodeID = "<external>"

// Edge is a directed relationship between two declarations.
type Edge struct {
	SourceID string   `json:"source"`
	TargetID string   `json:"target"`
	Kind     EdgeKind `json:"kind"`
}

// FileNode represents one source file and the declarations it owns.
type FileNode struct {
	Path         string        `json:"path"`
	Language     string        `json:"language"`
	Identity     string        `json:"identity"`
	Declarations []Declaration `json:"declarations"`
	Rank         float64       `json:"rank"`
}

// FolderNode represents a directory. Folders and files form a strict tree
// rooted at the repository root: each child has exactly one parent.
type FolderNode struct {
	Path    string        `json:"path"`
	Folders []*FolderNode `json:"folders,omitempty"`
	Files   []*FileNode   `json:"files,omitempty"`
}

// Graph is the fully merged snapshot handed to external consumers. It is
// immutable by convention: nothing in this module mutates a Graph after
// construction, and consumers must not either.
type Graph struct {
	RepoName     string                  `json:"repo_name"`
	Root         *FolderNode             `json:"root"`
	Files        map[string]*FileNode    `json:"files"`
	Declarations map[string]*Declaration `json:"declarations"`
	Edges        []Edge                  `json:"edges"`
}

// Declaration returns the declaration with the given id, or nil.
func (g *Graph) Declaration(id string) *Declaration {
	return g.Declarations[id]
}

// File returns the file node for the given repo-relative path, or nil.
func (g *Graph) File(path string) *FileNode {
	return g.Files[path]
}
