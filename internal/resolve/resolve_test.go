package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/codegraph/internal/model"
)

func decl(file, qualified, name string, line int) model.Declaration {
	return model.Declaration{
		ID:            model.DeclarationID(file, qualified, line),
		Kind:          model.Function,
		Name:          name,
		QualifiedName: qualified,
		File:          file,
		StartLine:     line,
	}
}

func ref(callerID, file, callee string, line int) model.CallReference {
	return model.CallReference{CallerID: callerID, File: file, Callee: callee, Line: line}
}

func TestCallsUniqueBareName(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{
		decl("a.py", "foo", "foo", 1),
		decl("b.py", "bar", "bar", 1),
	}
	refs := []model.CallReference{
		ref(decls[0].ID, "a.py", "bar", 2),
	}

	res := Calls(decls, refs)
	require.Len(t, res, 1)
	assert.Equal(t, Resolved, res[0].Outcome)
	assert.Equal(t, decls[1].ID, res[0].TargetID)
}

func TestCallsAmbiguousNeverGuessed(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{
		decl("a.py", "caller", "caller", 1),
		decl("b.py", "helper", "helper", 1),
		decl("c.py", "helper", "helper", 1),
	}
	refs := []model.CallReference{
		ref(decls[0].ID, "a.py", "helper", 2),
	}

	res := Calls(decls, refs)
	require.Len(t, res, 1)
	assert.Equal(t, Ambiguous, res[0].Outcome)
	assert.Empty(t, res[0].TargetID)

	assert.Empty(t, Edges(res, false))
	assert.Empty(t, Edges(res, true), "ambiguous references never become edges")
}

func TestCallsSameFilePreferred(t *testing.T) {
	t.Parallel()

	// Same qualified name in the caller's file and elsewhere: tier 1 wins.
	local := decl("a.py", "Widget.render", "render", 10)
	remote := decl("b.py", "Widget.render", "render", 10)
	caller := decl("a.py", "draw", "draw", 1)

	res := Calls(
		[]model.Declaration{caller, local, remote},
		[]model.CallReference{ref(caller.ID, "a.py", "Widget.render", 3)},
	)
	require.Len(t, res, 1)
	assert.Equal(t, Resolved, res[0].Outcome)
	assert.Equal(t, local.ID, res[0].TargetID)
}

func TestCallsQualifiedBeforeBare(t *testing.T) {
	t.Parallel()

	// "Widget.render" resolves through the qualified tier even though two
	// declarations share the bare name "render".
	method := model.Declaration{
		ID:            model.DeclarationID("b.py", "Widget.render", 5),
		Kind:          model.Method,
		Name:          "render",
		QualifiedName: "Widget.render",
		File:          "b.py",
		StartLine:     5,
	}
	free := decl("c.py", "render", "render", 1)
	caller := decl("a.py", "draw", "draw", 1)

	res := Calls(
		[]model.Declaration{caller, method, free},
		[]model.CallReference{ref(caller.ID, "a.py", "Widget.render", 3)},
	)
	require.Len(t, res, 1)
	assert.Equal(t, Resolved, res[0].Outcome)
	assert.Equal(t, method.ID, res[0].TargetID)
}

func TestCallsUnresolved(t *testing.T) {
	t.Parallel()

	caller := decl("a.py", "main", "main", 1)
	res := Calls(
		[]model.Declaration{caller},
		[]model.CallReference{ref(caller.ID, "a.py", "json.dumps", 2)},
	)
	require.Len(t, res, 1)
	assert.Equal(t, Unresolved, res[0].Outcome)
}

func TestCallsDeterministic(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{
		decl("a.py", "foo", "foo", 1),
		decl("b.py", "bar", "bar", 1),
		decl("c.py", "helper", "helper", 1),
		decl("d.py", "helper", "helper", 1),
	}
	refs := []model.CallReference{
		ref(decls[0].ID, "a.py", "bar", 2),
		ref(decls[0].ID, "a.py", "helper", 3),
		ref(decls[1].ID, "b.py", "missing", 4),
	}

	first := Calls(decls, refs)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Calls(decls, refs))
	}

	// Declaration order must not change outcomes either.
	reversed := []model.Declaration{decls[3], decls[2], decls[1], decls[0]}
	again := Calls(reversed, refs)
	require.Len(t, again, len(first))
	for i := range first {
		assert.Equal(t, first[i].Outcome, again[i].Outcome)
		assert.Equal(t, first[i].TargetID, again[i].TargetID)
	}
}

func TestEdgesDeduplicated(t *testing.T) {
	t.Parallel()

	target := decl("b.py", "bar", "bar", 1)
	caller := decl("a.py", "foo", "foo", 1)

	// foo calls bar twice; one edge.
	res := Calls(
		[]model.Declaration{caller, target},
		[]model.CallReference{
			ref(caller.ID, "a.py", "bar", 2),
			ref(caller.ID, "a.py", "bar", 3),
		},
	)
	edges := Edges(res, false)
	require.Len(t, edges, 1)
	assert.Equal(t, caller.ID, edges[0].SourceID)
	assert.Equal(t, target.ID, edges[0].TargetID)
	assert.Equal(t, model.Calls, edges[0].Kind)
}

func TestEdgesExternal(t *testing.T) {
	t.Parallel()

	caller := decl("a.py", "foo", "foo", 1)
	res := Calls(
		[]model.Declaration{caller},
		[]model.CallReference{ref(caller.ID, "a.py", "print", 2)},
	)

	assert.Empty(t, Edges(res, false))

	edges := Edges(res, true)
	require.Len(t, edges, 1)
	assert.Equal(t, model.ExternalNodeID, edges[0].TargetID)
	assert.Equal(t, model.External, edges[0].Kind)
}

func TestEdgesSorted(t *testing.T) {
	t.Parallel()

	a := decl("a.py", "a", "a", 1)
	b := decl("b.py", "b", "b", 1)
	c := decl("c.py", "c", "c", 1)

	res := Calls(
		[]model.Declaration{a, b, c},
		[]model.CallReference{
			ref(c.ID, "c.py", "a", 2),
			ref(a.ID, "a.py", "b", 2),
			ref(b.ID, "b.py", "c", 2),
		},
	)
	edges := Edges(res, false)
	require.Len(t, edges, 3)
	for i := 1; i < len(edges); i++ {
		assert.LessOrEqual(t, edges[i-1].SourceID, edges[i].SourceID)
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	res := []Resolution{
		{Outcome: Resolved},
		{Outcome: Resolved},
		{Outcome: Unresolved},
		{Outcome: Ambiguous},
	}
	resolved, unresolved, ambiguous := Count(res)
	assert.Equal(t, 2, resolved)
	assert.Equal(t, 1, unresolved)
	assert.Equal(t, 1, ambiguous)
}
