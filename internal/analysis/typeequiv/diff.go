package typeequiv

import (
	"slices"

	"github.com/kolkov/shapecheck/internal/analysis/typetag"
)

// expressions maps a field path to the types reachable there.
type expressions map[string][]typetag.Tag

func (e expressions) add(expr string, tag typetag.Tag) {
	tags := e[expr]
	i, found := slices.BinarySearchFunc(tags, tag, typetag.Compare)
	if !found {
		e[expr] = slices.Insert(tags, i, tag)
	}
}

type workItem struct {
	prefix  string
	visited map[typetag.Tag]bool
	tag     typetag.Tag
}

// allExpressions enumerates the field paths reachable from tag.
//
// A path ends at a type without fields, or where it reaches a type already
// on the path, so each structural cycle is unrolled at most once.
func (a *analyzer) allExpressions(tag typetag.Tag) expressions {
	result := make(expressions)
	worklist := []workItem{{visited: map[typetag.Tag]bool{tag: true}, tag: tag}}
	for len(worklist) > 0 {
		item := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		fields, ok := a.obs.FieldTypes(item.tag)
		if !ok || len(fields) == 0 {
			result.add(item.prefix, item.tag)
			continue
		}
		for _, name := range fields.Names() {
			prefix := item.prefix + "." + name
			for _, next := range fields[name].Tags() {
				if item.visited[next] {
					result.add(prefix, next)
					continue
				}
				visited := make(map[typetag.Tag]bool, len(item.visited)+1)
				for v := range item.visited {
					visited[v] = true
				}
				visited[next] = true
				worklist = append(worklist, workItem{prefix: prefix, visited: visited, tag: next})
			}
		}
	}
	return result
}

// typeDiff splits the expressions of the observed types into those common
// to all of them and those that differ.
//
// It panics when given fewer than two types: a warning always involves at
// least two classes, so fewer indicates a bug in the caller.
func (a *analyzer) typeDiff(types []typetag.Tag) *TypeDiff {
	if len(types) < 2 {
		panic("typeequiv: type diff requires at least two observed types")
	}
	perType := make([]expressions, len(types))
	for i, tag := range types {
		perType[i] = a.allExpressions(tag)
	}

	diff := &TypeDiff{
		Common: make(map[string][]typetag.Tag),
		Diff:   make(map[string][]typetag.Tag),
	}
	for expr, tags := range perType[0] {
		common := true
		for _, other := range perType[1:] {
			if otherTags, ok := other[expr]; !ok || !slices.Equal(tags, otherTags) {
				common = false
				break
			}
		}
		if common {
			diff.Common[expr] = tags
		}
	}
	union := make(expressions)
	for _, exprs := range perType {
		for expr, tags := range exprs {
			if _, ok := diff.Common[expr]; ok {
				continue
			}
			for _, tag := range tags {
				union.add(expr, tag)
			}
		}
	}
	diff.Diff = union
	return diff
}
