package aggregate

import (
	"math"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
)

// ClosestLevel returns the highest level whose code does not exceed code. When
// every level is above code the smallest level is returned; nil only when
// levels is empty.
func ClosestLevel(levels []types.Level, code int) *types.Level {
	if len(levels) == 0 {
		return nil
	}
	sorted := types.SortLevels(levels)
	var match *types.Level
	for i := range sorted {
		if sorted[i].Code > code {
			break
		}
		match = &sorted[i]
	}
	if match == nil {
		match = &sorted[0]
	}
	return match
}

// CeilAverage returns ceil(sum/count). ok is false when count is zero.
func CeilAverage(sum, count int) (code int, ok bool) {
	if count <= 0 {
		return 0, false
	}
	return int(math.Ceil(float64(sum) / float64(count))), true
}

// Item aggregates the assessments of one node against that node's levels.
func Item[T any](item T, assessments []*types.Assessment, levels []types.Level, catalog types.LevelColorCatalog) (types.AggregationResult[T], error) {
	if catalog == nil {
		return types.AggregationResult[T]{}, pkgerrors.Required("level colors")
	}
	if isNil(item) {
		return types.AggregationResult[T]{}, pkgerrors.Required("item")
	}

	out := types.AggregationResult[T]{Item: item, Comments: make([]string, 0, len(assessments))}
	sum, count := 0, 0
	for _, a := range assessments {
		if a == nil {
			continue
		}
		out.Comments = append(out.Comments, ClearHTML(a.Comment))
		if a.Level == nil {
			continue
		}
		sum += a.Level.Code
		count++
	}
	resolve(&out, sum, count, levels, catalog)
	return out, nil
}

// Child is an already aggregated node folded into its parent.
type Child struct {
	Level *types.AggregationLevel
}

// Parent aggregates child results against the parent's own levels.
func Parent[T any](parent T, children []Child, levels []types.Level, catalog types.LevelColorCatalog) (types.AggregationResult[T], error) {
	if catalog == nil {
		return types.AggregationResult[T]{}, pkgerrors.Required("level colors")
	}
	if isNil(parent) {
		return types.AggregationResult[T]{}, pkgerrors.Required("parent")
	}
	out := types.AggregationResult[T]{Item: parent, Comments: []string{}}
	sum, count := 0, 0
	for _, c := range children {
		if c.Level == nil {
			continue
		}
		sum += c.Level.Code
		count++
	}
	resolve(&out, sum, count, levels, catalog)
	return out, nil
}

// ChildOf adapts any aggregation result into a Child.
func ChildOf[T any](r types.AggregationResult[T]) Child {
	return Child{Level: r.Level}
}

func resolve[T any](out *types.AggregationResult[T], sum, count int, levels []types.Level, catalog types.LevelColorCatalog) {
	code, ok := CeilAverage(sum, count)
	if !ok {
		return
	}
	matched := ClosestLevel(levels, code)
	if matched == nil {
		return
	}
	out.Matched = matched
	out.Level = &types.AggregationLevel{Code: code, Name: catalog.Name(code)}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch p := v.(type) {
	case *types.Element:
		return p == nil
	case *types.Subelement:
		return p == nil
	}
	return false
}
