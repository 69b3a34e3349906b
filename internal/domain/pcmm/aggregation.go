package pcmm

// AggregationLevel is the aggregated maturity of a node. Code is the ceiled
// average; Name comes from the global level color catalog for that code.
type AggregationLevel struct {
	Code int    `json:"code"`
	Name string `json:"name,omitempty"`
}

// AggregationResult is the aggregated maturity of one node. Level is nil when
// no input carried a level or the node has no levels.
type AggregationResult[T any] struct {
	Item     T                 `json:"item"`
	Level    *AggregationLevel `json:"level,omitempty"`
	Matched  *Level            `json:"matched,omitempty"`
	Comments []string          `json:"comments"`
}
