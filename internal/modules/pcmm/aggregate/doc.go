// Package aggregate folds assessment levels into one maturity level per node.
//
// Averages are always rounded up, then resolved against the node's own level
// ladder. The display name of a result is looked up in the global level color
// catalog by the rounded code, not by the code of the level it resolved to.
package aggregate
