// Package projector transforms extracted subject records into tabular
// export data. Each of the four projection modes is a distinct
// column-naming and phase-selection policy applied uniformly per
// parameter: Complete keeps every phase column, Max-only and Selected
// omit unpopulated values, Custom projects a caller-supplied
// parameter/phase selection with a predictable column set.
//
// Projection is pure in-memory transformation. It never touches the
// filesystem and never parses phase values; cells are carried as the
// strings the source documents contained.
package projector
