// Package vptree implements driven.VectorIndex as an in-process
// vantage-point tree over the embedding collection.
//
// Trees are built from the EmbeddingStore and their lifecycle state is
// recorded in the IndexCatalog, so a ready index survives restarts: the
// first search after startup rebuilds the tree from stored vectors.
package vptree
