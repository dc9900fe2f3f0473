// Package domain has the entities every other layer shares: documents and
// their chunks, embedding records, chunking strategies, retrieval results
// and answers, plus the sentinel errors front ends map to user-facing
// failures.
//
// It depends on the standard library alone.
package domain
