// Package services is the application core.
//
// Ingest reads files, normalises them, chunks, embeds and indexes the
// result. Query embeds the question, retrieves the nearest chunks and
// asks the LLM to answer from them.
package services
