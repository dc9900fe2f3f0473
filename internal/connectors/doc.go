// Package connectors holds the document sources ingest reads from. The
// filesystem connector walks a directory and hands each supported file to
// the normaliser registry.
package connectors
