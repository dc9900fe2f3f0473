// Package normalisers turns raw file bytes into document content.
//
// Each sub-package handles one family of formats (plain text, Markdown,
// HTML, PDF). The Registry picks the highest priority normaliser whose MIME type
// or file extension matches, and reports ErrUnsupportedType otherwise.
package normalisers
