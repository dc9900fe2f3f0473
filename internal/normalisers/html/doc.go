// Package html normalises saved web pages into readable text. The page
// title leads the content and a canonical link becomes the document URL.
package html
