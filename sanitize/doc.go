// Package sanitize provides text sanitization and display-formatting
// helpers for user-supplied input.
//
// Sanitize is defense-in-depth for text that may be rendered in a web
// context: it HTML-escapes markup characters, strips any that survive,
// and caps the length. FormatDuration renders latencies the way dispatch
// results report them.
package sanitize
