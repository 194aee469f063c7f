// Package textutil provides text helpers for building filenames: slug
// sanitization and short random collision suffixes.
package textutil
