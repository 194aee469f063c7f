// Package fileutil holds small file helpers: copies (optionally verified),
// cross-device aware moves and atomic replace-by-rename writes.
package fileutil
