// Package batch enumerates one directory's eligible files and drives a
// per-file processor over them in ascending size order.
//
// A failure on one file is logged and tallied; the batch always moves on to
// the next file. An empty selection is reported as services.ErrNoFiles. A
// lock file in the target directory keeps two runs from sharing it.
package batch
