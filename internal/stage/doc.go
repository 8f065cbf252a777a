// Package stage holds the files a session has admitted for analysis.
//
// A [File] is created once by admission and never changed afterwards.
// Redaction derives new File values instead of editing staged ones, so the
// originals stay available if the caller later decides to send them as-is.
//
// A [Set] is the ordered, path-unique working set owned by one session.
package stage
