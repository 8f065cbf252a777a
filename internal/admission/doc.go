// Package admission decides which candidate files enter a session's staged
// set.
//
// Each candidate is checked in a fixed order, stopping at the first failure:
//
//  1. ignored path segment (node_modules, .git, dist, ...)
//  2. sensitive file name (.env, *.pem, id_rsa, ...) unless allowed
//  3. duplicate path (already staged, or accepted earlier in the batch)
//  4. file count limit (stops the batch)
//  5. single file size limit
//  6. aggregate size limit (stops the batch)
//  7. binary content, detected after decoding
//
// Rejections are counted in the [Outcome], never returned as errors. Only an
// invalid [Policy] is an error, reported by [New].
package admission
