// Package server exposes staging sessions over HTTP.
//
// Routes (all JSON):
//
//	GET    /api/health
//	POST   /api/sessions
//	GET    /api/sessions/:id
//	DELETE /api/sessions/:id
//	POST   /api/sessions/:id/files
//	DELETE /api/sessions/:id/files?path=
//	POST   /api/sessions/:id/analyze
//
// A blocked analyze attempt answers 422 with the gate outcome, and an
// attempt made while another is running for the same session answers 409.
package server
