// Package server exposes the rephrase pipeline as a JSON API on gin.
//
// Every route is mounted twice, under /api and at the root, so both the web
// front-end and plain curl calls work. Errors are reported as
// {"success": false, "error": ...}; a total pipeline failure answers 503 with
// "retryable": true.
package server
