// Package shortstack is a multi-tenant web platform combining a URL
// shortener and a static-site hosting service with a shared analytics
// subsystem.
//
// Three public surfaces share one deployment. A hostname router dispatches
// each request by exact Host match to one of:
//
//   - the link-redirection service (default domain)
//   - the static-file server for uploaded sites (site hosting domain)
//   - the session-gated admin API (admin management domain)
//
// # Key Components
//
//   - ShortenerService: slug validation, link lookup, 307 redirects
//   - SiteService: static-asset resolution, file management, ZIP import
//   - Recorder: fire-and-forget analytics writes
//   - ObjectStore: object storage capability (S3 or local filesystem)
//   - Repos: relational persistence (PostgreSQL, SQLite)
//
// Sites own disjoint object-store namespaces rooted at their fsPath prefix.
// File listings are derived on demand with BuildFileTree; content type and
// cache policy come purely from the key extension.
//
// See the http package for the routing layer, the s3store and filesystem
// packages for storage backends, and the database packages for persistence.
package shortstack
