// Package http provides the HTTP surface of the platform.
//
// A single listener serves three hostnames. The HostRouter classifies each
// request by its Host header and dispatches to one of three chi routers:
//
//   - the site hosting domain serves static assets out of object storage,
//     with index.html fallback for folder-like paths;
//   - the admin domain carries the session-gated JSON management API;
//   - every other hostname resolves short links and issues 307 redirects.
//
// Handlers depend on small consumer interfaces (Resolver, AssetServer,
// SiteManager, SessionStore) so tests can swap in mocks. Errors on the
// redirect surface become typed error-page redirects; errors on the API
// surface become JSON bodies of the form {"error": "..."}. Unexpected
// failures are logged under a short correlation id that is echoed to the
// client.
package http
