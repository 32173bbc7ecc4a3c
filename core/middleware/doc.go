// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation through the X-API-Key header (or api_key query
//     parameter) protecting the analysis endpoints.
//   - rayid: a unique request id stored in the Fiber locals under "ray_id" and
//     echoed in the X-Ray-ID response header, picked up by logger.WithRayID.
package middleware
