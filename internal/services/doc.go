// Package services implements the HTTP gateway to the learning platform backend.
//
// # Gateway
//
// [Client.Request] is the single entry point for typed calls. Every request:
//   - targets the configured base URL (default http://localhost:8000)
//   - sends Content-Type: application/json unless the caller overrides it
//   - disables caching with Cache-Control: no-store and Pragma: no-cache
//   - carries Authorization: Bearer <token> only when a token is supplied, attached by an [oauth2.Transport]
//     over a static token source
//   - waits on an optional [rate.Limiter] before going out
//
// # Error Handling
//
// Every failure, whether transport, non-2xx status or an undecodable body, surfaces as a [*RequestError] that
// wraps [shared.ErrAPIRequest]. For non-2xx responses the message is the body's "detail" field, or the whole JSON
// body, or the status text, in that order. Callers never branch on status codes.
//
// # Endpoints
//
// Typed helpers cover the backend's course, video, AI, progress and auth routes. The gateway never inspects tokens:
// callers decide whether a session may authenticate with the backend at all.
//
// # Raw Access
//
// [Client.Get] and [Client.Post] return the unparsed [APIResponse] for the api debugging commands.
package services
