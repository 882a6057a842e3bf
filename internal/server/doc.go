// Package server provides HTTP routing, middleware and a local mock of the learning platform backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses a chi mux internally, so route patterns may contain {param}
// segments and unmatched methods get 405 responses.
//
// # Mock Backend
//
// [MockBackend] serves the same endpoints the client consumes (videos, courses, progress, AI helpers and
// auth) from memory. Login issues HS256 tokens whose claims carry sub, role and name, which is what the
// client's token decoder reads. Errors use the {"detail": ...} body shape, including structured detail
// lists for validation failures.
//
// It backs the serve command for offline development and the end-to-end tests.
//
// # Handler Interface
//
// Handlers that own a group of routes implement [Handler] and register themselves with [Router.Handler].
package server
