// Package server provides HTTP routing, middleware and the server lifecycle for the web dashboard.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [ChiRouter] implements it
// over a chi mux with request ids, real client IPs, panic recovery and request logging.
//
// [ChiRouter.Group] returns a sub-router whose routes pass through extra middleware. The web package uses
// it to put the dashboard behind the route guard while public pages stay open.
//
// # Handler Interface
//
// Handlers implement [Handler] and register their own routes through [Handler.Routes], keeping
// route definitions next to the code that serves them.
//
// # Lifecycle
//
// [Server.Run] serves until its context is cancelled and then shuts down gracefully.
package server
