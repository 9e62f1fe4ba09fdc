// Package services is the HTTP client adapter for the ECN REST API.
//
// # APIService
//
// [APIService] issues GET, POST, PUT and DELETE requests against the configured base URL and
// returns an [APIResponse] for 2xx statuses. Every other status becomes an [*APIError] carrying
// the status code and the server's "message" field; transport failures wrap [shared.ErrNetwork].
// Nothing is retried and there is no timeout policy beyond the caller's context.
//
// [APIService.WithToken] returns a copy whose client is built with [oauth2.NewClient] over a
// static token source, so every request carries a bearer token.
//
// # Multipart uploads
//
// [Multipart] collects ordered fields and files. The body is rendered in memory and sent as a
// single request with a Content-Length, which lets [ProgressFunc] receive round(sent*100/total)
// as the transport reads it.
//
// # Resources
//
// [Resource] is a typed client over one entity's [models.Routes]. Forms with attachments are sent
// as multipart, others as JSON. [AuthService] performs the login round-trip.
package services
