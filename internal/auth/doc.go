// Package auth holds the session state shared by the dashboard, the CLI and the TUI.
//
// A [Store] owns one [models.Session] and mirrors it to a [Persister] under a key: a browser's
// session cookie or "cli". It never talks to the network; callers complete the login round-trip
// and hand the result to [Store.Login].
//
// [Decide] is the route guard: a pure function of the store's state that answers whether a
// protected view should show a loading indicator, redirect to the login page, or render.
package auth
