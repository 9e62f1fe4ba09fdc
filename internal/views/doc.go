// Package views holds the view models shared by the web dashboard and the TUI.
//
// A [Schema] describes one entity: its display names, dashboard routes, form defaults and
// prefill. [ListView] and [FormView] are generic over that schema, so members and books use
// the same list and form behavior. View models keep no rendering state; callers render
// [ListView.State], [FormView.Form] and the returned [Notice] values however they like.
package views
