// Package ui implements an interactive terminal dashboard using bubbletea's Elm architecture.
//
// The TUI walks through the same guarded flow as the web dashboard:
//  1. [LoadingScreen] : Spinner while the persisted session is restored
//  2. [LoginScreen] : Email and masked password, shown whenever the route guard redirects
//  3. [MenuScreen] : Choose members or books, toggle the theme, or log out
//  4. [MembersScreen], [BooksScreen] : Browse records, delete with a y/n prompt, open forms
//  5. [FormScreen] : Add or edit a record with an upload progress bar
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Lists and forms are driven by the generic view models in the views package, so notices and state
// transitions match the other front ends. Upload progress flows through a tasks.Submission stream.
//
// Preferences are stored in ~/.config/ecn/prefs.toml.
package ui
