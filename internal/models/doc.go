// Package models defines the records exchanged with the ECN REST API and the local durable stores.
//
// The package contains three categories of types:
//
// 1. Remote entities: records owned by the backend and cached by list views
//   - [Member] : committee member with contact details and role
//   - [Book] : library entry with category, cover and PDF
//
// 2. Forms: tagged records validated before any network call
//   - [MemberForm] : add/edit member payload
//   - [BookForm] : add book payload with cover image and PDF attachments
//
// 3. Local state: records persisted by this process
//   - [Session] : authenticated user and bearer token
//   - [Activity] : audit entry for a dashboard mutation
//
// [Activity] implements [Model] and is stored through a [Repository].
package models
