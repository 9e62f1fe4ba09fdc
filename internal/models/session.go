package models

// UserProfile is the authenticated identity returned by the login endpoint.
type UserProfile struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Session holds the authenticated identity and bearer token.
//
// The zero value is the empty, unauthenticated session.
type Session struct {
	User  *UserProfile `json:"user"`
	Token string       `json:"token"`
}

// Authenticated reports whether the session carries both a user and a token.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	if s.User == nil {
		return Session{Token: s.Token}
	}
	u := *s.User
	return Session{User: &u, Token: s.Token}
}

// DisplayName returns the user's name, falling back to the email address.
func (s Session) DisplayName() string {
	switch {
	case s.User == nil:
		return ""
	case s.User.Name != "":
		return s.User.Name
	default:
		return s.User.Email
	}
}
