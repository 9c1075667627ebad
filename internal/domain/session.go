package domain

// Session is the resolved runtime identity for a page load. It is owned by
// the bootstrap component and replaced wholesale on login/logout, never
// partially mutated.
type Session struct {
	User            User
	Token           string
	IsAuthenticated bool
}

// Credentials is the durable token/user triple kept in the client store.
// RefreshToken is stored opaquely and never interpreted by the core.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// Empty reports whether no credential evidence is present at all.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.User == nil
}
