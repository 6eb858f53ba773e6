package domain

// Actor is the authenticated caller as resolved by the identity provider.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// SystemActor is used by scheduled jobs. It carries admin authority.
var SystemActor = Actor{UserID: "system", IsAdmin: true}
