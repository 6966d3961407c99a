package store

// Key layout. Per-user state lives under user:<id>:<kind>.
const (
	KindSaved      = "saved"
	KindAlerts     = "alerts"
	KindOnboarding = "onboarding"
	KindChat       = "chat"
	KindProfile    = "profile"
)

// UserKey returns the key holding kind for user id.
func UserKey(userID, kind string) string {
	return "user:" + keyPart(userID) + ":" + kind
}

// UserPrefix returns the prefix shared by all keys of user id.
func UserPrefix(userID string) string {
	return "user:" + keyPart(userID) + ":"
}

// SessionKey returns the key that maps a session token to a user id.
func SessionKey(token string) string {
	return "session:" + keyPart(token)
}
