package session

import "strconv"

// InvalidAccount is the account id of a failed lookup.
const InvalidAccount int64 = -1

// Validator resolves tokens for the action pipeline. It fails closed and never errors.
type Validator struct {
	sessions Manager
}

// NewValidator creates a validator over a session manager.
func NewValidator(sessions Manager) *Validator {
	return &Validator{sessions: sessions}
}

// Validate returns the token's account id, or InvalidAccount when the token is unknown,
// expired, or stores a value that is not an account id.
func (v *Validator) Validate(token string) int64 {
	if token == "" {
		return InvalidAccount
	}
	sess, ok := v.sessions.GetSession(token)
	if !ok {
		return InvalidAccount
	}
	id, err := strconv.ParseInt(sess.GetUserID(), 10, 64)
	if err != nil || id < 0 {
		return InvalidAccount
	}
	sess.UpdateActivity()
	return id
}
