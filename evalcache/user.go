/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package evalcache

// LoggedOutUserKey is the cache key used for a user without an identifier.
const LoggedOutUserKey = "evalcache.Store.loggedOutUserID"

// User identifies whose evaluation results are cached.
// A nil UserID means the user is logged out. An empty UserID is an ordinary identifier.
type User struct {
	UserID *string
}

// NewUser returns a User with the given identifier.
func NewUser(userID string) User {
	return User{UserID: &userID}
}

// LoggedOutUser returns a User without an identifier.
func LoggedOutUser() User {
	return User{}
}

// Key returns the cache key of the user.
func (u User) Key() string {
	if u.UserID == nil {
		return LoggedOutUserKey
	}
	return *u.UserID
}
