package models

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
}

// UserDetails holds the profile fields the invite and push pipeline reads
type UserDetails struct {
	Name     string `json:"name" bson:"name"`
	Username string `json:"username" bson:"username"`
	// PushToken mirrors the most recently registered device token. Older app
	// builds only ever wrote this field.
	PushToken string `json:"pushToken,omitempty" bson:"pushToken,omitempty"`
}

// DisplayName returns the best human readable name for the user.
func (u User) DisplayName() string {
	if u.Details.Name != "" {
		return u.Details.Name
	}
	if u.Details.Username != "" {
		return u.Details.Username
	}
	return "Someone"
}
