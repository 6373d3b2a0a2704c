// internal/domain/models/user.go
package models

// User is a signed-in person: organizers manage the hierarchy, anyone may
// contribute to a preem.
type User struct {
	ID        string `bson:"id" json:"id"`
	Path      string `bson:"path" json:"path"`
	Name      string `bson:"name" json:"name"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	Role      string `bson:"role,omitempty" json:"role,omitempty"` // contributor | organizer | admin

	Metadata Metadata `bson:"metadata" json:"metadata"`
}

// Roles.
const (
	RoleContributor = "contributor"
	RoleOrganizer   = "organizer"
	RoleAdmin       = "admin"
)
