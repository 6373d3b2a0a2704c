// internal/domain/models/organization.go
package models

// Organization is the root of the racing hierarchy.
//
// MemberIDs lists the users allowed to manage anything under the
// organization's path.
type Organization struct {
	ID          string   `bson:"id" json:"id"`
	Path        string   `bson:"path" json:"path"`
	Name        string   `bson:"name" json:"name"`
	NameCI      string   `bson:"name_ci,omitempty" json:"-"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Website     string   `bson:"website,omitempty" json:"website,omitempty"`
	MemberIDs   []string `bson:"member_ids,omitempty" json:"memberIds,omitempty"`

	Metadata Metadata `bson:"metadata" json:"metadata"`
}

// HasMember reports whether userID is listed on the organization.
func (o Organization) HasMember(userID string) bool {
	for _, id := range o.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
