package models

import "time"

// Metadata records who created and last modified a document, and when.
type Metadata struct {
	Created        time.Time `bson:"created" json:"created"`
	LastModified   time.Time `bson:"last_modified" json:"lastModified"`
	CreatedBy      string    `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	LastModifiedBy string    `bson:"last_modified_by,omitempty" json:"lastModifiedBy,omitempty"`
}
