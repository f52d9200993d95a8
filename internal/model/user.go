package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// RoleAdmin is the only role the service distinguishes.  Users without a
// role are regular customers.
const RoleAdmin = "admin"

// User represents a document in the `users` collection.  Email is the
// natural key: the identity provider on the front-end owns credentials and
// the service only records profile data plus the role.
type User struct {
    ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
    Name  string             `bson:"name,omitempty" json:"name,omitempty"`
    Email string             `bson:"email" json:"email"`
    Photo string             `bson:"photo,omitempty" json:"photo,omitempty"`
    Role  string             `bson:"role,omitempty" json:"role,omitempty"`
}

// IsAdmin reports whether the user may call admin routes.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
