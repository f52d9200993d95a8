package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// CartItem is one line in a customer's cart.  A line belongs to exactly one
// email and is removed once a payment covering it is recorded.
type CartItem struct {
    ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
    Email  string             `bson:"email" json:"email"`
    MenuID string             `bson:"menuId" json:"menuId"`
    Name   string             `bson:"name" json:"name"`
    Image  string             `bson:"image,omitempty" json:"image,omitempty"`
    Price  float64            `bson:"price" json:"price"`
}
