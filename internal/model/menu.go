package model

// MenuItem is a dish in the `menu` collection.  Seeded items carry string
// ids while items created through the API get an ObjectID, so ID holds
// whichever the document has (string or primitive.ObjectID).
type MenuItem struct {
    ID       any     `bson:"_id,omitempty" json:"_id,omitempty"`
    Name     string  `bson:"name" json:"name"`
    Recipe   string  `bson:"recipe" json:"recipe"`
    Image    string  `bson:"image" json:"image"`
    Category string  `bson:"category" json:"category"`
    Price    float64 `bson:"price" json:"price"`
}

// Review is a customer testimonial shown on the landing page.
type Review struct {
    ID       any     `bson:"_id,omitempty" json:"_id,omitempty"`
    Name     string  `bson:"name" json:"name"`
    Details  string  `bson:"details" json:"details"`
    Rating   float64 `bson:"rating" json:"rating"`
    Category string  `bson:"category,omitempty" json:"category,omitempty"`
}
