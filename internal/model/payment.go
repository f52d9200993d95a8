package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Payment status values.  Card payments are written already settled by the
// client flow; gateway payments start pending and move to Success once.
const (
    PaymentPending = "pending"
    PaymentSuccess = "Success"
)

// Payment methods recorded on the ledger.
const (
    MethodCard    = "card"
    MethodGateway = "sslcommerz"
)

// Payment is a document in the `payments` collection.  Records are never
// deleted; CartIDs lists the cart lines the payment settles and MenuItemIDs
// the dishes, which feed the order statistics.
type Payment struct {
    ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
    Email         string             `bson:"email" json:"email"`
    Price         float64            `bson:"price" json:"price"`
    TransactionID string             `bson:"transactionId" json:"transactionId"`
    Date          string             `bson:"date,omitempty" json:"date,omitempty"`
    CartIDs       []string           `bson:"cartIds" json:"cartIds"`
    MenuItemIDs   []string           `bson:"menuItemIds" json:"menuItemIds"`
    Status        string             `bson:"status,omitempty" json:"status,omitempty"`
}

// AdminStats is the dashboard summary.
type AdminStats struct {
    Users     int64   `json:"users"`
    MenuItems int64   `json:"menuItems"`
    Orders    int64   `json:"orders"`
    Revenue   float64 `json:"revenue"`
}

// CategoryStat is one row of the per-category order report.
type CategoryStat struct {
    Category string  `bson:"category" json:"category"`
    Quantity int64   `bson:"quantity" json:"quantity"`
    Revenue  float64 `bson:"revenue" json:"revenue"`
}
