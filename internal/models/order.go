package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is the persisted order document. Approved orders move through
// sub-phases tracked by the optional fields below; see the orders package for
// the derivation rules.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	UserName       string             `bson:"userName" json:"userName"`
	UserPhone      string             `bson:"userPhone" json:"userPhone"`
	ServiceName    string             `bson:"serviceName" json:"serviceName"`
	PackageDetails string             `bson:"packageDetails" json:"packageDetails"`
	// Amount is a locale-formatted display string (e.g. "৳500"), never math.
	Amount        string    `bson:"amount" json:"amount"`
	PaymentMethod string    `bson:"paymentMethod" json:"paymentMethod"`
	SenderPhone   string    `bson:"senderPhone" json:"senderPhone"`
	TrxID         string    `bson:"trxId" json:"trxId"`
	Status        string    `bson:"status" json:"status"`
	Date          time.Time `bson:"date" json:"date"`

	AdminContactLink   string `bson:"adminContactLink,omitempty" json:"adminContactLink,omitempty"`
	ClientDocLink      string `bson:"clientDocLink,omitempty" json:"clientDocLink,omitempty"`
	ClientPageLink     string `bson:"clientPageLink,omitempty" json:"clientPageLink,omitempty"`
	ClientEmail        string `bson:"clientEmail,omitempty" json:"clientEmail,omitempty"`
	ClientWhatsapp     string `bson:"clientWhatsapp,omitempty" json:"clientWhatsapp,omitempty"`
	ClientRequirements string `bson:"clientRequirements,omitempty" json:"clientRequirements,omitempty"`
	IsDetailsSubmitted bool   `bson:"isDetailsSubmitted" json:"isDetailsSubmitted"`
	AdminMessage       string `bson:"adminMessage,omitempty" json:"adminMessage,omitempty"`

	StartDate      *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
	CompletionDate *time.Time `bson:"completionDate,omitempty" json:"completionDate,omitempty"`

	// Rev guards concurrent admin edits: transition updates filter on the rev
	// they read and increment it.
	Rev int64 `bson:"rev" json:"rev"`
}
