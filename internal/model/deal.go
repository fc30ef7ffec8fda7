package model

// PayorType classifies who pays the athlete.
type PayorType string

const (
	PayorBusiness   PayorType = "business"
	PayorIndividual PayorType = "individual"
)

// PaymentType classifies a non-cash, non-goods compensation item.
type PaymentType string

const (
	PaymentBonus   PaymentType = "bonus"
	PaymentRoyalty PaymentType = "royalty"
	PaymentOther   PaymentType = "other"
)

// GoodsItem is in-kind compensation (products, services).
type GoodsItem struct {
	Description    string `json:"description"`
	EstimatedValue Number `json:"estimatedValue"`
}

// OtherItem is a bonus, royalty or other deferred payment.
type OtherItem struct {
	PaymentType    PaymentType `json:"paymentType"`
	Description    string      `json:"description"`
	EstimatedValue Number      `json:"estimatedValue"`
}

// Activity is one deliverable the athlete performs under the deal.
type Activity struct {
	ActivityType string         `json:"activityType"`
	Details      map[string]any `json:"details,omitempty"`
}

// DealTerms is the deal record assembled by the wizard/CRUD layer.
type DealTerms struct {
	CashAmount        Number      `json:"cashAmount"`
	GoodsItems        []GoodsItem `json:"goodsItems"`
	OtherItems        []OtherItem `json:"otherItems"`
	PayorName         string      `json:"payorName"`
	PayorType         PayorType   `json:"payorType"`
	Activities        []Activity  `json:"activities"`
	GrantsExclusivity bool        `json:"grantsExclusivity"`
	UsesSchoolIP      bool        `json:"usesSchoolIp"`
}

// Validate checks the enum fields. Numeric fields are checked lazily when the
// engine reads them.
func (d *DealTerms) Validate() error {
	switch d.PayorType {
	case "", PayorBusiness, PayorIndividual:
	default:
		return &InvalidInputError{Field: "payorType", Value: string(d.PayorType), Reason: "must be business or individual"}
	}
	for i, it := range d.OtherItems {
		switch it.PaymentType {
		case "", PaymentBonus, PaymentRoyalty, PaymentOther:
		default:
			return &InvalidInputError{
				Field:  fieldIndex("otherItems", i, "paymentType"),
				Value:  string(it.PaymentType),
				Reason: "must be bonus, royalty or other",
			}
		}
	}
	return nil
}
