package contacts

import "time"

// Type classifies a contact as a customer, a vendor or both.
type Type string

const (
	TypeCustomer Type = "customer"
	TypeVendor   Type = "vendor"
	TypeBoth     Type = "both"
)

// Contact is a customer or vendor record.
type Contact struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Type         Type      `json:"type"`
	Email        *string   `json:"email"`
	Mobile       *string   `json:"mobile"`
	Address      *string   `json:"address"`
	City         *string   `json:"city"`
	State        *string   `json:"state"`
	Pincode      *string   `json:"pincode"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsCustomer reports whether sales documents may reference the contact.
func (c Contact) IsCustomer() bool {
	return c.Type == TypeCustomer || c.Type == TypeBoth
}

// ContactForm is the payload accepted when creating a contact. Optional
// strings may be empty.
type ContactForm struct {
	Name         string `json:"name" validate:"required"`
	Type         Type   `json:"type" validate:"required,oneof=customer vendor both"`
	Email        string `json:"email" validate:"omitempty,email"`
	Mobile       string `json:"mobile"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	ProfileImage string `json:"profile_image" validate:"omitempty,url"`
}
