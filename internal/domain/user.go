package domain

import "time"

// User is an account holder keyed by the identity provider's uid.
// Role is one of constants.ValidRoles. HasListings is advisory; never use it for access control.
type User struct {
	UID         string    `gorm:"column:uid;type:varchar(128);primaryKey" json:"uid"`
	Email       string    `gorm:"column:email;index" json:"email"`
	PhoneNumber *string   `gorm:"column:phone_number" json:"phoneNumber"`
	Name        string    `gorm:"column:name" json:"name"`
	Role        string    `gorm:"column:role;type:varchar(20);not null;default:guest" json:"role"`
	HasListings bool      `gorm:"column:has_listings;not null;default:false" json:"hasListings"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
