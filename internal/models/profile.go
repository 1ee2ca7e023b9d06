package models

import "time"

// Profile is the generic profile row keyed by the auth user id.
type Profile struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// MerchantProfile is the merchant sub-profile row.
type MerchantProfile struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	BusinessName string `json:"business_name,omitempty"`
}

// DriverProfile is the driver sub-profile row.
type DriverProfile struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
}
