package models

// Identity is the normalized record of the signed-in user. An empty string
// stands for an absent attribute. Values are replaced wholesale, never edited.
type Identity struct {
	ID                string `json:"id"`
	Role              Role   `json:"role"`
	Email             string `json:"email,omitempty"`
	FullName          string `json:"full_name,omitempty"`
	Phone             string `json:"phone,omitempty"`
	AvatarURL         string `json:"avatar_url,omitempty"`
	MerchantProfileID string `json:"merchant_profile_id,omitempty"`
	DriverProfileID   string `json:"driver_profile_id,omitempty"`
}

// Clone returns a copy of i, or nil when i is nil.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Consistent reports whether the sub-profile ids agree with the role:
// a merchant never carries a driver id, a driver never carries a merchant
// id, and a customer carries neither.
func (i *Identity) Consistent() bool {
	switch i.Role {
	case RoleMerchant:
		return i.DriverProfileID == ""
	case RoleDriver:
		return i.MerchantProfileID == ""
	case RoleCustomer:
		return i.MerchantProfileID == "" && i.DriverProfileID == ""
	default:
		return false
	}
}
