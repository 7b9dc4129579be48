package users

import "time"

type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPlus    Tier = "plus"
	TierPremium Tier = "premium"
	TierVIP     Tier = "vip"
)

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierPlus, TierPremium, TierVIP:
		return true
	}
	return false
}

// User is the sender profile used in generated letters. Tier is informational
// only and never gates access.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Address   string    `json:"address,omitempty"`
	Tier      Tier      `json:"tier"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the user-editable fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	FullName *string
	Address  *string
	Tier     *Tier
}
