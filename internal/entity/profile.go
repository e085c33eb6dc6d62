package entity

// ProfileID is the key of the singleton profile record.
const ProfileID = "main"

type UserProfile struct {
	Name      string `json:"name"`
	Height    string `json:"height"`
	Weight    string `json:"weight"`
	Gender    string `json:"gender"`
	SkinTone  string `json:"skin_tone"`
	AvatarKey string `json:"avatar_key,omitempty"`
}

func DefaultProfile() UserProfile {
	return UserProfile{
		Name:     "User",
		Height:   "175cm",
		Weight:   "70kg",
		Gender:   "Male",
		SkinTone: "Medium",
	}
}
