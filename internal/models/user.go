package models

// Onboarding flag values. A NULL column means the user signed up before the
// flag existed and still needs onboarding.
const (
	OnboardingDone    = "true"
	OnboardingPending = "false"
)

// UserModel is a journal owner.
type UserModel struct {
	Base
	Email               string      `json:"email"               gorm:"type:varchar(255);uniqueIndex;not null"`
	Name                string      `json:"name"                gorm:"type:varchar(255)"`
	FirstName           *string     `json:"firstName"           gorm:"type:varchar(255)"`
	LastName            *string     `json:"lastName"            gorm:"type:varchar(255)"`
	Bio                 *string     `json:"bio"                 gorm:"type:text"`
	Timezone            string      `json:"timezone"            gorm:"type:varchar(64);default:'UTC';not null"`
	Gender              *string     `json:"gender"              gorm:"type:varchar(64)"`
	Nationality         *string     `json:"nationality"         gorm:"type:varchar(128)"`
	Languages           StringArray `json:"languages"           gorm:"type:text"`
	OnboardingCompleted *string     `json:"onboardingCompleted" gorm:"type:varchar(8)"`
	PasswordHash        string      `json:"-"                   gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

// NeedsOnboarding is true unless the flag is exactly "true".
func (u *UserModel) NeedsOnboarding() bool {
	return u.OnboardingCompleted == nil || *u.OnboardingCompleted != OnboardingDone
}
