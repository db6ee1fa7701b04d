package user

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/daily-reflections/core/internal/models"
	"github.com/daily-reflections/core/internal/pkg/apperr"
)

const (
	maxNameLength = 100
	maxBioLength  = 500
	maxLanguages  = 10
)

var allowedGenders = map[string]struct{}{
	"female": {}, "male": {}, "non-binary": {}, "other": {}, "prefer-not-to-say": {},
}

// UpdateProfileDTO is a partial profile. Absent fields are left untouched.
type UpdateProfileDTO struct {
	Name        *string   `json:"name"`
	FirstName   *string   `json:"firstName"`
	LastName    *string   `json:"lastName"`
	Bio         *string   `json:"bio"`
	Timezone    *string   `json:"timezone"`
	Gender      *string   `json:"gender"`
	Nationality *string   `json:"nationality"`
	Languages   *[]string `json:"languages"`
}

func (d *UpdateProfileDTO) Validate() error {
	for field, v := range map[string]*string{
		"name": d.Name, "firstName": d.FirstName, "lastName": d.LastName, "nationality": d.Nationality,
	} {
		if v == nil {
			continue
		}
		*v = strings.TrimSpace(*v)
		if utf8.RuneCountInString(*v) > maxNameLength {
			return apperr.Validation(field + " is too long")
		}
	}
	if d.Name != nil && *d.Name == "" {
		return apperr.Validation("name must not be empty")
	}
	if d.Bio != nil && utf8.RuneCountInString(*d.Bio) > maxBioLength {
		return apperr.Validation("bio is too long")
	}
	if d.Timezone != nil {
		if _, err := time.LoadLocation(*d.Timezone); err != nil || *d.Timezone == "" {
			return apperr.Validation("timezone must be an IANA name such as Europe/Paris")
		}
	}
	if d.Gender != nil {
		g := strings.ToLower(strings.TrimSpace(*d.Gender))
		if _, ok := allowedGenders[g]; !ok {
			return apperr.Validation("gender is not recognized")
		}
		d.Gender = &g
	}
	if d.Languages != nil {
		if len(*d.Languages) > maxLanguages {
			return apperr.Validation("too many languages")
		}
		for _, l := range *d.Languages {
			if strings.TrimSpace(l) == "" {
				return apperr.Validation("languages must not contain blanks")
			}
		}
	}
	return nil
}

func (d *UpdateProfileDTO) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if d.Name != nil {
		cols["name"] = *d.Name
	}
	if d.FirstName != nil {
		cols["first_name"] = *d.FirstName
	}
	if d.LastName != nil {
		cols["last_name"] = *d.LastName
	}
	if d.Bio != nil {
		cols["bio"] = *d.Bio
	}
	if d.Timezone != nil {
		cols["timezone"] = *d.Timezone
	}
	if d.Gender != nil {
		cols["gender"] = *d.Gender
	}
	if d.Nationality != nil {
		cols["nationality"] = *d.Nationality
	}
	if d.Languages != nil {
		cols["languages"] = models.StringArray(*d.Languages)
	}
	return cols
}

type userResponse struct {
	*models.UserModel
	NeedsOnboarding bool `json:"needsOnboarding"`
}

func toResponse(u *models.UserModel) userResponse {
	return userResponse{UserModel: u, NeedsOnboarding: u.NeedsOnboarding()}
}
