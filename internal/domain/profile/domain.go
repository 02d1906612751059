package profile

import (
	"math"
	"strings"
	"time"
)

const DefaultBelt = "White"

var beltLevels = []string{"White", "Yellow", "Orange", "Green", "Blue", "Purple", "Brown", "Black"}

func BeltLevels() []string {
	out := make([]string, len(beltLevels))
	copy(out, beltLevels)
	return out
}

func IsAllowedBelt(level string) bool {
	return BeltRank(level) != math.MaxInt
}

// BeltRank orders belts from White (0) upward. Unknown levels rank last.
func BeltRank(level string) int {
	for i, b := range beltLevels {
		if b == level {
			return i
		}
	}
	return math.MaxInt
}

type Profile struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"userId"`
	FirstName    *string   `json:"firstName"`
	LastName     *string   `json:"lastName"`
	DisplayName  *string   `json:"displayName"`
	PhoneNumber  *string   `json:"phoneNumber"`
	AddressLine1 *string   `json:"addressLine1"`
	AddressLine2 *string   `json:"addressLine2"`
	City         *string   `json:"city"`
	State        *string   `json:"state"`
	PostalCode   *string   `json:"postalCode"`
	BeltLevel    string    `json:"beltLevel"`
	CreatedUTC   time.Time `json:"createdUtc"`
	UpdatedUTC   time.Time `json:"updatedUtc"`
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	DisplayName  *string `json:"displayName"`
	PhoneNumber  *string `json:"phoneNumber"`
	AddressLine1 *string `json:"addressLine1"`
	AddressLine2 *string `json:"addressLine2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	PostalCode   *string `json:"postalCode"`
	BeltLevel    *string `json:"beltLevel"`
}

func NewProfile(userID string, now time.Time) *Profile {
	return &Profile{
		UserID:     userID,
		BeltLevel:  DefaultBelt,
		CreatedUTC: now,
		UpdatedUTC: now,
	}
}

func (p *Profile) Apply(patch Patch, now time.Time) {
	set := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	set(&p.FirstName, patch.FirstName)
	set(&p.LastName, patch.LastName)
	set(&p.DisplayName, patch.DisplayName)
	set(&p.PhoneNumber, patch.PhoneNumber)
	set(&p.AddressLine1, patch.AddressLine1)
	set(&p.AddressLine2, patch.AddressLine2)
	set(&p.City, patch.City)
	set(&p.State, patch.State)
	set(&p.PostalCode, patch.PostalCode)
	if patch.BeltLevel != nil {
		p.BeltLevel = *patch.BeltLevel
	}
	p.UpdatedUTC = now
}

// Fields lists the optional text fields of a patch by their JSON name.
func (p Patch) Fields() map[string]*string {
	return map[string]*string{
		"firstName":    p.FirstName,
		"lastName":     p.LastName,
		"displayName":  p.DisplayName,
		"phoneNumber":  p.PhoneNumber,
		"addressLine1": p.AddressLine1,
		"addressLine2": p.AddressLine2,
		"city":         p.City,
		"state":        p.State,
		"postalCode":   p.PostalCode,
	}
}

// CanonicalBelt matches level case-insensitively and returns the stored spelling.
func CanonicalBelt(level string) (string, bool) {
	for _, b := range beltLevels {
		if strings.EqualFold(b, strings.TrimSpace(level)) {
			return b, true
		}
	}
	return "", false
}
