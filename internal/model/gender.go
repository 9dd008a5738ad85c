package model

import (
	"encoding/json"
	"fmt"
)

// Gender is a profile attribute; the zero value means unset.
type Gender string

// Known genders.
const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Validate rejects values outside {Male, Female, unset}.
func (g Gender) Validate() error {
	switch g {
	case GenderUnset, GenderMale, GenderFemale:
		return nil
	}
	return fmt.Errorf("invalid gender %q", string(g))
}

// MarshalJSON encodes unset as null.
func (g Gender) MarshalJSON() ([]byte, error) {
	if g == GenderUnset {
		return []byte("null"), nil
	}
	return json.Marshal(string(g))
}

// UnmarshalJSON accepts null or a string.
func (g *Gender) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*g = GenderUnset
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*g = Gender(s)
	return nil
}

// ParseGender maps CLI-style input to a Gender.
func ParseGender(s string) (Gender, error) {
	switch s {
	case "", "unset", "none":
		return GenderUnset, nil
	case "male", "Male", "m":
		return GenderMale, nil
	case "female", "Female", "f":
		return GenderFemale, nil
	}
	return GenderUnset, fmt.Errorf("invalid gender %q", s)
}
