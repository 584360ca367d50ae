package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/fundgest/internal/errs"
)

// Sections overrides the built-in section keywords per dataset. Nil entries
// keep the defaults.
type Sections struct {
	Agenda *AgendaSections `yaml:"agenda"`
	ABSA   *ABSASections   `yaml:"absa"`
	FR     *FRSections     `yaml:"fr"`
	OASIS  *OASISSections  `yaml:"oasis"`
}

// AgendaSections configures the minutes chunker.
type AgendaSections struct {
	Starts      []string `yaml:"starts" validate:"required,min=1,unique,dive,required"`
	Terminators []string `yaml:"terminators" validate:"unique,dive,required"`
	EndPrefix   string   `yaml:"end_prefix"`
}

// ABSASections configures the budget allocation sheet.
type ABSASections struct {
	Header   []string `yaml:"header" validate:"unique,dive,required"`
	NoHeader []string `yaml:"no_header" validate:"unique,dive,required"`
	End      string   `yaml:"end"`
}

// FRSections configures the finance resolution sheet.
type FRSections struct {
	Anchor string `yaml:"anchor"`
}

// OASISSections configures the organization registry export.
type OASISSections struct {
	Anchor       string   `yaml:"anchor"`
	Designations []string `yaml:"designations" validate:"dive,required"`
}

// LoadSections reads and validates a sections override file. Malformed
// content is an *errs.ValidationError.
func LoadSections(path string) (Sections, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sections{}, fmt.Errorf("read sections file: %w", err)
	}
	return ParseSections(data)
}

// ParseSections decodes and validates sections YAML.
func ParseSections(data []byte) (Sections, error) {
	var s Sections
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Sections{}, &errs.ValidationError{Field: "sections file", Reason: err.Error()}
	}
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Sections{}, &errs.ValidationError{Field: fe.Namespace(), Reason: "failed " + fe.Tag()}
		}
		return Sections{}, &errs.ValidationError{Field: "sections", Reason: err.Error()}
	}
	return s, nil
}
