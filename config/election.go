package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Election is the static, per-election configuration read once at startup.
type Election struct {
	ElectionDate       string            `yaml:"electionDate" validate:"required,datetime=2006-01-02"`
	TargetListLength   int               `yaml:"targetListLength" validate:"gte=0,lte=10"`
	BigBoardListLength int               `yaml:"bigBoardListLength" validate:"gte=0,lte=10"`
	Offices            map[string]string `yaml:"offices" validate:"required,min=1,dive,keys,required,endkeys,required"`
	Chambers           []Chamber         `yaml:"chambers" validate:"dive"`
	// CandidateOverrides pins candidate ids per race id.
	CandidateOverrides map[string][]string `yaml:"candidateOverrides" validate:"dive,keys,required,endkeys,min=1,dive,required"`
}

// Chamber describes one legislative body counted for balance of power.
type Chamber struct {
	Slug            string `yaml:"slug" validate:"required,alphanum"`
	Office          string `yaml:"office" validate:"required"`
	TotalSeats      int    `yaml:"totalSeats" validate:"required,gt=0"`
	Initial         Seats  `yaml:"initial"`
	CaucusWith      string `yaml:"caucusWith" validate:"omitempty,oneof=Dem GOP"`
	TieBreak        string `yaml:"tieBreak" validate:"omitempty,oneof=Dem GOP"`
	ExcludeSpecials bool   `yaml:"excludeSpecials"`
}

// Seats held before election day by seats not on the ballot.
type Seats struct {
	Dem   int `yaml:"dem" validate:"gte=0"`
	GOP   int `yaml:"gop" validate:"gte=0"`
	Other int `yaml:"other" validate:"gte=0"`
}

// LoadElection reads and validates the election file.
func LoadElection(path string) (*Election, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading election file: %w", err)
	}
	return ParseElection(raw)
}

// ParseElection decodes and validates election YAML.
func ParseElection(raw []byte) (*Election, error) {
	var e Election
	if err := yaml.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("parsing election file: %w", err)
	}
	if err := validator.New().Struct(&e); err != nil {
		return nil, fmt.Errorf("validating election file: %w", err)
	}
	if err := e.checkChambers(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Election) checkChambers() error {
	seen := make(map[string]bool, len(e.Chambers))
	for _, c := range e.Chambers {
		if seen[c.Slug] {
			return fmt.Errorf("validating election file: duplicate chamber %q", c.Slug)
		}
		seen[c.Slug] = true
		if c.Initial.Dem+c.Initial.GOP+c.Initial.Other > c.TotalSeats {
			return fmt.Errorf("validating election file: chamber %q holds more seats than it has", c.Slug)
		}
	}
	return nil
}

// OfficeForSlug maps a URL slug to an office name.
func (e *Election) OfficeForSlug(slug string) (string, error) {
	office, ok := e.Offices[slug]
	if !ok {
		return "", errors.New("unknown office " + slug)
	}
	return office, nil
}
