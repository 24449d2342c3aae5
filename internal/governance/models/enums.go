package models

import (
	"strings"

	dErrors "condo/pkg/domain-errors"
)

// Category decides which side effect an approved topic has.
type Category uint8

const (
	CategoryDecision Category = iota
	CategorySpent
	CategoryChangeQuota
	CategoryChangeManager
)

var categoryNames = [...]string{"DECISION", "SPENT", "CHANGE_QUOTA", "CHANGE_MANAGER"}

// ParseCategory accepts the upper-case name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if strings.EqualFold(s, name) {
			return Category(i), nil
		}
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid category")
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "UNKNOWN"
}

// IsValid reports whether c is one of the defined categories.
func (c Category) IsValid() bool {
	return int(c) < len(categoryNames)
}

// AllowsAmount reports whether topics of this category may carry an amount.
func (c Category) AllowsAmount() bool {
	return c == CategorySpent || c == CategoryChangeQuota
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Status is a topic's lifecycle position.
type Status uint8

const (
	StatusIdle Status = iota
	StatusVoting
	StatusApproved
	StatusDenied
	StatusSpent
)

var statusNames = [...]string{"IDLE", "VOTING", "APPROVED", "DENIED", "SPENT"}

func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if strings.EqualFold(s, name) {
			return Status(i), nil
		}
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid status")
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// IsFinal reports whether no further vote transition is possible.
func (s Status) IsFinal() bool {
	return s == StatusDenied || s == StatusSpent
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Option is a ballot choice. OptionEmpty is never a valid vote.
type Option uint8

const (
	OptionEmpty Option = iota
	OptionYes
	OptionNo
	OptionAbstention
)

var optionNames = [...]string{"EMPTY", "YES", "NO", "ABSTENTION"}

func ParseOption(s string) (Option, error) {
	for i, name := range optionNames {
		if strings.EqualFold(s, name) {
			return Option(i), nil
		}
	}
	return 0, ErrInvalidOption
}

func (o Option) String() string {
	if int(o) < len(optionNames) {
		return optionNames[o]
	}
	return "UNKNOWN"
}

func (o Option) IsValid() bool {
	return int(o) < len(optionNames)
}

func (o Option) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Option) UnmarshalText(text []byte) error {
	parsed, err := ParseOption(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
