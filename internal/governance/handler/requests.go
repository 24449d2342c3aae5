package handler

import (
	"strings"

	"condo/internal/governance/models"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
)

const (
	invalidCategory = models.Category(255)
	invalidOption   = models.Option(255)
)

// AddResidentRequest is the body of POST /residents.
type AddResidentRequest struct {
	Wallet    string         `json:"wallet"`
	Residence id.ResidenceID `json:"residence"`

	wallet id.Address
}

// Validate implements the Validate hook of httputil.DecodeAndPrepare.
func (r *AddResidentRequest) Validate() error {
	wallet, err := id.ParseAddress(r.Wallet)
	if err != nil {
		return err
	}
	r.wallet = wallet
	return nil
}

// SetCounselorRequest is the body of PUT /residents/{wallet}/counselor.
type SetCounselorRequest struct {
	Counselor bool `json:"counselor"`
}

// PayQuotaRequest is the body of POST /residences/{id}/payments. Value is in wei.
type PayQuotaRequest struct {
	Value models.Amount `json:"value"`
}

// AddTopicRequest is the body of POST /topics.
type AddTopicRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Amount      models.Amount `json:"amount"`
	Responsible string        `json:"responsible,omitempty"`

	category    models.Category
	responsible id.Address
}

func (r *AddTopicRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.ToUpper(strings.TrimSpace(r.Category))
	r.Responsible = strings.TrimSpace(r.Responsible)
}

func (r *AddTopicRequest) Validate() error {
	if len(r.Title) > 200 {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 200 characters")
	}
	if len(r.Description) > 4000 {
		return dErrors.New(dErrors.CodeValidation, "description must be at most 4000 characters")
	}
	// An unknown name is passed through as an invalid category so the engine
	// reports it in its own rule order.
	r.category = invalidCategory
	if category, err := models.ParseCategory(r.Category); err == nil {
		r.category = category
	}
	if r.Responsible != "" {
		responsible, err := id.ParseAddress(r.Responsible)
		if err != nil {
			return err
		}
		r.responsible = responsible
	}
	return nil
}

func (r *AddTopicRequest) Draft() models.TopicDraft {
	return models.TopicDraft{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.category,
		Amount:      r.Amount,
		Responsible: r.responsible,
	}
}

// EditTopicRequest is the body of PATCH /topics/{title}. Omitted fields keep
// their current value.
type EditTopicRequest struct {
	Description string        `json:"description,omitempty"`
	Amount      models.Amount `json:"amount,omitempty"`
	Responsible string        `json:"responsible,omitempty"`

	responsible id.Address
}

func (r *EditTopicRequest) Normalize() {
	r.Description = strings.TrimSpace(r.Description)
	r.Responsible = strings.TrimSpace(r.Responsible)
}

func (r *EditTopicRequest) Validate() error {
	if len(r.Description) > 4000 {
		return dErrors.New(dErrors.CodeValidation, "description must be at most 4000 characters")
	}
	if r.Responsible != "" {
		responsible, err := id.ParseAddress(r.Responsible)
		if err != nil {
			return err
		}
		r.responsible = responsible
	}
	return nil
}

func (r *EditTopicRequest) Patch() models.TopicPatch {
	return models.TopicPatch{
		Description: r.Description,
		Amount:      r.Amount,
		Responsible: r.responsible,
	}
}

// VoteRequest is the body of POST /topics/{title}/votes.
type VoteRequest struct {
	Option string `json:"option"`

	option models.Option
}

// Validate never fails; an unknown option reaches the engine as invalid.
func (r *VoteRequest) Validate() error {
	r.option = invalidOption
	if option, err := models.ParseOption(strings.TrimSpace(r.Option)); err == nil {
		r.option = option
	}
	return nil
}

// TransferRequest is the body of POST /treasury/transfers.
type TransferRequest struct {
	Topic  string        `json:"topic"`
	Amount models.Amount `json:"amount"`
}

func (r *TransferRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return dErrors.New(dErrors.CodeValidation, "topic is required")
	}
	return nil
}

// UpgradeRequest is the body of POST /adapter/upgrade.
type UpgradeRequest struct {
	Implementation string `json:"implementation"`

	implementation id.Address
}

func (r *UpgradeRequest) Validate() error {
	impl, err := id.ParseAddress(r.Implementation)
	if err != nil {
		return err
	}
	r.implementation = impl
	return nil
}
