package handler

import (
	"condo/internal/governance/models"
	"condo/internal/governance/residence"
	id "condo/pkg/domain"
)

// ResidenceResponse describes one dwelling of the registry.
type ResidenceResponse struct {
	ID     id.ResidenceID `json:"id"`
	Block  int            `json:"block"`
	Group  int            `json:"group"`
	Unit   int            `json:"unit"`
	Exists bool           `json:"exists"`
}

func toResidence(r id.ResidenceID) ResidenceResponse {
	loc, ok := residence.Decode(r)
	return ResidenceResponse{ID: r, Block: loc.Block, Group: loc.Group, Unit: loc.Unit, Exists: ok}
}

type ResidencesResponse struct {
	Residences []ResidenceResponse `json:"residences"`
	Total      int                 `json:"total"`
}

type DefaulterResponse struct {
	Residence id.ResidenceID `json:"residence"`
	Defaulter bool           `json:"defaulter"`
}

type PaymentsResponse struct {
	Residence id.ResidenceID    `json:"residence"`
	Payments  []*models.Payment `json:"payments"`
}

type ManagerResponse struct {
	Manager id.Address `json:"manager"`
}

type QuotaResponse struct {
	MonthlyQuota models.Amount `json:"monthly_quota"`
}

type VotesResponse struct {
	Topic string         `json:"topic"`
	Count int            `json:"count"`
	Tally models.Tally   `json:"tally"`
	Votes []*models.Vote `json:"votes"`
}

type TreasuryResponse struct {
	Balance   models.Amount      `json:"balance"`
	Transfers []*models.Transfer `json:"transfers"`
}

type AdapterResponse struct {
	Implementation  id.Address   `json:"implementation"`
	Upgraded        bool         `json:"upgraded"`
	Implementations []id.Address `json:"implementations"`
}
