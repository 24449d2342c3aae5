package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
)

// Amount is a value in the smallest currency unit (wei).
type Amount uint64

const (
	Wei   Amount = 1
	Ether Amount = 1_000_000_000_000_000_000

	// DefaultMonthlyQuota is 0.001 ether.
	DefaultMonthlyQuota = Ether / 1000
)

// ParseAmount parses a non-negative decimal integer.
func ParseAmount(s string) (Amount, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid amount")
	}
	return Amount(n), nil
}

func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// PaymentPeriod is how long one quota payment keeps a residence current.
const PaymentPeriod = 30 * 24 * time.Hour

// Resident is a wallet registered to a residence. IsManager and NextPayment
// are derived when the record is read and are not persisted.
type Resident struct {
	Wallet      id.Address     `json:"wallet"`
	Residence   id.ResidenceID `json:"residence"`
	IsCounselor bool           `json:"is_counselor"`
	IsManager   bool           `json:"is_manager"`
	NextPayment time.Time      `json:"next_payment,omitzero"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ResidentPage is one page of the directory listing.
type ResidentPage struct {
	Residents []*Resident `json:"residents"`
	Page      int         `json:"page"`
	PageSize  int         `json:"page_size"`
	// Total is the number of registered residents.
	Total int `json:"total"`
	// Universe is the quorum population.
	Universe int `json:"universe"`
}

// Topic is a governance proposal keyed by its title.
type Topic struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Amount      Amount     `json:"amount"`
	Responsible id.Address `json:"responsible"`
	Status      Status     `json:"status"`
	Votes       int        `json:"votes"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   time.Time  `json:"started_at,omitzero"`
	EndedAt     time.Time  `json:"ended_at,omitzero"`
}

// TopicPage is one page of the topic listing, newest first.
type TopicPage struct {
	Topics   []*Topic `json:"topics"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Total    int      `json:"total"`
}

// TopicDraft carries the fields of a new topic. A zero Responsible means the
// proposer.
type TopicDraft struct {
	Title       string
	Description string
	Category    Category
	Amount      Amount
	Responsible id.Address
}

// TopicPatch carries the fields EditTopic may change. Empty strings and zero
// values leave the current value in place.
type TopicPatch struct {
	Description string
	Amount      Amount
	Responsible id.Address
}

// Vote is one residence's ballot on a topic.
type Vote struct {
	Topic     string         `json:"topic"`
	Residence id.ResidenceID `json:"residence"`
	Wallet    id.Address     `json:"wallet"`
	Option    Option         `json:"option"`
	CastAt    time.Time      `json:"cast_at"`
}

// Tally counts a topic's ballots by option.
type Tally struct {
	Yes        int `json:"yes"`
	No         int `json:"no"`
	Abstention int `json:"abstention"`
}

// Total is the number of ballots counted toward quorum.
func (t Tally) Total() int {
	return t.Yes + t.No + t.Abstention
}

// TallyVotes counts votes by option.
func TallyVotes(votes []*Vote) Tally {
	var t Tally
	for _, v := range votes {
		switch v.Option {
		case OptionYes:
			t.Yes++
		case OptionNo:
			t.No++
		case OptionAbstention:
			t.Abstention++
		}
	}
	return t
}

// Settings is the single governance record.
type Settings struct {
	Manager      id.Address `json:"manager"`
	MonthlyQuota Amount     `json:"monthly_quota"`
	Balance      Amount     `json:"balance"`
}

// Payment is a ledger entry for one quota payment.
type Payment struct {
	ID          uuid.UUID      `json:"id"`
	Residence   id.ResidenceID `json:"residence"`
	Payer       id.Address     `json:"payer"`
	Amount      Amount         `json:"amount"`
	PaidAt      time.Time      `json:"paid_at"`
	NextPayment time.Time      `json:"next_payment"`
}

// Transfer is a treasury release against an approved SPENT topic.
type Transfer struct {
	ID         uuid.UUID  `json:"id"`
	Topic      string     `json:"topic"`
	To         id.Address `json:"to"`
	Amount     Amount     `json:"amount"`
	ExecutedAt time.Time  `json:"executed_at"`
}

// ClampPage normalises 1-indexed paging arguments. page is capped so that
// (page-1)*pageSize always fits in an int.
func ClampPage(page, pageSize int) (int, int) {
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / pageSize; page > maxPage {
		page = maxPage
	}
	return page, pageSize
}
