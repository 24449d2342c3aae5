package residence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "condo/pkg/domain"
)

func TestExists(t *testing.T) {
	tests := []struct {
		name string
		id   id.ResidenceID
		want bool
	}{
		{name: "first residence", id: 1101, want: true},
		{name: "mid residence", id: 2102, want: true},
		{name: "last unit of a group", id: 2505, want: true},
		{name: "last residence", id: 5505, want: true},
		{name: "unit past range", id: 2506, want: false},
		{name: "group past range", id: 2601, want: false},
		{name: "block past range", id: 6101, want: false},
		{name: "unit zero", id: 2100, want: false},
		{name: "group zero", id: 2001, want: false},
		{name: "manager seat", id: id.ManagerSeat, want: false},
		{name: "three digits", id: 101, want: false},
		{name: "five digits", id: 12101, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Exists(tt.id))
		})
	}
}

func TestDecode(t *testing.T) {
	loc, ok := Decode(3204)
	assert.True(t, ok)
	assert.Equal(t, Location{Block: 3, Group: 2, Unit: 4}, loc)
	assert.Equal(t, id.ResidenceID(3204), Encode(loc))
}

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, MaxBlock*MaxGroup*MaxUnit)
	assert.Equal(t, id.ResidenceID(1101), all[0])
	assert.Equal(t, id.ResidenceID(5505), all[len(all)-1])
	for _, r := range all {
		assert.True(t, Exists(r), "residence %d", r)
	}
}
