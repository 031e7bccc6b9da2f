package chord

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntervalExpansion(t *testing.T) {
	cases := []struct {
		token     string
		intervals []int
	}{
		{"C", []int{0, 4, 7}},
		{"Cm", []int{0, 3, 7}},
		{"Cdim", []int{0, 3, 6}},
		{"Caug", []int{0, 4, 8}},
		{"Csus2", []int{0, 2, 7}},
		{"Csus4", []int{0, 5, 7}},
		{"C5", []int{0, 7}},
		{"C7", []int{0, 4, 7, 10}},
		{"Cmaj7", []int{0, 4, 7, 11}},
		{"Cm7", []int{0, 3, 7, 10}},
		{"Cdim7", []int{0, 3, 6, 9}},
		{"Cm7b5", []int{0, 3, 6, 10}},
		{"Cø", []int{0, 3, 6, 10}},
		{"CmM7", []int{0, 3, 7, 11}},
		{"C9", []int{0, 4, 7, 10, 14}},
		{"C11", []int{0, 4, 7, 10, 14, 17}},
		{"C13", []int{0, 4, 7, 10, 14, 21}},
		{"Cadd9", []int{0, 4, 7, 14}},
		{"C7b5", []int{0, 4, 6, 10}},
		{"C7b9", []int{0, 4, 7, 10, 13}},
		{"C7#9", []int{0, 4, 7, 10, 15}},
		{"Cmaj7b5", []int{0, 4, 6, 11}},
		{"NC", nil},
	}

	for _, c := range cases {
		name := fmt.Sprintf("test intervals for %v", c.token)
		t.Run(name, func(t *testing.T) {
			sym, err := Parse(c.token, American)
			if err != nil {
				t.Fatalf("did not parse: %v", err.Msg)
			}
			assert.New(t).Equal(c.intervals, Intervals(sym))
		})
	}
}

func TestAddNineKeepsSeventhOut(t *testing.T) {
	sym, err := Parse("Cadd9", American)

	assert := assert.New(t)
	assert.Nil(err)
	for _, iv := range Intervals(sym) {
		assert.NotEqual(10, iv)
		assert.NotEqual(11, iv)
	}
}
