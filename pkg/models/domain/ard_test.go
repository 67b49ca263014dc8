package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestARD_Sort(t *testing.T) {
	ard := NewARD(
		[]string{"Participants in population", "", "Zoster", "Anemia"},
		[]string{"Placebo", "Drug", "Total"},
	)
	ard.Add("Anemia", "Total", "3")
	ard.Add("Zoster", "Drug", "1")
	ard.Add("", "Placebo", "")
	ard.Add("Participants in population", "Total", "10")
	ard.Add("Anemia", "Placebo", "2")
	ard.Add("Participants in population", "Placebo", "5")

	ard.Sort()

	got := make([][2]string, len(ard.Rows))
	for i, r := range ard.Rows {
		got[i] = [2]string{r.Index, r.Group}
	}
	want := [][2]string{
		{"Participants in population", "Placebo"},
		{"Participants in population", "Total"},
		{"", "Placebo"},
		{"Zoster", "Drug"},
		{"Anemia", "Placebo"},
		{"Anemia", "Total"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sorted rows mismatch (-want +got):\n%s", diff)
	}
}

func TestARD_SortKeepsCategoryAxis(t *testing.T) {
	ard := NewARD([]string{"b", "a", "c"}, []string{"G2", "G1"})
	for _, g := range []string{"G1", "G2"} {
		for _, c := range []string{"c", "a", "b"} {
			ard.Add(c, g, c+g)
		}
	}
	ard.Sort()

	var order []string
	for _, r := range ard.Rows {
		if len(order) == 0 || order[len(order)-1] != r.Index {
			order = append(order, r.Index)
		}
	}
	assert.Equal(t, []string{"b", "a", "c"}, order)
	assert.Equal(t, "G2", ard.Rows[0].Group)
}

func TestARD_NewDeduplicates(t *testing.T) {
	ard := NewARD([]string{"a", "a", ""}, []string{"X", "X"})
	assert.Equal(t, []string{"a", ""}, ard.Categories)
	assert.Equal(t, []string{"X"}, ard.Groups)

	ard.Add("a", "X", "1")
	v, ok := ard.Cell("a", "X")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}
