package adapters

import (
	"testing"

	"github.com/de-tools/tlf-atlas/pkg/models/api"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPlanToAPI(t *testing.T) {
	p := domain.IndividualPlan{Analysis: "ae_specific", Population: "apat", Parameter: "any;rel", Group: "trt01a"}

	assert.Equal(t, api.Plan{
		ID:         "ae_specific_apat_any;rel",
		Analysis:   "ae_specific",
		Population: "apat",
		Parameter:  "any;rel",
		Group:      "trt01a",
		Filename:   "ae_specific_apat_any_rel.rtf",
	}, MapPlanToAPI(p))
}

func TestMapArtifactToDisplay(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		art := &domain.TableArtifact{
			ID:      "cm_summary_apat",
			Render:  domain.RenderSpec{Titles: []string{"Summary of Concomitant Medications"}},
			Display: &domain.DisplayTable{Columns: []string{"", "A"}, Rows: [][]string{{"Participants in population", "3"}}},
		}
		out, err := MapArtifactToDisplay(art)
		require.NoError(t, err)
		assert.Equal(t, "table", out.Kind)
		assert.Equal(t, [][]string{{"Participants in population", "3"}}, out.Rows)
	})

	t.Run("empty listing", func(t *testing.T) {
		out, err := MapArtifactToDisplay(&domain.ListingArtifact{ID: "cm_listing_apat", Data: &domain.DisplayTable{Columns: []string{"Subject ID"}}})
		require.NoError(t, err)
		assert.Equal(t, [][]string{}, out.Rows)
	})

	t.Run("figure", func(t *testing.T) {
		_, err := MapArtifactToDisplay(&domain.FigureArtifact{ID: "km_apat"})
		assert.ErrorIs(t, err, domain.ErrFigureNotSupported)
	})
}

func TestMapARDToAPI(t *testing.T) {
	a := domain.NewARD([]string{"Participants in population"}, []string{"A", "Total"})
	a.Rows = []domain.ARDRow{{Index: "Participants in population", Group: "A", Value: "3"}}

	out := MapARDToAPI("ae_summary_apat", a)

	assert.Equal(t, []string{"A", "Total"}, out.Groups)
	assert.Equal(t, []api.ARDRow{{Index: "Participants in population", Group: "A", Value: "3"}}, out.Rows)
}

func TestMapARDToAPI_Labels(t *testing.T) {
	a := domain.NewARD([]string{"SOC1", "SOC1\x1fPain"}, []string{"A"})
	a.SetLabel("SOC1\x1fPain", "    Pain")

	out := MapARDToAPI("ae_specific_apat", a)
	assert.Equal(t, map[string]string{"SOC1\x1fPain": "    Pain"}, out.Labels)

	assert.Nil(t, MapARDToAPI("ae_summary_apat", domain.NewARD(nil, nil)).Labels)
}
