package study

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Load(ctx context.Context, path string) (*dataset.Table, error) {
	args := m.Called(ctx, path)
	t, _ := args.Get(0).(*dataset.Table)
	return t, args.Error(1)
}

func studyConfig() *domain.StudyConfig {
	return &domain.StudyConfig{
		Study: domain.StudyInfo{Name: "xyz123"},
		Data: map[string]string{
			"adsl": "adsl.parquet",
			"ADAE": "/abs/adae.parquet",
		},
		Populations: []domain.Keyword{
			{Name: "apat", Label: "All Participants as Treated", Filter: "adsl:saffl == 'Y'"},
		},
		Observations: []domain.Keyword{
			{Name: "week12", Label: "Weeks 0 to 12", Filter: "adae:aestdy <= 84"},
		},
		Parameters: []domain.Keyword{
			{Name: "any", Label: "Any adverse events"},
			{Name: "rel", Label: "Drug-related adverse events", Filter: "adae:aerel in ['RELATED']"},
		},
		Groups: []domain.Group{
			{Name: "trt01a", Variable: "adsl:trt01a", Label: "Treatment", Levels: []string{"Placebo", "Drug"}},
		},
	}
}

func TestContext_Keywords(t *testing.T) {
	c := New(studyConfig(), nil)

	t.Run("population", func(t *testing.T) {
		k, err := c.Population("apat")
		require.NoError(t, err)
		assert.Equal(t, "adsl:saffl == 'Y'", k.Filter)
	})

	t.Run("unknown population is an error, never an empty filter", func(t *testing.T) {
		_, err := c.Population("itt")
		var kwErr *KeywordNotFoundError
		require.ErrorAs(t, err, &kwErr)
		assert.Equal(t, domain.CategoryPopulation, kwErr.Category)
		assert.Equal(t, "itt", kwErr.Name)
		assert.ErrorIs(t, err, ErrKeywordNotFound)
	})

	t.Run("absent observation", func(t *testing.T) {
		k, err := c.Observation("")
		require.NoError(t, err)
		assert.Empty(t, k.Filter)
	})

	t.Run("parameter info", func(t *testing.T) {
		info, err := c.ParameterInfo("any;rel")
		require.NoError(t, err)
		assert.Equal(t, []string{"any", "rel"}, info.Names)
		assert.Equal(t, []string{"", "adae:aerel in ['RELATED']"}, info.Filters)
		assert.Equal(t, []string{"Any adverse events", "Drug-related adverse events"}, info.Labels)

		_, err = c.ParameterInfo("any;ser")
		assert.ErrorIs(t, err, ErrKeywordNotFound)
	})

	t.Run("group", func(t *testing.T) {
		g, err := c.Group("trt01a")
		require.NoError(t, err)
		assert.Equal(t, GroupInfo{Dataset: "adsl", Column: "TRT01A", Label: "Treatment", Levels: []string{"Placebo", "Drug"}}, g)

		none, err := c.Group("")
		require.NoError(t, err)
		assert.Empty(t, none.Column)

		_, err = c.Group("trt01p")
		var kwErr *KeywordNotFoundError
		require.ErrorAs(t, err, &kwErr)
		assert.Equal(t, domain.CategoryGroup, kwErr.Category)
	})
}

func TestContext_Dataset(t *testing.T) {
	ctx := context.Background()
	adsl := dataset.MustNew([]string{"USUBJID"}, [][]any{{"1"}})

	t.Run("loads once", func(t *testing.T) {
		loader := new(mockLoader)
		loader.On("Load", ctx, filepath.Join("/data", "adsl.parquet")).Return(adsl, nil).Once()
		c := New(studyConfig(), loader, WithDataDir("/data"))

		for i := 0; i < 3; i++ {
			got, err := c.Dataset(ctx, "adsl")
			require.NoError(t, err)
			assert.Same(t, adsl, got)
		}
		loader.AssertExpectations(t)
	})

	t.Run("case-insensitive names and absolute paths", func(t *testing.T) {
		loader := new(mockLoader)
		loader.On("Load", ctx, "/abs/adae.parquet").Return(adsl, nil)
		c := New(studyConfig(), loader, WithDataDir("/data"))

		_, err := c.Dataset(ctx, "adae")
		require.NoError(t, err)
	})

	t.Run("unknown dataset fails before loading anything", func(t *testing.T) {
		loader := new(mockLoader)
		c := New(studyConfig(), loader)

		_, err := c.Datasets(ctx, "adsl", "adcm")
		var dsErr *DatasetNotFoundError
		require.ErrorAs(t, err, &dsErr)
		assert.Equal(t, "adcm", dsErr.Name)
		loader.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})

	t.Run("load failure", func(t *testing.T) {
		loader := new(mockLoader)
		loader.On("Load", ctx, "adsl.parquet").Return(nil, dataset.ErrFileNotFound)
		c := New(studyConfig(), loader)

		_, err := c.Dataset(ctx, "adsl")
		assert.True(t, errors.Is(err, dataset.ErrFileNotFound))
	})
}
