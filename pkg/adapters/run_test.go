package adapters

import (
	"errors"
	"testing"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDomainResultToStore(t *testing.T) {
	ok := MapDomainResultToStore("run-1", domain.Result{PlanID: "ae_summary_apat", Path: "out/ae_summary_apat.rtf"})
	require.NotNil(t, ok.Path)
	assert.Nil(t, ok.Error)
	assert.Equal(t, "run-1", ok.RunID)

	failed := MapDomainResultToStore("run-1", domain.Result{PlanID: "x", Err: errors.New("boom")})
	assert.Nil(t, failed.Path)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "boom", *failed.Error)

	back := MapStoreResultToDomain(failed)
	assert.False(t, back.OK())
	assert.EqualError(t, back.Err, "boom")
}

func TestMapStoreRunToDomain(t *testing.T) {
	assert.Nil(t, MapStoreRunToDomain(nil))
}
