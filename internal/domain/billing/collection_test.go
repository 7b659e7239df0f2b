package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollection(t *testing.T) {
	c, err := NewCollection(uuid.New(), "cash", "field collection run", 3)

	require.NoError(t, err)
	assert.Equal(t, 3, c.ItemCount)
	assert.True(t, c.TotalAmount.IsZero())
	assert.Nil(t, c.CompletedAt)
}

func TestNewCollection_Validation(t *testing.T) {
	t.Run("missing payment method", func(t *testing.T) {
		_, err := NewCollection(uuid.New(), "", "", 1)
		assert.Error(t, err)
	})

	t.Run("no items", func(t *testing.T) {
		_, err := NewCollection(uuid.New(), "cash", "", 0)
		assert.Error(t, err)
	})
}

func TestCollection_BestEffortAggregation(t *testing.T) {
	c, err := NewCollection(uuid.New(), "cash", "", 3)
	require.NoError(t, err)

	c.RecordItemSuccess(decimal.NewFromInt(800))
	c.RecordItemFailure()
	c.RecordItemSuccess(decimal.NewFromInt(500))
	c.Complete()

	assert.Equal(t, 2, c.SucceededCount)
	assert.Equal(t, 1, c.FailedCount)
	assert.True(t, c.TotalAmount.Equal(decimal.NewFromInt(1300)))
	require.NotNil(t, c.CompletedAt)
}
