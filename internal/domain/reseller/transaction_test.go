package reseller

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionType_IsValid(t *testing.T) {
	valid := []TransactionType{
		TransactionTypeRecharge,
		TransactionTypeDeduction,
		TransactionTypeCommission,
		TransactionTypeRefund,
		TransactionTypeTransferIn,
		TransactionTypeTransferOut,
		TransactionTypeCustomerRecharge,
		TransactionTypeDeposit,
		TransactionTypeWithdrawal,
	}
	for _, txType := range valid {
		assert.True(t, txType.IsValid(), "Expected %s to be valid", txType)
	}

	assert.False(t, TransactionType("chargeback").IsValid())
}

func TestNewWalletTransaction_Credit(t *testing.T) {
	tenantID := uuid.New()
	resellerID := uuid.New()

	tx, err := NewWalletTransaction(tenantID, resellerID, TransactionTypeDeposit,
		decimal.NewFromInt(1000), decimal.NewFromInt(250))

	require.NoError(t, err)
	assert.True(t, tx.IsCredit())
	assert.False(t, tx.IsDebit())
	assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(1250)))
	assert.True(t, tx.Consistent())
}

func TestNewWalletTransaction_Debit(t *testing.T) {
	tx, err := NewWalletTransaction(uuid.New(), uuid.New(), TransactionTypeCustomerRecharge,
		decimal.NewFromInt(-920), decimal.NewFromInt(1000))

	require.NoError(t, err)
	assert.True(t, tx.IsDebit())
	assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(80)))
	assert.True(t, tx.Consistent())
}

func TestNewWalletTransaction_Validation(t *testing.T) {
	t.Run("empty tenant", func(t *testing.T) {
		_, err := NewWalletTransaction(uuid.Nil, uuid.New(), TransactionTypeDeposit,
			decimal.NewFromInt(10), decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("empty reseller", func(t *testing.T) {
		_, err := NewWalletTransaction(uuid.New(), uuid.Nil, TransactionTypeDeposit,
			decimal.NewFromInt(10), decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewWalletTransaction(uuid.New(), uuid.New(), TransactionType("bogus"),
			decimal.NewFromInt(10), decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := NewWalletTransaction(uuid.New(), uuid.New(), TransactionTypeDeposit,
			decimal.Zero, decimal.Zero)
		assert.Error(t, err)
	})
}

func TestWalletTransaction_Builders(t *testing.T) {
	customerID := uuid.New()
	fromID := uuid.New()
	toID := uuid.New()
	operatorID := uuid.New()

	tx, err := NewWalletTransaction(uuid.New(), fromID, TransactionTypeTransferOut,
		decimal.NewFromInt(-100), decimal.NewFromInt(500))
	require.NoError(t, err)

	tx.WithCustomer(customerID).
		WithCounterparty(fromID, toID).
		WithReference("collection", "col-42").
		WithIdempotencyKey("req-abc").
		WithDescription("funding sub-reseller").
		WithOperator(operatorID)

	require.NotNil(t, tx.CustomerID)
	assert.Equal(t, customerID, *tx.CustomerID)
	assert.Equal(t, fromID, *tx.FromResellerID)
	assert.Equal(t, toID, *tx.ToResellerID)
	assert.Equal(t, "collection", tx.ReferenceType)
	assert.Equal(t, "col-42", *tx.ReferenceID)
	assert.Equal(t, "req-abc", *tx.IdempotencyKey)
	assert.Equal(t, "funding sub-reseller", tx.Description)
	assert.Equal(t, operatorID, *tx.OperatorID)
}

func TestWalletTransaction_RunningSumReplay(t *testing.T) {
	tenantID := uuid.New()
	resellerID := uuid.New()

	amounts := []int64{1000, -250, -600, 400, -50}
	balance := decimal.Zero
	rows := make([]*WalletTransaction, 0, len(amounts))

	for _, a := range amounts {
		tx, err := NewWalletTransaction(tenantID, resellerID, TransactionTypeDeduction,
			decimal.NewFromInt(a), balance)
		require.NoError(t, err)
		rows = append(rows, tx)
		balance = tx.BalanceAfter
	}

	// Replaying amounts from the first balance_before reproduces every
	// intermediate balance and the final stored balance.
	replay := rows[0].BalanceBefore
	for _, row := range rows {
		assert.True(t, row.BalanceBefore.Equal(replay))
		replay = replay.Add(row.Amount)
		assert.True(t, row.BalanceAfter.Equal(replay))
		assert.True(t, row.Consistent())
	}
	assert.True(t, replay.Equal(decimal.NewFromInt(500)))
}
