package reseller

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() CommissionPolicy {
	return CommissionPolicy{
		CommissionType:  CommissionTypePercentage,
		CommissionValue: decimal.NewFromInt(10),
		RateType:        RateTypeDiscount,
	}
}

func TestRoleForLevel(t *testing.T) {
	cases := []struct {
		level int
		role  Role
	}{
		{1, RoleReseller},
		{2, RoleSubReseller},
		{3, RoleSubSub},
	}
	for _, tc := range cases {
		role, err := RoleForLevel(tc.level)
		require.NoError(t, err)
		assert.Equal(t, tc.role, role)
	}

	_, err := RoleForLevel(0)
	assert.Error(t, err)
	_, err = RoleForLevel(4)
	assert.Error(t, err)
}

func TestNewReseller(t *testing.T) {
	tenantID := uuid.New()

	r, err := NewReseller(tenantID, "Metro ISP Dhaka", testPolicy())

	require.NoError(t, err)
	assert.Equal(t, 1, r.Level)
	assert.Equal(t, RoleReseller, r.Role)
	assert.Nil(t, r.ParentID)
	assert.True(t, r.Balance.IsZero())
	assert.True(t, r.IsActive)
	assert.True(t, r.Capabilities.CanRechargeCustomers)
	assert.False(t, r.Capabilities.CanCreateSubReseller)
}

func TestNewReseller_Validation(t *testing.T) {
	tenantID := uuid.New()

	t.Run("empty tenant", func(t *testing.T) {
		_, err := NewReseller(uuid.Nil, "name", testPolicy())
		assert.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NewReseller(tenantID, "   ", testPolicy())
		assert.Error(t, err)
	})

	t.Run("negative commission", func(t *testing.T) {
		p := testPolicy()
		p.CommissionValue = decimal.NewFromInt(-1)
		_, err := NewReseller(tenantID, "name", p)
		assert.Error(t, err)
	})

	t.Run("percentage above 100", func(t *testing.T) {
		p := testPolicy()
		p.CommissionValue = decimal.NewFromInt(150)
		_, err := NewReseller(tenantID, "name", p)
		assert.Error(t, err)
	})
}

func TestNewSubReseller(t *testing.T) {
	tenantID := uuid.New()
	parent, err := NewReseller(tenantID, "Parent", testPolicy())
	require.NoError(t, err)

	child, err := NewSubReseller(tenantID, "Child", parent, testPolicy())

	require.NoError(t, err)
	assert.Equal(t, 2, child.Level)
	assert.Equal(t, RoleSubReseller, child.Role)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	grandchild, err := NewSubReseller(tenantID, "Grandchild", child, testPolicy())
	require.NoError(t, err)
	assert.Equal(t, 3, grandchild.Level)
	assert.Equal(t, RoleSubSub, grandchild.Role)

	// Level 4 is never allowed
	_, err = NewSubReseller(tenantID, "TooDeep", grandchild, testPolicy())
	assert.Error(t, err)
}

func TestNewSubReseller_ParentConstraints(t *testing.T) {
	tenantID := uuid.New()
	parent, err := NewReseller(tenantID, "Parent", testPolicy())
	require.NoError(t, err)

	t.Run("nil parent", func(t *testing.T) {
		_, err := NewSubReseller(tenantID, "Child", nil, testPolicy())
		assert.Error(t, err)
	})

	t.Run("cross-tenant parent", func(t *testing.T) {
		_, err := NewSubReseller(uuid.New(), "Child", parent, testPolicy())
		assert.Error(t, err)
	})

	t.Run("inactive parent", func(t *testing.T) {
		inactive, err := NewReseller(tenantID, "Gone", testPolicy())
		require.NoError(t, err)
		require.NoError(t, inactive.Deactivate())

		_, err = NewSubReseller(tenantID, "Child", inactive, testPolicy())
		assert.Error(t, err)
	})
}

func TestReseller_Deactivate(t *testing.T) {
	r, err := NewReseller(uuid.New(), "Parent", testPolicy())
	require.NoError(t, err)

	require.NoError(t, r.Deactivate())
	assert.False(t, r.IsActive)

	// Deactivating twice is an invalid state transition
	assert.Error(t, r.Deactivate())
}

func TestReseller_SubResellerLimit(t *testing.T) {
	r, err := NewReseller(uuid.New(), "Parent", testPolicy())
	require.NoError(t, err)

	// No limit configured
	assert.True(t, r.CanTakeSubReseller(999))

	limit := 2
	require.NoError(t, r.UpdateLimits(Limits{MaxSubResellers: &limit}))
	assert.True(t, r.CanTakeSubReseller(1))
	assert.False(t, r.CanTakeSubReseller(2))
	assert.False(t, r.CanTakeSubReseller(3))
}

func TestReseller_CustomerLimit(t *testing.T) {
	r, err := NewReseller(uuid.New(), "Parent", testPolicy())
	require.NoError(t, err)

	assert.True(t, r.CanTakeCustomer(10000))

	limit := 50
	require.NoError(t, r.UpdateLimits(Limits{MaxCustomers: &limit}))
	assert.True(t, r.CanTakeCustomer(49))
	assert.False(t, r.CanTakeCustomer(50))
}

func TestReseller_UpdateLimits_Negative(t *testing.T) {
	r, err := NewReseller(uuid.New(), "Parent", testPolicy())
	require.NoError(t, err)

	bad := -1
	assert.Error(t, r.UpdateLimits(Limits{MaxSubResellers: &bad}))
	assert.Error(t, r.UpdateLimits(Limits{MaxCustomers: &bad}))
}

func TestReseller_UpdatePolicy(t *testing.T) {
	r, err := NewReseller(uuid.New(), "Parent", testPolicy())
	require.NoError(t, err)
	versionBefore := r.Version

	p := CommissionPolicy{
		CommissionType:  CommissionTypeFlat,
		CommissionValue: decimal.NewFromInt(25),
		RateType:        RateTypeStandard,
	}
	require.NoError(t, r.UpdatePolicy(p))
	assert.Equal(t, CommissionTypeFlat, r.Policy.CommissionType)
	assert.Equal(t, versionBefore+1, r.Version)

	p.RateType = RateType("bogus")
	assert.Error(t, r.UpdatePolicy(p))
}

func TestReseller_RecordCollection(t *testing.T) {
	r, err := NewReseller(uuid.New(), "Parent", testPolicy())
	require.NoError(t, err)

	r.RecordCollection(decimal.NewFromInt(500))
	r.RecordCollection(decimal.NewFromInt(250))

	assert.True(t, r.TotalCollections.Equal(decimal.NewFromInt(750)))
}
