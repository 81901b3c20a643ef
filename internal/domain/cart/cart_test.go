package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================
// Owner Tests
// ============================================

func TestOwner_Valid(t *testing.T) {
	tests := []struct {
		name  string
		owner Owner
		valid bool
	}{
		{"user owner", UserOwner("u-1"), true},
		{"session owner", SessionOwner("s-1"), true},
		{"empty user id", UserOwner(""), false},
		{"empty session id", SessionOwner(""), false},
		{"zero owner", Owner{}, false},
		{"unknown kind", Owner{Kind: "robot", ID: "r-1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.owner.Valid())
		})
	}
}

func TestCartID(t *testing.T) {
	tests := []struct {
		name       string
		owner      Owner
		expectedID string
	}{
		{"user owner", UserOwner("user-123"), "cart-user:user-123"},
		{"session owner", SessionOwner("sess-456"), "cart-session:sess-456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedID, CartID(tt.owner))
		})
	}
}

func TestCartID_UserAndSessionWithSameIDDiffer(t *testing.T) {
	// A user ID and a session ID that happen to collide must still map to
	// two distinct carts.
	assert.NotEqual(t, CartID(UserOwner("abc")), CartID(SessionOwner("abc")))
}

// ============================================
// Line Mutation Tests
// ============================================

func TestCart_AddItem_AppendsNewLine(t *testing.T) {
	c := New(UserOwner("u-1"))

	c.AddItem("P1", 2, dec("10.00"), map[string]string{"size": "M"})

	require.Len(t, c.Items, 1)
	assert.Equal(t, "P1", c.Items[0].ProductID)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.True(t, c.Items[0].LineTotal.Equal(dec("20.00")))
	assert.Equal(t, "M", c.Items[0].SelectedOptions["size"])
}

func TestCart_AddItem_MergesExistingLineByProductID(t *testing.T) {
	c := New(UserOwner("u-1"))

	c.AddItem("P1", 2, dec("10.00"), nil)
	// Options differ, but lines are matched by product ID only.
	c.AddItem("P1", 3, dec("10.00"), map[string]string{"color": "red"})

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, c.Items[0].LineTotal.Equal(dec("50.00")))
}

func TestCart_AddItem_KeepsPriceSnapshotOnMerge(t *testing.T) {
	c := New(UserOwner("u-1"))

	c.AddItem("P1", 1, dec("10.00"), nil)
	// A later add passes the current catalog price, but the original
	// snapshot wins for the existing line.
	c.AddItem("P1", 1, dec("12.50"), nil)

	require.Len(t, c.Items, 1)
	assert.True(t, c.Items[0].UnitPrice.Equal(dec("10.00")))
	assert.True(t, c.Items[0].LineTotal.Equal(dec("20.00")))
}

func TestCart_AddItem_PreservesInsertionOrder(t *testing.T) {
	c := New(UserOwner("u-1"))

	c.AddItem("P1", 1, dec("1.00"), nil)
	c.AddItem("P2", 1, dec("2.00"), nil)
	c.AddItem("P3", 1, dec("3.00"), nil)
	require.NoError(t, c.RemoveItem("P2"))

	require.Len(t, c.Items, 2)
	assert.Equal(t, "P1", c.Items[0].ProductID)
	assert.Equal(t, "P3", c.Items[1].ProductID)
}

func TestCart_SetQuantity_RecomputesLineTotal(t *testing.T) {
	c := New(UserOwner("u-1"))
	c.AddItem("P1", 5, dec("10.00"), nil)

	require.NoError(t, c.SetQuantity("P1", 1))

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.True(t, c.Items[0].LineTotal.Equal(dec("10.00")))
}

func TestCart_SetQuantity_ZeroRemovesLine(t *testing.T) {
	c := New(UserOwner("u-1"))
	c.AddItem("P1", 2, dec("10.00"), nil)

	require.NoError(t, c.SetQuantity("P1", 0))

	assert.Empty(t, c.Items)
}

func TestCart_SetQuantity_NegativeRemovesLine(t *testing.T) {
	c := New(UserOwner("u-1"))
	c.AddItem("P1", 2, dec("10.00"), nil)

	require.NoError(t, c.SetQuantity("P1", -3))

	assert.Empty(t, c.Items)
}

func TestCart_SetQuantity_UnknownProduct(t *testing.T) {
	c := New(UserOwner("u-1"))

	assert.ErrorIs(t, c.SetQuantity("missing", 2), ErrItemNotFound)
}

func TestCart_RemoveItem_UnknownProduct(t *testing.T) {
	c := New(UserOwner("u-1"))
	c.AddItem("P1", 1, dec("10.00"), nil)

	assert.ErrorIs(t, c.RemoveItem("missing"), ErrItemNotFound)
	assert.Len(t, c.Items, 1)
}

func TestCart_Clear_ZeroesEverything(t *testing.T) {
	c := New(UserOwner("u-1"))
	c.AddItem("P1", 2, dec("10.00"), nil)
	c.Discounts = dec("5.00")
	c.DeliveryFee = dec("3.00")
	c.Recalculate()

	c.Clear()
	c.Recalculate()

	assert.Empty(t, c.Items)
	assert.True(t, c.Subtotal.IsZero())
	assert.True(t, c.Discounts.IsZero())
	assert.True(t, c.DeliveryFee.IsZero())
	assert.True(t, c.Total.IsZero())
}

// ============================================
// Recalculation Tests
// ============================================

func TestCart_Recalculate_TotalIdentity(t *testing.T) {
	c := New(UserOwner("u-1"))
	c.AddItem("P1", 2, dec("10.00"), nil)
	c.AddItem("P2", 1, dec("4.50"), nil)
	c.Discounts = dec("3.00")
	c.DeliveryFee = dec("2.00")

	c.Recalculate()

	assert.True(t, c.Subtotal.Equal(dec("24.50")))
	assert.True(t, c.Total.Equal(c.Subtotal.Sub(c.Discounts).Add(c.DeliveryFee)))
	assert.True(t, c.Total.Equal(dec("23.50")))
}

func TestCart_Recalculate_ClampsNegativeTotalToZero(t *testing.T) {
	c := New(UserOwner("u-1"))
	c.AddItem("P1", 1, dec("5.00"), nil)
	c.Discounts = dec("50.00")

	c.Recalculate()

	assert.True(t, c.Subtotal.Equal(dec("5.00")))
	assert.True(t, c.Total.IsZero())
}

func TestCart_Recalculate_EmptyCart(t *testing.T) {
	c := New(SessionOwner("s-1"))

	c.Recalculate()

	assert.True(t, c.Subtotal.IsZero())
	assert.True(t, c.Total.IsZero())
}

func TestCart_Recalculate_NoDriftAfterManyAdditions(t *testing.T) {
	// 1000 additions of a 0.10 item must sum to exactly 100.00; binary
	// floating point would accumulate cent-level drift here.
	c := New(UserOwner("u-1"))
	for i := 0; i < 1000; i++ {
		c.AddItem("P1", 1, dec("0.10"), nil)
	}

	c.Recalculate()

	require.Len(t, c.Items, 1)
	assert.Equal(t, 1000, c.Items[0].Quantity)
	assert.True(t, c.Items[0].LineTotal.Equal(dec("100.00")), "line total is %s", c.Items[0].LineTotal)
	assert.True(t, c.Subtotal.Equal(dec("100.00")), "subtotal is %s", c.Subtotal)
	assert.True(t, c.Total.Equal(dec("100.00")))
}

func TestCart_Recalculate_ManyDistinctDecimalLines(t *testing.T) {
	c := New(UserOwner("u-1"))
	for i := 0; i < 100; i++ {
		c.AddItem(string(rune('a'+i%26))+string(rune('0'+i/26)), 3, dec("0.07"), nil)
	}

	c.Recalculate()

	// 100 lines x 3 x 0.07 = 21.00 exactly.
	assert.True(t, c.Subtotal.Equal(dec("21.00")), "subtotal is %s", c.Subtotal)
}
