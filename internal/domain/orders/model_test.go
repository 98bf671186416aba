package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/core/types"
)

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func testOrder(t *testing.T) *Order {
	t.Helper()
	o := NewOrder(id.New(), id.New(), PaymentBankTransfer)
	o.AddLine(id.New(), 5, types.MustMoney("2.00"))
	return o
}

func deliveredOrder(t *testing.T) *Order {
	t.Helper()
	o := testOrder(t)
	for _, next := range []Status{StatusConfirmed, StatusProcessing, StatusDelivered} {
		_, err := o.ChangeStatus(next, "sup", testNow)
		require.NoError(t, err)
	}
	return o
}

func deliveredTwoLineOrder(t *testing.T) *Order {
	t.Helper()
	o := NewOrder(id.New(), id.New(), PaymentBankTransfer)
	o.AddLine(id.New(), 5, types.MustMoney("2.00"))
	o.AddLine(id.New(), 4, types.MustMoney("1.00"))
	for _, next := range []Status{StatusConfirmed, StatusProcessing, StatusDelivered} {
		_, err := o.ChangeStatus(next, "sup", testNow)
		require.NoError(t, err)
	}
	return o
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusProcessing, false},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusDelivered, false},
		{StatusProcessing, StatusDelivered, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusDelivered, StatusDelivered, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusReturned, false},
		{StatusCancelled, StatusPending, false},
		{StatusReturned, StatusDelivered, false},
		{StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestChangeStatus(t *testing.T) {
	t.Run("appends history", func(t *testing.T) {
		o := testOrder(t)
		change, err := o.ChangeStatus(StatusConfirmed, "sup-1", testNow)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, o.Status)
		assert.Equal(t, StatusConfirmed, change.Status)
		assert.Equal(t, "sup-1", change.ChangedBy)
		require.Len(t, o.History, 1)
	})

	t.Run("invalid transition", func(t *testing.T) {
		o := testOrder(t)
		_, err := o.ChangeStatus(StatusDelivered, "sup-1", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
		assert.Equal(t, StatusPending, o.Status)
		assert.Empty(t, o.History)
	})

	t.Run("unknown status", func(t *testing.T) {
		o := testOrder(t)
		_, err := o.ChangeStatus("shipped", "sup-1", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})
}

func TestOrderValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, testOrder(t).Validate(ctx))
	})

	t.Run("no lines", func(t *testing.T) {
		o := NewOrder(id.New(), id.New(), PaymentCash)
		assert.Error(t, o.Validate(ctx))
	})

	t.Run("missing payment method", func(t *testing.T) {
		o := testOrder(t)
		o.PaymentMethod = ""
		assert.Error(t, o.Validate(ctx))
	})

	t.Run("unknown payment method", func(t *testing.T) {
		o := testOrder(t)
		o.PaymentMethod = "crypto"
		assert.Error(t, o.Validate(ctx))
	})

	t.Run("zero quantity line", func(t *testing.T) {
		o := testOrder(t)
		o.Lines[0].Quantity = 0
		err := o.Validate(ctx)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidQuantity, appErr.Code)
	})
}

func TestRecalculateTotal(t *testing.T) {
	o := NewOrder(id.New(), id.New(), PaymentCash)
	o.AddLine(id.New(), 3, types.MustMoney("2.50"))
	o.AddLine(id.New(), 2, types.MustMoney("10.00"))
	assert.True(t, o.TotalAmount.Equal(types.MustMoney("27.50")),
		"got %s", o.TotalAmount)
}

func TestRequestReturn(t *testing.T) {
	t.Run("only delivered orders", func(t *testing.T) {
		o := testOrder(t)
		err := o.RequestReturn(o.Lines[0].ProductID, 1, "damaged", "shop", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	})

	t.Run("quantity above line quantity", func(t *testing.T) {
		o := deliveredOrder(t)
		err := o.RequestReturn(o.Lines[0].ProductID, 6, "damaged", "shop", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidQuantity, appErr.Code)
	})

	t.Run("quantity above remaining after earlier cycle", func(t *testing.T) {
		o := deliveredTwoLineOrder(t)
		pid := o.Lines[0].ProductID
		// An open cycle on line two keeps the order delivered while line
		// one finishes its first cycle.
		require.NoError(t, o.RequestReturn(o.Lines[1].ProductID, 1, "also damaged", "shop", testNow))

		require.NoError(t, o.RequestReturn(pid, 2, "damaged", "shop", testNow))
		_, err := o.ReviewReturn(pid, ReturnApproved, "sup", testNow)
		require.NoError(t, err)
		_, err = o.ReviewReturn(pid, ReturnCompleted, "sup", testNow)
		require.NoError(t, err)

		err = o.RequestReturn(pid, 4, "damaged again", "shop", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidQuantity, appErr.Code)
	})

	t.Run("no new cycle while one is pending", func(t *testing.T) {
		o := deliveredOrder(t)
		pid := o.Lines[0].ProductID
		require.NoError(t, o.RequestReturn(pid, 2, "damaged", "shop", testNow))

		err := o.RequestReturn(pid, 1, "more damage", "shop", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	})

	t.Run("no new cycle while one is approved", func(t *testing.T) {
		o := deliveredOrder(t)
		pid := o.Lines[0].ProductID
		require.NoError(t, o.RequestReturn(pid, 2, "damaged", "shop", testNow))
		_, err := o.ReviewReturn(pid, ReturnApproved, "sup", testNow)
		require.NoError(t, err)

		err = o.RequestReturn(pid, 1, "more damage", "shop", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		o := deliveredOrder(t)
		err := o.RequestReturn(id.New(), 1, "damaged", "shop", testNow)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("full return derives order returned at request time", func(t *testing.T) {
		o := deliveredOrder(t)
		require.NoError(t, o.RequestReturn(o.Lines[0].ProductID, 5, "all bad", "shop", testNow))
		assert.Equal(t, StatusReturned, o.Status)
		assert.Equal(t, StatusReturned, o.History[len(o.History)-1].Status)
	})

	t.Run("partial return keeps order delivered", func(t *testing.T) {
		o := deliveredOrder(t)
		require.NoError(t, o.RequestReturn(o.Lines[0].ProductID, 2, "damaged", "shop", testNow))
		assert.Equal(t, StatusDelivered, o.Status)
	})
}

func TestReviewReturn(t *testing.T) {
	setup := func(t *testing.T, qty int64) (*Order, id.ID) {
		o := deliveredOrder(t)
		pid := o.Lines[0].ProductID
		require.NoError(t, o.RequestReturn(pid, qty, "damaged", "shop", testNow))
		return o, pid
	}

	t.Run("approve credits delta once", func(t *testing.T) {
		o, pid := setup(t, 3)
		delta, err := o.ReviewReturn(pid, ReturnApproved, "sup", testNow)
		require.NoError(t, err)
		assert.Equal(t, int64(3), delta)

		line, _ := o.Line(pid)
		assert.Equal(t, int64(3), line.Restocked)

		// A second approval is not a legal transition, so nothing can
		// be credited twice.
		_, err = o.ReviewReturn(pid, ReturnApproved, "sup", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	})

	t.Run("reject releases the pending quantity", func(t *testing.T) {
		o, pid := setup(t, 3)
		delta, err := o.ReviewReturn(pid, ReturnRejected, "sup", testNow)
		require.NoError(t, err)
		assert.Zero(t, delta)

		line, _ := o.Line(pid)
		assert.Zero(t, line.Returned)
		assert.Zero(t, line.Restocked)

		// The released quantity is requestable again.
		require.NoError(t, o.RequestReturn(pid, 3, "retry", "shop", testNow))
	})

	t.Run("completed is terminal", func(t *testing.T) {
		o, pid := setup(t, 2)
		_, err := o.ReviewReturn(pid, ReturnApproved, "sup", testNow)
		require.NoError(t, err)
		_, err = o.ReviewReturn(pid, ReturnCompleted, "sup", testNow)
		require.NoError(t, err)

		for _, next := range []ReturnStatus{ReturnApproved, ReturnRejected, ReturnCompleted} {
			_, err = o.ReviewReturn(pid, next, "sup", testNow)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code, "to %s", next)
		}
	})

	t.Run("cannot complete before approval", func(t *testing.T) {
		o, pid := setup(t, 2)
		_, err := o.ReviewReturn(pid, ReturnCompleted, "sup", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	})

	t.Run("no review without a request", func(t *testing.T) {
		o := deliveredOrder(t)
		_, err := o.ReviewReturn(o.Lines[0].ProductID, ReturnApproved, "sup", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	})

	t.Run("completed cycles on all returning lines derive returned", func(t *testing.T) {
		o := NewOrder(id.New(), id.New(), PaymentCash)
		o.AddLine(id.New(), 5, types.MustMoney("1.00"))
		o.AddLine(id.New(), 4, types.MustMoney("1.00"))
		for _, next := range []Status{StatusConfirmed, StatusProcessing, StatusDelivered} {
			_, err := o.ChangeStatus(next, "sup", testNow)
			require.NoError(t, err)
		}

		pid := o.Lines[0].ProductID
		require.NoError(t, o.RequestReturn(pid, 2, "damaged", "shop", testNow))
		_, err := o.ReviewReturn(pid, ReturnApproved, "sup", testNow)
		require.NoError(t, err)
		_, err = o.ReviewReturn(pid, ReturnCompleted, "sup", testNow)
		require.NoError(t, err)

		// Line two never returned anything: the order still derives
		// returned because every returning line has completed.
		assert.Equal(t, StatusReturned, o.Status)
	})

	t.Run("multi-cycle returns on one line", func(t *testing.T) {
		o := deliveredTwoLineOrder(t)
		pid := o.Lines[0].ProductID
		require.NoError(t, o.RequestReturn(o.Lines[1].ProductID, 1, "also damaged", "shop", testNow))

		// First cycle must complete before the line takes another request.
		require.NoError(t, o.RequestReturn(pid, 2, "damaged", "shop", testNow))
		delta, err := o.ReviewReturn(pid, ReturnApproved, "sup", testNow)
		require.NoError(t, err)
		assert.Equal(t, int64(2), delta)
		_, err = o.ReviewReturn(pid, ReturnCompleted, "sup", testNow)
		require.NoError(t, err)

		require.NoError(t, o.RequestReturn(pid, 3, "rest damaged", "shop", testNow))
		delta, err = o.ReviewReturn(pid, ReturnApproved, "sup", testNow)
		require.NoError(t, err)
		assert.Equal(t, int64(3), delta, "second approval credits only the new cycle")

		_, err = o.ReviewReturn(pid, ReturnCompleted, "sup", testNow)
		require.NoError(t, err)
		line, _ := o.Line(pid)
		assert.Equal(t, int64(5), line.Returned)
		assert.Equal(t, int64(5), line.Restocked)
		assert.Equal(t, StatusDelivered, o.Status, "open cycle on line two holds derivation")
	})

	t.Run("rejecting the last open cycle derives returned", func(t *testing.T) {
		o := deliveredTwoLineOrder(t)
		pidA := o.Lines[0].ProductID
		pidB := o.Lines[1].ProductID

		require.NoError(t, o.RequestReturn(pidB, 2, "bruised", "shop", testNow))

		require.NoError(t, o.RequestReturn(pidA, 5, "all bad", "shop", testNow))
		_, err := o.ReviewReturn(pidA, ReturnApproved, "sup", testNow)
		require.NoError(t, err)
		_, err = o.ReviewReturn(pidA, ReturnCompleted, "sup", testNow)
		require.NoError(t, err)
		assert.Equal(t, StatusDelivered, o.Status, "line two's cycle is still open")

		// Rejecting line two leaves line one as the only returning line,
		// and its cycle has completed.
		_, err = o.ReviewReturn(pidB, ReturnRejected, "sup", testNow)
		require.NoError(t, err)
		assert.Equal(t, StatusReturned, o.Status)
		assert.Equal(t, StatusReturned, o.History[len(o.History)-1].Status)
	})
}

func TestDisputes(t *testing.T) {
	t.Run("add and resolve", func(t *testing.T) {
		o := testOrder(t)
		d, err := o.AddDispute("wrong items delivered", "shop-1", testNow)
		require.NoError(t, err)
		assert.Equal(t, DisputeOpen, d.Status)
		assert.Equal(t, "shop-1", d.RaisedBy)

		require.NoError(t, o.ResolveDispute(d.DisputeID, DisputeInProgress, "admin", testNow))
		require.NoError(t, o.ResolveDispute(d.DisputeID, DisputeResolved, "admin", testNow))

		resolved, _ := o.FindDispute(d.DisputeID)
		assert.Equal(t, "admin", resolved.ResolvedBy)
		require.NotNil(t, resolved.ResolvedAt)
	})

	t.Run("empty description", func(t *testing.T) {
		o := testOrder(t)
		_, err := o.AddDispute("", "shop-1", testNow)
		assert.Error(t, err)
	})

	t.Run("resolved is terminal", func(t *testing.T) {
		o := testOrder(t)
		d, err := o.AddDispute("late delivery", "shop-1", testNow)
		require.NoError(t, err)
		require.NoError(t, o.ResolveDispute(d.DisputeID, DisputeResolved, "admin", testNow))

		err = o.ResolveDispute(d.DisputeID, DisputeInProgress, "admin", testNow)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	})

	t.Run("unknown dispute", func(t *testing.T) {
		o := testOrder(t)
		err := o.ResolveDispute(id.New(), DisputeResolved, "admin", testNow)
		assert.True(t, apperror.IsNotFound(err))
	})
}
