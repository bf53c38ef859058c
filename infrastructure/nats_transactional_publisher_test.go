package infrastructure

import (
	"context"
	"errors"
	"testing"

	"pcbank/domain/events"
	"pcbank/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTransactionalPublisher_HoldsEventsUntilFlush(t *testing.T) {
	t.Parallel()

	downstream := new(testhelpers.MockEventPublisher)
	publisher := NewTransactionalPublisher(downstream)

	sold := events.ListingSoldEvent{ListingID: 7, SellerID: 1, BuyerID: 2, ItemName: "Sticker", Proceeds: 90}
	issued := events.LoanIssuedEvent{LoanID: 3, BorrowerID: 1, Principal: 300, AmountDue: 345}
	require.NoError(t, publisher.Publish(sold))
	require.NoError(t, publisher.Publish(issued))
	downstream.AssertNotCalled(t, "Publish", mock.Anything)

	downstream.On("Publish", sold).Return(errors.New("nats down")).Once()
	downstream.On("Publish", issued).Return(nil).Once()

	require.NoError(t, publisher.Flush(context.Background()))
	downstream.AssertExpectations(t)

	// Nothing is replayed on a second flush
	require.NoError(t, publisher.Flush(context.Background()))
	downstream.AssertNumberOfCalls(t, "Publish", 2)
}

func TestTransactionalPublisher_Discard(t *testing.T) {
	t.Parallel()

	downstream := new(testhelpers.MockEventPublisher)
	publisher := NewTransactionalPublisher(downstream)

	require.NoError(t, publisher.Publish(events.TicketRedeemedEvent{TicketID: 1}))
	publisher.Discard()
	require.NoError(t, publisher.Flush(context.Background()))

	downstream.AssertNotCalled(t, "Publish", mock.Anything)
	assert.Empty(t, publisher.pending)
}
