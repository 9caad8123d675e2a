package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStatus_Transitions(t *testing.T) {
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusQuotationSent))
	assert.False(t, RequestStatusPending.CanTransitionTo(RequestStatusAccepted))
	assert.True(t, RequestStatusQuotationSent.CanTransitionTo(RequestStatusAccepted))
	assert.True(t, RequestStatusQuotationSent.CanTransitionTo(RequestStatusQuotationSent))
	assert.False(t, RequestStatusAccepted.CanTransitionTo(RequestStatusQuotationSent))
	assert.False(t, RequestStatus("unknown").CanTransitionTo(RequestStatusAccepted))
}

func TestNotificationKind_Message(t *testing.T) {
	assert.Equal(t, "A new message", NotificationMessage.Message())
	assert.Equal(t, "Accept Quotation", NotificationMessageQuotation.Message())
	assert.Equal(t, "A new update", NotificationUpdate.Message())
	assert.Equal(t, "A new client joined", NotificationNewClient.Message())
	assert.False(t, NotificationKind("chat").IsValid())
}

func TestNewChannelKind(t *testing.T) {
	k, err := NewChannelKind("non-internal")
	require.NoError(t, err)
	assert.Equal(t, ChannelNonInternal, k)

	_, err = NewChannelKind("public")
	assert.Error(t, err)
}

func TestChatSide_Opposite(t *testing.T) {
	assert.Equal(t, ChatSideStaff, ChatSideClient.Opposite())
	assert.Equal(t, ChatSideClient, ChatSideStaff.Opposite())
}

func TestMoney(t *testing.T) {
	price, err := NewPrice(500)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), price.MinorUnits())
	assert.Equal(t, "₹500", price.String())

	odd, _ := NewPrice(199.99)
	assert.Equal(t, int64(19999), odd.MinorUnits())

	_, err = NewPrice(0)
	assert.Error(t, err)
}
