package entity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

func TestServiceRequest_Lifecycle(t *testing.T) {
	req, err := entity.NewServiceRequest(uuid.New(), uuid.New(), valueobject.RequesterSelf, "  need X ")
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusPending, req.Status)
	assert.Equal(t, "need X", req.Requirement)

	_, ok := req.Price()
	assert.False(t, ok)
	assert.ErrorIs(t, req.Accept(), apperror.ErrQuotationNotSent)

	price, _ := valueobject.NewPrice(500)
	require.NoError(t, req.Quote(price, "ok"))
	assert.Equal(t, valueobject.RequestStatusQuotationSent, req.Status)
	assert.Equal(t, 500.0, *req.QuotedCost)

	require.NoError(t, req.Accept())
	assert.ErrorIs(t, req.Accept(), apperror.ErrAlreadyAccepted)
	assert.ErrorIs(t, req.Quote(price, "again"), apperror.ErrAlreadyAccepted)
}

func TestNewServiceRequest_Validation(t *testing.T) {
	_, err := entity.NewServiceRequest(uuid.New(), uuid.New(), valueobject.RequesterSelf, "   ")
	assert.True(t, apperror.IsValidation(err))

	_, err = entity.NewServiceRequest(uuid.New(), uuid.Nil, valueobject.RequesterSelf, "need X")
	assert.True(t, apperror.IsValidation(err))
}

func TestNewEngagementFromRequest(t *testing.T) {
	partnerID := uuid.New()
	req, _ := entity.NewServiceRequest(uuid.New(), uuid.New(), valueobject.RequesterPartner, "need X")

	_, err := entity.NewEngagementFromRequest(req, valueobject.PaymentStatusDue, &partnerID)
	assert.True(t, apperror.IsConflict(err))

	price, _ := valueobject.NewPrice(750)
	require.NoError(t, req.Quote(price, "note"))
	require.NoError(t, req.Accept())

	link, err := entity.NewEngagementFromRequest(req, valueobject.PaymentStatusDue, &partnerID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, *link.RequestID)
	assert.Equal(t, 750.0, link.Cost)
	assert.Equal(t, "note", link.Note)
	assert.Equal(t, partnerID, *link.PartnerID)
	assert.Equal(t, valueobject.AssignmentUnassigned, link.AssignmentStatus)

	assert.True(t, link.MarkPaid())
	assert.False(t, link.MarkPaid())
}

func TestNewDirectEngagement_IgnoresPartnerForSelfClients(t *testing.T) {
	partnerID := uuid.New()
	link, err := entity.NewDirectEngagement(uuid.New(), uuid.New(), 100, "", "", valueobject.PaymentStatusPaid, valueobject.RequesterSelf, &partnerID)
	require.NoError(t, err)
	assert.Nil(t, link.PartnerID)
	assert.Nil(t, link.RequestID)
}

func TestEngagementLink_AssignAndFulfil(t *testing.T) {
	link, _ := entity.NewDirectEngagement(uuid.New(), uuid.New(), 100, "", "", valueobject.PaymentStatusDue, valueobject.RequesterAdmin, nil)

	require.NoError(t, link.AssignPartner(uuid.New()))
	assert.Equal(t, valueobject.AssignmentAssigned, link.AssignmentStatus)

	assert.True(t, link.MarkFulfilled())
	assert.Equal(t, valueobject.FulfillmentCompleted, link.FulfillmentStatus)
	assert.Equal(t, valueobject.AssignmentCompleted, link.AssignmentStatus)
	assert.False(t, link.MarkFulfilled())
}

func TestChannelKey(t *testing.T) {
	clientID := uuid.New()
	serviceID := uuid.New()

	_, err := entity.NewChannelKey(clientID, valueobject.ChannelNonInternal, nil)
	assert.True(t, apperror.IsValidation(err))

	internal, err := entity.NewChannelKey(clientID, valueobject.ChannelInternal, &serviceID)
	require.NoError(t, err)
	assert.Nil(t, internal.ServiceID)
	assert.Equal(t, "internal", internal.Slot())

	scoped, err := entity.NewChannelKey(clientID, valueobject.ChannelNonInternal, &serviceID)
	require.NoError(t, err)
	assert.Equal(t, "service:"+serviceID.String(), scoped.Slot())
}

func TestChatThread_Counters(t *testing.T) {
	key, _ := entity.NewChannelKey(uuid.New(), valueobject.ChannelInternal, nil)
	thread := entity.NewChatThread(key)

	thread.RecordMessage(valueobject.ChatSideClient)
	thread.RecordMessage(valueobject.ChatSideClient)
	assert.Equal(t, 2, thread.UnreadForStaff)
	assert.Equal(t, 0, thread.UnreadForClient)

	thread.ResetUnread(valueobject.ChatSideStaff)
	assert.Equal(t, 0, thread.UnreadFor(valueobject.ChatSideStaff))

	assert.True(t, thread.Close())
	assert.False(t, thread.Close())
}

func TestNewChatMessage_SenderHasReadOwnMessage(t *testing.T) {
	msg, err := entity.NewChatMessage(uuid.New(), valueobject.ChatSideStaff, "hello", entity.MessageOptions{ActionFlag: valueobject.ActionAcceptButton})
	require.NoError(t, err)
	assert.True(t, msg.ReadByStaff)
	assert.False(t, msg.ReadByClient)
	assert.Equal(t, valueobject.ActionAcceptButton, *msg.ActionFlag)

	_, err = entity.NewChatMessage(uuid.New(), valueobject.ChatSideStaff, " ", entity.MessageOptions{})
	assert.True(t, apperror.IsValidation(err))
}

func TestSortMessages(t *testing.T) {
	now := time.Now()
	a := &entity.ChatMessage{Text: "a", SentAt: now}
	b := &entity.ChatMessage{Text: "b", SentAt: now.Add(time.Second)}
	c := &entity.ChatMessage{Text: "c", SentAt: now.Add(2 * time.Second)}
	msgs := []*entity.ChatMessage{c, a, b}

	entity.SortMessages(msgs)

	assert.Equal(t, []string{"a", "b", "c"}, []string{msgs[0].Text, msgs[1].Text, msgs[2].Text})
}

func newEvent(t *testing.T, kind valueobject.NotificationKind, payload entity.NotificationPayload) *entity.NotificationEvent {
	t.Helper()
	e, err := entity.NewNotificationEvent(entity.StaffOwner, kind, payload)
	require.NoError(t, err)
	return e
}

func TestNotificationLog_AcknowledgeCollapsesDuplicates(t *testing.T) {
	log := entity.NewNotificationLog(entity.StaffOwner)
	payload := entity.NotificationPayload{"navigate": "/client/my-services/1"}
	log.Append(newEvent(t, valueobject.NotificationUpdate, payload))
	log.Append(newEvent(t, valueobject.NotificationMessage, entity.NotificationPayload{"navigate": "/admin/chats"}))
	log.Append(newEvent(t, valueobject.NotificationUpdate, entity.NotificationPayload{"navigate": "/client/my-services/1"}))
	log.Append(newEvent(t, valueobject.NotificationUpdate, payload))
	require.Equal(t, 4, log.UnreadCount)

	removed, err := log.Acknowledge(2)
	require.NoError(t, err)

	assert.Len(t, removed, 3)
	assert.Equal(t, 1, log.UnreadCount)
	require.Len(t, log.Events, 1)
	assert.Equal(t, valueobject.NotificationMessage, log.Events[0].Kind)
}

func TestNotificationLog_AcknowledgeKeepsDifferentPayloads(t *testing.T) {
	log := entity.NewNotificationLog(entity.StaffOwner)
	log.Append(newEvent(t, valueobject.NotificationUpdate, entity.NotificationPayload{"navigate": "/a"}))
	log.Append(newEvent(t, valueobject.NotificationUpdate, entity.NotificationPayload{"navigate": "/b"}))

	removed, err := log.Acknowledge(0)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
	assert.Equal(t, 1, log.UnreadCount)

	_, err = log.Acknowledge(5)
	assert.True(t, apperror.IsNotFound(err))
}

func TestActor_Capabilities(t *testing.T) {
	partnerID := uuid.New()
	client := &entity.ClientProfile{ID: uuid.New(), Type: valueobject.RequesterPartner, PartnerID: &partnerID}

	partner := entity.NewPartnerActor(partnerID)
	assert.True(t, partner.CanActFor(client))
	assert.False(t, entity.NewPartnerActor(uuid.New()).CanActFor(client))
	_, ok := partner.ChatSide()
	assert.False(t, ok)

	self := entity.NewClientActor(client.ID)
	assert.True(t, self.CanActFor(client))
	assert.Equal(t, valueobject.RequesterPartner, self.RequesterType(client))

	staff := entity.NewStaffActor(uuid.New())
	assert.Equal(t, entity.StaffOwner, staff.NotificationOwner())
	side, ok := staff.ChatSide()
	assert.True(t, ok)
	assert.Equal(t, valueobject.ChatSideStaff, side)

	_, err := entity.NewActor(uuid.New(), valueobject.Role("guest"))
	assert.True(t, apperror.IsForbidden(err))
}

func TestServiceUpdate_Revise(t *testing.T) {
	link, err := entity.NewDirectEngagement(uuid.New(), uuid.New(), 100, "", "", valueobject.PaymentStatusDue, valueobject.RequesterSelf, nil)
	require.NoError(t, err)
	update, err := entity.NewServiceUpdate(link, "Draft", "updates/a.pdf", nil, nil)
	require.NoError(t, err)

	replaced, err := update.Revise(" Reviewed ", "")
	require.NoError(t, err)
	assert.Empty(t, replaced)
	assert.Equal(t, "Reviewed", update.Description)
	assert.Equal(t, "updates/a.pdf", update.ArtifactKey)

	replaced, err = update.Revise("Final", "updates/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "updates/a.pdf", replaced)
	assert.Equal(t, "updates/b.pdf", update.ArtifactKey)

	_, err = update.Revise(" ", "updates/c.pdf")
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, "Final", update.Description)
	assert.Equal(t, "updates/b.pdf", update.ArtifactKey)
}
