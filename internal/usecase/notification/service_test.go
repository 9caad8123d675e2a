package notification_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
	"github.com/ignatzorin/engagement-backend/internal/usecase/notification"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(owner entity.NotificationOwner, event *entity.NotificationEvent) {
	m.Called(owner, event)
}

func newService(store *memory.Store) *notification.Service {
	return notification.NewService(store.Notifications(), store, store.Directory())
}

func TestAppend_IncrementsUnreadAndPublishes(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	pub := new(mockPublisher)
	svc.SetPublisher(pub)
	ctx := context.Background()
	clientID := uuid.New()

	pub.On("Publish", entity.ClientOwner(clientID), mock.Anything).Return().Twice()

	_, err := svc.Append(ctx, notification.ToClient(clientID), valueobject.NotificationMessage, entity.NotificationPayload{"navigate": "/client/chats"})
	require.NoError(t, err)
	_, err = svc.Append(ctx, notification.ToClient(clientID), valueobject.NotificationMessageQuotation, nil)
	require.NoError(t, err)

	log, err := svc.List(ctx, entity.ClientOwner(clientID))
	require.NoError(t, err)
	assert.Equal(t, 2, log.UnreadCount)
	require.Len(t, log.Events, 2)
	assert.Equal(t, "A new message", log.Events[0].Message)
	assert.Equal(t, "Accept Quotation", log.Events[1].Message)
	pub.AssertExpectations(t)
}

func TestAppend_PartnerOfClientWithoutPartnerIsSkipped(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()
	client := entity.ClientProfile{ID: uuid.New(), Type: valueobject.RequesterSelf}
	store.AddClient(client)

	event, err := svc.Append(ctx, notification.ToPartnerOfClient(client.ID), valueobject.NotificationUpdate, nil)
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestAppend_PartnerOfClientIsResolved(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()
	partnerID := uuid.New()
	client := entity.ClientProfile{ID: uuid.New(), Type: valueobject.RequesterPartner, PartnerID: &partnerID}
	store.AddClient(client)

	event, err := svc.Append(ctx, notification.ToPartnerOfClient(client.ID), valueobject.NotificationUpdate, nil)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, entity.PartnerOwner(partnerID), event.Owner)
}

func TestMarkRead_CollapsesStructuralDuplicates(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	ctx := context.Background()
	staff := notification.ToStaff()
	update := entity.NotificationPayload{"navigate": "/admin/services", "serviceId": "s1"}

	for i := 0; i < 3; i++ {
		_, err := svc.Append(ctx, staff, valueobject.NotificationUpdate, entity.NotificationPayload{"navigate": "/admin/services", "serviceId": "s1"})
		require.NoError(t, err)
	}
	_, err := svc.Append(ctx, staff, valueobject.NotificationMessage, entity.NotificationPayload{"navigate": "/admin/chats"})
	require.NoError(t, err)

	log, err := svc.MarkRead(ctx, entity.StaffOwner, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, log.UnreadCount)

	stored, err := svc.List(ctx, entity.StaffOwner)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UnreadCount)
	require.Len(t, stored.Events, 1)
	assert.Equal(t, valueobject.NotificationMessage, stored.Events[0].Kind)
	assert.NotEqual(t, update, stored.Events[0].Payload)
}

func TestMarkRead_UnknownIndex(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)

	_, err := svc.MarkRead(context.Background(), entity.StaffOwner, 0)
	assert.True(t, apperror.IsNotFound(err))
}
