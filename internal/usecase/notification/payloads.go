package notification

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
)

func withService(p entity.NotificationPayload, serviceID *uuid.UUID) entity.NotificationPayload {
	if serviceID != nil {
		p["serviceId"] = serviceID.String()
	}
	return p
}

func StaffChatPayload(clientID uuid.UUID, serviceID *uuid.UUID) entity.NotificationPayload {
	return withService(entity.NotificationPayload{
		"navigate": "/admin/chats",
		"clientId": clientID.String(),
	}, serviceID)
}

func ClientChatPayload(serviceID *uuid.UUID) entity.NotificationPayload {
	return withService(entity.NotificationPayload{"navigate": "/client/chats"}, serviceID)
}

func ClientServicePayload(engagementID uuid.UUID) entity.NotificationPayload {
	return entity.NotificationPayload{
		"navigate": "/client/my-services/" + engagementID.String(),
	}
}

func PartnerServicePayload(clientID, engagementID uuid.UUID) entity.NotificationPayload {
	return entity.NotificationPayload{
		"navigate": "/partner/clients/" + clientID.String() + "/services/" + engagementID.String(),
		"clientId": clientID.String(),
	}
}

func StaffAcceptancePayload(link *entity.EngagementLink) entity.NotificationPayload {
	return entity.NotificationPayload{
		"navigate":      "/admin/services",
		"clientId":      link.ClientID.String(),
		"serviceId":     link.ServiceID.String(),
		"paymentStatus": string(link.PaymentStatus),
	}
}
