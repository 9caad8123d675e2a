package main

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/engagement-backend/internal/auth"
	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/engagement-backend/internal/logger"
)

// seedDevelopment наполняет справочник хранилища в памяти и печатает
// токены демо-пользователей, чтобы с API можно было работать сразу после запуска.
func seedDevelopment(store *memory.Store, tokens *auth.TokenManager) {
	partnerID := uuid.New()
	store.AddPartner(partnerID)

	selfClient := entity.ClientProfile{ID: uuid.New(), Name: "Demo Client", Phone: "9876543210", Type: valueobject.RequesterSelf}
	partnerClient := entity.ClientProfile{ID: uuid.New(), Name: "Partner Client", Phone: "9876543211", Type: valueobject.RequesterPartner, PartnerID: &partnerID}
	store.AddClient(selfClient)
	store.AddClient(partnerClient)

	services := []entity.ServiceInfo{
		{ID: uuid.New(), Name: "GST Registration"},
		{ID: uuid.New(), Name: "Company Incorporation"},
		{ID: uuid.New(), Name: "Trademark Filing"},
	}
	for _, svc := range services {
		store.AddService(svc)
	}

	log := logger.Component("seed")
	actors := []struct {
		name string
		id   uuid.UUID
		role valueobject.Role
	}{
		{"client", selfClient.ID, valueobject.RoleClient},
		{"partner_client", partnerClient.ID, valueobject.RoleClient},
		{"partner", partnerID, valueobject.RolePartner},
		{"staff", uuid.New(), valueobject.RoleStaff},
	}
	for _, a := range actors {
		token, err := tokens.IssueAccess(a.id, a.role)
		if err != nil {
			log.WithField("error", err.Error()).Error("не удалось выпустить демо-токен")
			continue
		}
		log.WithFields(logrus.Fields{
			"actor": a.name,
			"id":    a.id,
			"token": token,
		}).Info("демо-пользователь")
	}
	for _, svc := range services {
		log.WithFields(logrus.Fields{"service": svc.Name, "id": svc.ID}).Info("демо-услуга")
	}
}
