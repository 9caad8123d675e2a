package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/domain/valueobject"
	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

type RequestRepository struct{ s *Store }

func (r *RequestRepository) Create(ctx context.Context, req *entity.ServiceRequest) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.data.requests[req.ID]; ok {
			return apperror.New(apperror.ErrCodeConflict, "заявка уже существует")
		}
		for _, other := range r.s.data.requests {
			if other.ClientID == req.ClientID && other.ServiceID == req.ServiceID && !other.IsAccepted() && !req.IsAccepted() {
				return apperror.ErrRequestPending
			}
		}
		r.s.data.requests[req.ID] = *req
		return nil
	})
}

func (r *RequestRepository) Update(ctx context.Context, req *entity.ServiceRequest) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.data.requests[req.ID]; !ok {
			return apperror.ErrRequestNotFound
		}
		r.s.data.requests[req.ID] = *req
		return nil
	})
}

func (r *RequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceRequest, error) {
	var out *entity.ServiceRequest
	err := r.s.do(ctx, func() error {
		req, ok := r.s.data.requests[id]
		if !ok {
			return apperror.ErrRequestNotFound
		}
		out = &req
		return nil
	})
	return out, err
}

// FindByIDForUpdate: блокировку обеспечивает мьютекс транзакции.
func (r *RequestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.ServiceRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *RequestRepository) FindOpenByClientAndService(ctx context.Context, clientID, serviceID uuid.UUID) (*entity.ServiceRequest, error) {
	var out *entity.ServiceRequest
	err := r.s.do(ctx, func() error {
		for _, req := range r.s.data.requests {
			if req.ClientID != clientID || req.ServiceID != serviceID || req.IsAccepted() {
				continue
			}
			if out == nil || req.CreatedAt.After(out.CreatedAt) {
				found := req
				out = &found
			}
		}
		if out == nil {
			return apperror.ErrRequestNotFound
		}
		return nil
	})
	return out, err
}

func (r *RequestRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.ServiceRequest, error) {
	var out []*entity.ServiceRequest
	err := r.s.do(ctx, func() error {
		for _, req := range r.s.data.requests {
			if req.ClientID == clientID {
				found := req
				out = append(out, &found)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

type EngagementRepository struct{ s *Store }

func (r *EngagementRepository) Create(ctx context.Context, link *entity.EngagementLink) error {
	return r.s.do(ctx, func() error {
		if link.RequestID != nil {
			for _, existing := range r.s.data.engagements {
				if existing.RequestID != nil && *existing.RequestID == *link.RequestID {
					return apperror.ErrAlreadyAccepted
				}
			}
		}
		r.s.data.engagements[link.ID] = *link
		return nil
	})
}

func (r *EngagementRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.EngagementLink, error) {
	var out *entity.EngagementLink
	err := r.s.do(ctx, func() error {
		link, ok := r.s.data.engagements[id]
		if !ok {
			return apperror.ErrEngagementNotFound
		}
		out = &link
		return nil
	})
	return out, err
}

func (r *EngagementRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*entity.EngagementLink, error) {
	var out *entity.EngagementLink
	err := r.s.do(ctx, func() error {
		for _, link := range r.s.data.engagements {
			if link.RequestID != nil && *link.RequestID == requestID {
				found := link
				out = &found
				return nil
			}
		}
		return apperror.ErrEngagementNotFound
	})
	return out, err
}

func (r *EngagementRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.EngagementLink, error) {
	var out []*entity.EngagementLink
	err := r.s.do(ctx, func() error {
		for _, link := range r.s.data.engagements {
			if link.ClientID == clientID {
				found := link
				out = append(out, &found)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *EngagementRepository) AssignPartner(ctx context.Context, id, partnerID uuid.UUID) (*entity.EngagementLink, error) {
	var out *entity.EngagementLink
	err := r.s.do(ctx, func() error {
		link, ok := r.s.data.engagements[id]
		if !ok {
			return apperror.ErrEngagementNotFound
		}
		if err := link.AssignPartner(partnerID); err != nil {
			return err
		}
		r.s.data.engagements[id] = link
		out = &link
		return nil
	})
	return out, err
}

func (r *EngagementRepository) MarkFulfilled(ctx context.Context, id uuid.UUID) (bool, error) {
	changed := false
	err := r.s.do(ctx, func() error {
		link, ok := r.s.data.engagements[id]
		if !ok {
			return apperror.ErrEngagementNotFound
		}
		changed = link.MarkFulfilled()
		r.s.data.engagements[id] = link
		return nil
	})
	return changed, err
}

func (r *EngagementRepository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	changed := false
	err := r.s.do(ctx, func() error {
		link, ok := r.s.data.engagements[id]
		if !ok {
			return apperror.ErrEngagementNotFound
		}
		changed = link.MarkPaid()
		r.s.data.engagements[id] = link
		return nil
	})
	return changed, err
}

type ThreadRepository struct{ s *Store }

func (r *ThreadRepository) openLocked(key entity.ChannelKey) (entity.ChatThread, bool) {
	for _, t := range r.s.data.threads {
		if t.IsOpen() && t.ClientID == key.ClientID && t.Key().Slot() == key.Slot() {
			return t, true
		}
	}
	return entity.ChatThread{}, false
}

func (r *ThreadRepository) OpenOrCreate(ctx context.Context, key entity.ChannelKey) (*entity.ChatThread, bool, error) {
	var out *entity.ChatThread
	created := false
	err := r.s.do(ctx, func() error {
		if t, ok := r.openLocked(key); ok {
			out = &t
			return nil
		}
		t := entity.NewChatThread(key)
		r.s.data.threads[t.ID] = *t
		out = t
		created = true
		return nil
	})
	return out, created, err
}

func (r *ThreadRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ChatThread, error) {
	var out *entity.ChatThread
	err := r.s.do(ctx, func() error {
		t, ok := r.s.data.threads[id]
		if !ok {
			return apperror.ErrThreadNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *ThreadRepository) FindOpen(ctx context.Context, key entity.ChannelKey) (*entity.ChatThread, error) {
	var out *entity.ChatThread
	err := r.s.do(ctx, func() error {
		t, ok := r.openLocked(key)
		if !ok {
			return apperror.ErrThreadNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *ThreadRepository) ListOpen(ctx context.Context) ([]*entity.ChatThread, error) {
	return r.list(ctx, func(t entity.ChatThread) bool { return t.IsOpen() })
}

func (r *ThreadRepository) ListClosedByRequest(ctx context.Context, requestID uuid.UUID) ([]*entity.ChatThread, error) {
	return r.list(ctx, func(t entity.ChatThread) bool {
		return !t.IsOpen() && t.RequestID != nil && *t.RequestID == requestID
	})
}

func (r *ThreadRepository) list(ctx context.Context, match func(entity.ChatThread) bool) ([]*entity.ChatThread, error) {
	var out []*entity.ChatThread
	err := r.s.do(ctx, func() error {
		for _, t := range r.s.data.threads {
			if match(t) {
				found := t
				out = append(out, &found)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, err
}

func (r *ThreadRepository) AttachRequest(ctx context.Context, threadID, requestID uuid.UUID) error {
	return r.s.do(ctx, func() error {
		t, ok := r.s.data.threads[threadID]
		if !ok {
			return apperror.ErrThreadNotFound
		}
		t.RequestID = &requestID
		t.UpdatedAt = time.Now()
		r.s.data.threads[threadID] = t
		return nil
	})
}

func (r *ThreadRepository) Close(ctx context.Context, threadID uuid.UUID) (bool, error) {
	changed := false
	err := r.s.do(ctx, func() error {
		t, ok := r.s.data.threads[threadID]
		if !ok {
			return apperror.ErrThreadNotFound
		}
		changed = t.Close()
		r.s.data.threads[threadID] = t
		return nil
	})
	return changed, err
}

type MessageRepository struct{ s *Store }

func (r *MessageRepository) Append(ctx context.Context, msg *entity.ChatMessage) error {
	return r.s.do(ctx, func() error {
		t, ok := r.s.data.threads[msg.ThreadID]
		if !ok {
			return apperror.ErrThreadNotFound
		}
		if !t.IsOpen() {
			return apperror.ErrThreadClosed
		}
		t.RecordMessage(msg.Sender)
		r.s.data.threads[t.ID] = t
		r.s.data.messages[t.ID] = append(r.s.data.messages[t.ID], *msg)
		return nil
	})
}

func (r *MessageRepository) ListByThread(ctx context.Context, threadID uuid.UUID) ([]*entity.ChatMessage, error) {
	var out []*entity.ChatMessage
	err := r.s.do(ctx, func() error {
		for _, m := range r.s.data.messages[threadID] {
			found := m
			out = append(out, &found)
		}
		return nil
	})
	return out, err
}

func (r *MessageRepository) MarkRead(ctx context.Context, threadID uuid.UUID, reader valueobject.ChatSide) error {
	return r.s.do(ctx, func() error {
		t, ok := r.s.data.threads[threadID]
		if !ok {
			return apperror.ErrThreadNotFound
		}
		msgs := r.s.data.messages[threadID]
		for i := range msgs {
			msgs[i].MarkReadBy(reader)
		}
		t.ResetUnread(reader)
		r.s.data.threads[threadID] = t
		return nil
	})
}

type NotificationRepository struct{ s *Store }

func (r *NotificationRepository) Append(ctx context.Context, event *entity.NotificationEvent) error {
	return r.s.do(ctx, func() error {
		r.s.data.nextEventID++
		event.ID = r.s.data.nextEventID
		st := r.s.data.notifications[event.Owner]
		st.events = append(st.events, *event)
		if !event.Read {
			st.unread++
		}
		r.s.data.notifications[event.Owner] = st
		return nil
	})
}

func (r *NotificationRepository) Load(ctx context.Context, owner entity.NotificationOwner) (*entity.NotificationLog, error) {
	var out *entity.NotificationLog
	err := r.s.do(ctx, func() error {
		st := r.s.data.notifications[owner]
		out = &entity.NotificationLog{Owner: owner, UnreadCount: st.unread}
		for _, e := range st.events {
			found := e
			out.Events = append(out.Events, &found)
		}
		return nil
	})
	return out, err
}

func (r *NotificationRepository) LoadForUpdate(ctx context.Context, owner entity.NotificationOwner) (*entity.NotificationLog, error) {
	return r.Load(ctx, owner)
}

func (r *NotificationRepository) Remove(ctx context.Context, owner entity.NotificationOwner, events []*entity.NotificationEvent) error {
	return r.s.do(ctx, func() error {
		ids := make(map[int64]struct{}, len(events))
		for _, e := range events {
			ids[e.ID] = struct{}{}
		}
		st := r.s.data.notifications[owner]
		kept := st.events[:0:0]
		for _, e := range st.events {
			if _, ok := ids[e.ID]; !ok {
				kept = append(kept, e)
			}
		}
		st.unread -= len(st.events) - len(kept)
		if st.unread < 0 {
			st.unread = 0
		}
		st.events = kept
		r.s.data.notifications[owner] = st
		return nil
	})
}

type ServiceUpdateRepository struct{ s *Store }

func (r *ServiceUpdateRepository) Create(ctx context.Context, update *entity.ServiceUpdate) error {
	return r.s.do(ctx, func() error {
		r.s.data.updates[update.EngagementID] = append(r.s.data.updates[update.EngagementID], *update)
		return nil
	})
}

func (r *ServiceUpdateRepository) ListByEngagement(ctx context.Context, engagementID uuid.UUID) ([]*entity.ServiceUpdate, error) {
	var out []*entity.ServiceUpdate
	err := r.s.do(ctx, func() error {
		for _, u := range r.s.data.updates[engagementID] {
			found := u
			out = append(out, &found)
		}
		return nil
	})
	return out, err
}

func (r *ServiceUpdateRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceUpdate, error) {
	var out *entity.ServiceUpdate
	err := r.s.do(ctx, func() error {
		i, list := r.locate(id)
		if i < 0 {
			return apperror.ErrUpdateNotFound
		}
		found := list[i]
		out = &found
		return nil
	})
	return out, err
}

func (r *ServiceUpdateRepository) Update(ctx context.Context, update *entity.ServiceUpdate) error {
	return r.s.do(ctx, func() error {
		i, list := r.locate(update.ID)
		if i < 0 {
			return apperror.ErrUpdateNotFound
		}
		list[i].Description = update.Description
		list[i].ArtifactKey = update.ArtifactKey
		return nil
	})
}

func (r *ServiceUpdateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.do(ctx, func() error {
		i, list := r.locate(id)
		if i < 0 {
			return apperror.ErrUpdateNotFound
		}
		engagementID := list[i].EngagementID
		r.s.data.updates[engagementID] = slices.Delete(list, i, i+1)
		return nil
	})
}

// locate вызывается под блокировкой хранилища.
func (r *ServiceUpdateRepository) locate(id uuid.UUID) (int, []entity.ServiceUpdate) {
	for _, list := range r.s.data.updates {
		if i := slices.IndexFunc(list, func(u entity.ServiceUpdate) bool { return u.ID == id }); i >= 0 {
			return i, list
		}
	}
	return -1, nil
}

// DirectoryRepository - справочник, наполняемый через AddClient/AddService/AddPartner.
type DirectoryRepository struct{ s *Store }

func (r *DirectoryRepository) GetClient(ctx context.Context, id uuid.UUID) (*entity.ClientProfile, error) {
	r.s.dirMu.RLock()
	defer r.s.dirMu.RUnlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, apperror.ErrClientNotFound
	}
	return &c, nil
}

func (r *DirectoryRepository) GetService(ctx context.Context, id uuid.UUID) (*entity.ServiceInfo, error) {
	r.s.dirMu.RLock()
	defer r.s.dirMu.RUnlock()
	svc, ok := r.s.services[id]
	if !ok {
		return nil, apperror.ErrServiceNotFound
	}
	return &svc, nil
}

func (r *DirectoryRepository) PartnerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.dirMu.RLock()
	defer r.s.dirMu.RUnlock()
	_, ok := r.s.partners[id]
	return ok, nil
}

func (s *Store) AddClient(c entity.ClientProfile) {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()
	s.clients[c.ID] = c
}

func (s *Store) AddService(svc entity.ServiceInfo) {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()
	s.services[svc.ID] = svc
}

func (s *Store) AddPartner(id uuid.UUID) {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()
	s.partners[id] = struct{}{}
}
