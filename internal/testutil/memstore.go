// Package testutil provides in-memory repositories for handler tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/repository"
)

// MemStore keeps every table in maps guarded by one mutex.
type MemStore struct {
	mu   sync.Mutex
	last time.Time

	users        map[string]*models.User
	datasets     map[string]*models.Dataset
	jobs         map[string]*models.Job
	messages     map[string]*models.Message
	payments     map[string]*models.Payment
	proposals    map[string]*models.Proposal
	deliverables map[string]*models.Deliverable
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:        map[string]*models.User{},
		datasets:     map[string]*models.Dataset{},
		jobs:         map[string]*models.Job{},
		messages:     map[string]*models.Message{},
		payments:     map[string]*models.Payment{},
		proposals:    map[string]*models.Proposal{},
		deliverables: map[string]*models.Deliverable{},
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *MemStore) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Users:        memUsers{s},
		Datasets:     memDatasets{s},
		Jobs:         memJobs{s},
		Messages:     memMessages{s},
		Payments:     memPayments{s},
		Proposals:    memProposals{s},
		Deliverables: memDeliverables{s},
		Stats:        memStats{s},
	}
}

// now is strictly increasing, like clock_timestamp() on one server.
func (s *MemStore) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// Backdate shifts a payment's creation time; used to exercise reconciliation.
func (s *MemStore) Backdate(paymentID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[paymentID]; ok {
		p.CreatedAt = p.CreatedAt.Add(-d)
	}
}

// CountUsers returns the number of stored users.
func (s *MemStore) CountUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type memUsers struct{ s *MemStore }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperr.New(apperr.CodeDuplicateUser, "User already exists")
		}
	}
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.NotFoundOrUnauthorized("User")
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundOrUnauthorized("User")
}

func (r memUsers) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.NotFoundOrUnauthorized("User")
	}
	if upd.Name != "" {
		u.Name = upd.Name
	}
	if upd.Specialty != "" {
		u.Specialty = upd.Specialty
	}
	if upd.Bio != "" {
		u.Bio = upd.Bio
	}
	u.UpdatedAt = r.s.now()
	cp := *u
	return &cp, nil
}

func (r memUsers) ListProviders(_ context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.User{}
	for _, u := range r.s.users {
		if u.Role == models.RoleProvider {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memUsers) SetRole(_ context.Context, email string, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			u.Role = role
			u.UpdatedAt = r.s.now()
			return nil
		}
	}
	return apperr.NotFoundOrUnauthorized("User")
}

type memDatasets struct{ s *MemStore }

func (r memDatasets) enrich(d *models.Dataset) models.Dataset {
	cp := *d
	if u, ok := r.s.users[d.OwnerID]; ok {
		cp.OwnerName, cp.OwnerEmail = u.Name, u.Email
	}
	return cp
}

func (r memDatasets) List(_ context.Context) ([]models.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Dataset{}
	for _, d := range r.s.datasets {
		out = append(out, r.enrich(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memDatasets) Get(_ context.Context, id string) (*models.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.datasets[id]
	if !ok {
		return nil, apperr.NotFoundOrUnauthorized("Dataset")
	}
	out := r.enrich(d)
	return &out, nil
}

func (r memDatasets) Create(_ context.Context, ownerID string, in models.DatasetInput) (*models.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	d := &models.Dataset{
		ID: uuid.New().String(), OwnerID: ownerID, CreatedAt: now, UpdatedAt: now,
	}
	applyDataset(d, in)
	r.s.datasets[d.ID] = d
	out := r.enrich(d)
	return &out, nil
}

func applyDataset(d *models.Dataset, in models.DatasetInput) {
	d.Title, d.Description, d.Price = in.Title, in.Description, in.Price.Round(2)
	d.Format, d.Size, d.PreviewURL = in.Format, in.Size, in.PreviewURL
}

func (r memDatasets) Update(_ context.Context, id, ownerID string, in models.DatasetInput) (*models.Dataset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.datasets[id]
	if !ok || d.OwnerID != ownerID {
		return nil, apperr.NotFoundOrUnauthorized("Dataset")
	}
	applyDataset(d, in)
	d.UpdatedAt = r.s.now()
	out := r.enrich(d)
	return &out, nil
}

func (r memDatasets) Delete(_ context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.datasets[id]
	if !ok || d.OwnerID != ownerID {
		return apperr.NotFoundOrUnauthorized("Dataset")
	}
	delete(r.s.datasets, id)
	return nil
}

type memJobs struct{ s *MemStore }

func (r memJobs) enrich(j *models.Job) models.Job {
	cp := *j
	if u, ok := r.s.users[j.ClientID]; ok {
		cp.ClientName = u.Name
	}
	if j.ProviderID != nil {
		if u, ok := r.s.users[*j.ProviderID]; ok {
			cp.ProviderName = u.Name
		}
	}
	return cp
}

func (r memJobs) List(_ context.Context) ([]models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Job{}
	for _, j := range r.s.jobs {
		out = append(out, r.enrich(j))
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (r memJobs) Get(_ context.Context, id string) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, apperr.NotFoundOrUnauthorized("Job")
	}
	out := r.enrich(j)
	return &out, nil
}

func (r memJobs) Create(_ context.Context, clientID string, in models.JobInput) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	j := &models.Job{
		ID:             uuid.New().String(),
		Title:          in.Title,
		Description:    in.Description,
		Budget:         in.Budget.Round(2),
		Location:       in.Location,
		Status:         models.JobDiscussion,
		Requirements:   in.Requirements,
		DeliveryFormat: in.DeliveryFormat,
		Timeline:       in.Timeline,
		ClientID:       clientID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.s.jobs[j.ID] = j
	out := r.enrich(j)
	return &out, nil
}

func (r memJobs) Update(_ context.Context, job *models.Job, observed models.JobStatus) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[job.ID]
	if !ok || j.ClientID != job.ClientID {
		return nil, apperr.NotFoundOrUnauthorized("Job")
	}
	if j.Status != observed {
		return nil, apperr.New(apperr.CodeConflict, "Job status changed concurrently")
	}
	now := r.s.now()
	if job.Status == models.JobCompleted && j.Status != models.JobCompleted {
		j.CompletionDate = &now
	}
	j.Title, j.Description, j.Budget = job.Title, job.Description, job.Budget.Round(2)
	j.Location, j.Status, j.Requirements = job.Location, job.Status, job.Requirements
	j.DeliveryFormat, j.Timeline = job.DeliveryFormat, job.Timeline
	j.UpdatedAt = now
	out := r.enrich(j)
	return &out, nil
}

func (r memJobs) Delete(_ context.Context, id, clientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[id]
	if !ok || j.ClientID != clientID {
		return apperr.NotFoundOrUnauthorized("Job")
	}
	for _, p := range r.s.payments {
		if p.JobID == id {
			return apperr.New(apperr.CodeConflict, "Job has payment records and cannot be deleted")
		}
	}
	delete(r.s.jobs, id)
	return nil
}

type memMessages struct{ s *MemStore }

func (r memMessages) enrich(m *models.Message) models.Message {
	cp := *m
	if u, ok := r.s.users[m.SenderID]; ok {
		cp.SenderName = u.Name
	}
	if u, ok := r.s.users[m.ReceiverID]; ok {
		cp.ReceiverName = u.Name
	}
	return cp
}

func (r memMessages) Create(_ context.Context, m *models.Message) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[m.ReceiverID]; !ok {
		return nil, apperr.Validation("Receiver or job does not exist")
	}
	if m.JobID != nil {
		if _, ok := r.s.jobs[*m.JobID]; !ok {
			return nil, apperr.Validation("Receiver or job does not exist")
		}
	}
	cp := *m
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	cp.Read = false
	cp.CreatedAt = r.s.now()
	r.s.messages[cp.ID] = &cp
	out := r.enrich(&cp)
	return &out, nil
}

func (r memMessages) Get(_ context.Context, id string) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, apperr.NotFoundOrUnauthorized("Message")
	}
	out := r.enrich(m)
	return &out, nil
}

func sortMessages(ms []models.Message) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.Before(ms[j].CreatedAt)
		}
		return ms[i].ID < ms[j].ID
	})
}

func (r memMessages) Conversation(_ context.Context, a, b string) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Message{}
	for _, m := range r.s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, r.enrich(m))
		}
	}
	sortMessages(out)
	return out, nil
}

func (r memMessages) Contacts(_ context.Context, viewer string) ([]models.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := []models.Message{}
	for _, m := range r.s.messages {
		if m.SenderID == viewer || m.ReceiverID == viewer {
			all = append(all, *m)
		}
	}
	sortMessages(all)

	byUser := map[string]*models.Contact{}
	for _, m := range all {
		other := m.SenderID
		if other == viewer {
			other = m.ReceiverID
		}
		c, ok := byUser[other]
		if !ok {
			c = &models.Contact{UserID: other}
			if u, ok := r.s.users[other]; ok {
				c.Name, c.Email = u.Name, u.Email
			}
			byUser[other] = c
		}
		c.LastMessage, c.LastMessageTime = m.Content, m.CreatedAt
		if m.ReceiverID == viewer && !m.Read {
			c.UnreadCount++
		}
	}

	out := make([]models.Contact, 0, len(byUser))
	for _, c := range byUser {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageTime.Equal(out[j].LastMessageTime) {
			return out[i].LastMessageTime.After(out[j].LastMessageTime)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r memMessages) MarkRead(_ context.Context, receiverID, senderID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (r memUsers) List(_ context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memStats struct{ s *MemStore }

func (r memStats) Snapshot(_ context.Context) (*models.Stats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := &models.Stats{
		Users:    int64(len(r.s.users)),
		Datasets: int64(len(r.s.datasets)),
		Jobs:     int64(len(r.s.jobs)),
		Messages: int64(len(r.s.messages)),
		Payments: int64(len(r.s.payments)),
	}
	for _, u := range r.s.users {
		if u.Role == models.RoleProvider {
			st.Providers++
		}
	}
	for _, j := range r.s.jobs {
		if !j.Status.Terminal() {
			st.OpenJobs++
		}
	}
	for _, p := range r.s.payments {
		switch p.Status {
		case models.PaymentPending:
			st.PendingPayments++
		case models.PaymentCompleted:
			st.CompletedVolume = st.CompletedVolume.Add(p.Amount)
		}
	}
	return st, nil
}

type memPayments struct{ s *MemStore }

func (r memPayments) Create(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[p.JobID]; !ok {
		return apperr.NotFoundOrUnauthorized("Job")
	}
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	p.Amount = p.Amount.Round(2)
	cp := *p
	r.s.payments[p.ID] = &cp
	return nil
}

func (r memPayments) Get(_ context.Context, id string) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, apperr.NotFoundOrUnauthorized("Payment")
	}
	cp := *p
	return &cp, nil
}

func (r memPayments) SetExternalRef(_ context.Context, id, ref string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok || p.Method != models.MethodStripe {
		return apperr.NotFoundOrUnauthorized("Payment")
	}
	p.ExternalRef = &ref
	p.UpdatedAt = r.s.now()
	return nil
}

func (r memPayments) MarkFailed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.payments[id]; ok && p.Status == models.PaymentPending {
		p.Status = models.PaymentFailed
		p.UpdatedAt = r.s.now()
	}
	return nil
}

func (r memPayments) CompleteByRef(_ context.Context, ref string) (*models.Payment, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ExternalRef != nil && *p.ExternalRef == ref {
			p.Status = models.PaymentCompleted
			p.UpdatedAt = r.s.now()
			cp := *p
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (r memPayments) FailByRef(_ context.Context, ref string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ExternalRef != nil && *p.ExternalRef == ref && p.Status == models.PaymentPending {
			p.Status = models.PaymentFailed
			p.UpdatedAt = r.s.now()
			return true, nil
		}
	}
	return false, nil
}

func (r memPayments) ListByJob(_ context.Context, jobID string) ([]models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Payment{}
	for _, p := range r.s.payments {
		if p.JobID == jobID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memPayments) FailStale(_ context.Context, createdBefore time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []string{}
	for _, p := range r.s.payments {
		if p.Method == models.MethodStripe && p.Status == models.PaymentPending &&
			p.ExternalRef == nil && p.CreatedAt.Before(createdBefore) {
			p.Status = models.PaymentFailed
			p.UpdatedAt = r.s.now()
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memProposals struct{ s *MemStore }

func (r memProposals) enrich(p *models.Proposal) models.Proposal {
	cp := *p
	if u, ok := r.s.users[p.ProviderID]; ok {
		cp.ProviderName = u.Name
	}
	return cp
}

func (r memProposals) Create(_ context.Context, p *models.Proposal) (*models.Proposal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[p.JobID]
	if !ok {
		return nil, apperr.NotFoundOrUnauthorized("Job")
	}
	if j.Status != models.JobDiscussion && j.Status != models.JobQuoted {
		return nil, apperr.New(apperr.CodeConflict, "Job is no longer accepting proposals")
	}
	for _, existing := range r.s.proposals {
		if existing.JobID == p.JobID && existing.ProviderID == p.ProviderID && existing.Status == models.ProposalPending {
			return nil, apperr.New(apperr.CodeConflict, "You already have a pending proposal for this job")
		}
	}
	now := r.s.now()
	cp := *p
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	cp.Status = models.ProposalPending
	cp.Price = cp.Price.Round(2)
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.proposals[cp.ID] = &cp
	if j.Status == models.JobDiscussion {
		j.Status = models.JobQuoted
		j.UpdatedAt = now
	}
	out := r.enrich(&cp)
	return &out, nil
}

func (r memProposals) Get(_ context.Context, id string) (*models.Proposal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.proposals[id]
	if !ok {
		return nil, apperr.NotFoundOrUnauthorized("Proposal")
	}
	out := r.enrich(p)
	return &out, nil
}

func (r memProposals) ListByJob(_ context.Context, jobID, providerID string) ([]models.Proposal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Proposal{}
	for _, p := range r.s.proposals {
		if p.JobID == jobID && (providerID == "" || p.ProviderID == providerID) {
			out = append(out, r.enrich(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memProposals) Accept(_ context.Context, jobID, proposalID, clientID string) (*models.Proposal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[jobID]
	if !ok || j.ClientID != clientID {
		return nil, apperr.NotFoundOrUnauthorized("Job")
	}
	if !j.Status.CanTransitionTo(models.JobAccepted) || j.Status == models.JobAccepted {
		return nil, apperr.New(apperr.CodeInvalidTransition, "Job cannot accept a proposal in status "+string(j.Status))
	}
	p, ok := r.s.proposals[proposalID]
	if !ok || p.JobID != jobID || p.Status != models.ProposalPending {
		return nil, apperr.NotFoundOrUnauthorized("Proposal")
	}
	now := r.s.now()
	p.Status, p.UpdatedAt = models.ProposalAccepted, now
	for _, other := range r.s.proposals {
		if other.JobID == jobID && other.ID != proposalID && other.Status == models.ProposalPending {
			other.Status, other.UpdatedAt = models.ProposalRejected, now
		}
	}
	provider := p.ProviderID
	j.ProviderID = &provider
	j.Status = models.JobAccepted
	j.UpdatedAt = now
	out := r.enrich(p)
	return &out, nil
}

func (r memProposals) Withdraw(_ context.Context, jobID, proposalID, providerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.proposals[proposalID]
	if !ok || p.JobID != jobID || p.ProviderID != providerID || p.Status != models.ProposalPending {
		return apperr.NotFoundOrUnauthorized("Proposal")
	}
	p.Status, p.UpdatedAt = models.ProposalWithdrawn, r.s.now()
	return nil
}

type memDeliverables struct{ s *MemStore }

func (r memDeliverables) Create(_ context.Context, d *models.Deliverable) (*models.Deliverable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *d
	cp.CreatedAt = r.s.now()
	r.s.deliverables[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memDeliverables) Get(_ context.Context, jobID, id string) (*models.Deliverable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deliverables[id]
	if !ok || d.JobID != jobID {
		return nil, apperr.NotFoundOrUnauthorized("Deliverable")
	}
	cp := *d
	return &cp, nil
}

func (r memDeliverables) ListByJob(_ context.Context, jobID string) ([]models.Deliverable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Deliverable{}
	for _, d := range r.s.deliverables {
		if d.JobID == jobID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
