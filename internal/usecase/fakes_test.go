package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

// memRepo is an in-memory ports.Repository keeping insertion order.
type memRepo struct {
	mu sync.Mutex

	users       []domain.User
	tags        []domain.Tag
	catalysts   []domain.Catalyst
	assessments []domain.Assessment
	reports     []domain.Report
	overall     []domain.OverallAnalysis

	loadErr    error
	persistErr map[uuid.UUID]error
	clock      time.Time
}

var _ ports.Repository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{clock: time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)}
}

func (m *memRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memRepo) addUser(email string) domain.User {
	u, _ := m.FindOrCreateUser(context.Background(), email, email)
	return u
}

func (m *memRepo) addTag(userID uuid.UUID, name string, catalysts ...string) domain.Tag {
	t, _ := m.CreateTag(context.Background(), domain.Tag{UserID: userID, Name: name, Type: domain.TagTypeCompany})
	for _, c := range catalysts {
		_, _ = m.CreateCatalyst(context.Background(), t.ID, c)
	}
	return t
}

func (m *memRepo) ListUsersWithTagsAndCatalysts(context.Context) ([]domain.UserWork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]domain.UserWork, 0, len(m.users))
	for _, u := range m.users {
		w := domain.UserWork{ID: u.ID, Email: u.Email, Name: u.Name}
		for _, t := range m.tags {
			if t.UserID != u.ID {
				continue
			}
			tw := domain.TagWork{ID: t.ID, Name: t.Name, Catalysts: []string{}}
			for _, c := range m.catalysts {
				if c.TagID == t.ID {
					tw.Catalysts = append(tw.Catalysts, c.Content)
				}
			}
			w.Tags = append(w.Tags, tw)
		}
		out = append(out, w)
	}
	return out, nil
}

func (m *memRepo) CreateAssessment(_ context.Context, tagID uuid.UUID, r domain.AssessmentResult) (domain.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.persistErr[tagID]; err != nil {
		return domain.Assessment{}, err
	}
	a := domain.Assessment{ID: uuid.New(), TagID: tagID, Points: r.Points, Sentiment: r.Sentiment, Summary: r.Summary, CreatedAt: m.tick()}
	m.assessments = append(m.assessments, a)
	return a, nil
}

func (m *memRepo) FindOrCreateUser(_ context.Context, email, name string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	u := domain.User{ID: uuid.New(), Email: email, Name: name, CreatedAt: m.tick()}
	m.users = append(m.users, u)
	return u, nil
}

func (m *memRepo) GetUser(_ context.Context, id uuid.UUID) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memRepo) CreateTag(_ context.Context, t domain.Tag) (domain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = m.tick()
	m.tags = append(m.tags, t)
	return t, nil
}

func (m *memRepo) GetTag(_ context.Context, id uuid.UUID) (domain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tags {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Tag{}, domain.ErrNotFound
}

func (m *memRepo) ListTags(_ context.Context, userID uuid.UUID) ([]domain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Tag{}
	for _, t := range m.tags {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteTag(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tags {
		if t.ID == id {
			m.tags = append(m.tags[:i], m.tags[i+1:]...)
			kept := m.catalysts[:0]
			for _, c := range m.catalysts {
				if c.TagID != id {
					kept = append(kept, c)
				}
			}
			m.catalysts = kept
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memRepo) CreateCatalyst(_ context.Context, tagID uuid.UUID, content string) (domain.Catalyst, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Catalyst{ID: uuid.New(), TagID: tagID, Content: content, CreatedAt: m.tick()}
	m.catalysts = append(m.catalysts, c)
	return c, nil
}

func (m *memRepo) GetCatalyst(_ context.Context, id uuid.UUID) (domain.Catalyst, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.catalysts {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Catalyst{}, domain.ErrNotFound
}

func (m *memRepo) ListCatalysts(_ context.Context, tagID uuid.UUID) ([]domain.Catalyst, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Catalyst{}
	for _, c := range m.catalysts {
		if c.TagID == tagID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteCatalyst(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.catalysts {
		if c.ID == id {
			m.catalysts = append(m.catalysts[:i], m.catalysts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memRepo) ListAssessments(_ context.Context, tagID uuid.UUID, limit int) ([]domain.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Assessment{}
	for _, a := range m.assessments {
		if a.TagID == tagID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) CreateReport(_ context.Context, tagID uuid.UUID, content string) (domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := domain.Report{ID: uuid.New(), TagID: tagID, Content: content, CreatedAt: m.tick()}
	m.reports = append(m.reports, r)
	return r, nil
}

func (m *memRepo) ListReports(_ context.Context, tagID uuid.UUID, limit int) ([]domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Report{}
	for i := len(m.reports) - 1; i >= 0 && len(out) < limit; i-- {
		if m.reports[i].TagID == tagID {
			out = append(out, m.reports[i])
		}
	}
	return out, nil
}

func (m *memRepo) CreateOverallAnalysis(_ context.Context, tagID uuid.UUID, content string) (domain.OverallAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := domain.OverallAnalysis{ID: uuid.New(), TagID: tagID, Content: content, CreatedAt: m.tick()}
	m.overall = append(m.overall, o)
	return o, nil
}

func (m *memRepo) ListOverallAnalyses(_ context.Context, tagID uuid.UUID, limit int) ([]domain.OverallAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.OverallAnalysis{}
	for i := len(m.overall) - 1; i >= 0 && len(out) < limit; i-- {
		if m.overall[i].TagID == tagID {
			out = append(out, m.overall[i])
		}
	}
	return out, nil
}

// scriptedAssessor fails for subjects listed in fail and succeeds otherwise.
type scriptedAssessor struct {
	fail  map[string]error
	calls []string
}

func (s *scriptedAssessor) Assess(_ context.Context, subject string, _ []string) (domain.AssessmentResult, error) {
	s.calls = append(s.calls, subject)
	if err := s.fail[subject]; err != nil {
		return domain.AssessmentResult{}, &domain.GenerationError{Subject: subject, Err: err}
	}
	return domain.AssessmentResult{
		Points:    []string{subject + " p1", subject + " p2", subject + " p3"},
		Sentiment: domain.SentimentNeutral,
		Summary:   subject + " summary",
	}, nil
}

// countingGate records slot requests without sleeping.
type countingGate struct {
	slots int
	err   error
}

func (g *countingGate) AwaitSlot(context.Context) error {
	g.slots++
	return g.err
}

// recordingMail captures every email sent.
type recordingMail struct {
	sent []domain.Email
	err  error
}

func (r *recordingMail) Send(_ context.Context, e domain.Email) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, e)
	return nil
}

// recordingDispatcher captures dispatch calls.
type recordingDispatcher struct {
	calls []dispatchCall
	err   error
}

type dispatchCall struct {
	address string
	items   []domain.DigestItem
}

func (r *recordingDispatcher) Dispatch(_ context.Context, address string, items []domain.DigestItem) error {
	r.calls = append(r.calls, dispatchCall{address: address, items: items})
	return r.err
}
