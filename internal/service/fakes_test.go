package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/repository"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
)

type fakeStudentRepo struct {
	students map[string]*models.Student
	seq      int
	listErr  error
}

func newFakeStudentRepo(students ...models.Student) *fakeStudentRepo {
	r := &fakeStudentRepo{students: map[string]*models.Student{}}
	for i := range students {
		s := students[i]
		r.students[s.ID] = &s
	}
	return r
}

func (r *fakeStudentRepo) List(_ context.Context, f models.StudentFilter) ([]models.Student, int64, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var out []models.Student
	for _, s := range r.students {
		q := strings.ToLower(f.Search)
		if q == "" || strings.Contains(strings.ToLower(s.Name+" "+s.Class+" "+s.EnrollmentNumber), q) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))
	if f.Offset < len(out) {
		out = out[f.Offset:]
	} else {
		out = nil
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *fakeStudentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	if s, ok := r.students[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeStudentRepo) FindByEnrollment(_ context.Context, enrollment string) (*models.Student, error) {
	for _, s := range r.students {
		if s.EnrollmentNumber == enrollment {
			c := *s
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeStudentRepo) Create(_ context.Context, s *models.Student) error {
	r.seq++
	s.ID = fmt.Sprintf("s%d", r.seq)
	c := *s
	r.students[s.ID] = &c
	return nil
}

func (r *fakeStudentRepo) Update(_ context.Context, s *models.Student) error {
	current, ok := r.students[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c := *s
	c.EnrollmentNumber = current.EnrollmentNumber
	r.students[s.ID] = &c
	return nil
}

func (r *fakeStudentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.students, id)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	seq   int
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) List(context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByResetToken(_ context.Context, hash string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == hash &&
			u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now) {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) CountByRole(_ context.Context, role models.UserRole) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.seq++
	u.ID = fmt.Sprintf("u%d", r.seq)
	u.CreatedAt = time.Now()
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	current, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.Name, current.Email, current.Role = u.Name, u.Email, u.Role
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.ResetPasswordToken = nil
	u.ResetPasswordExpires = nil
	u.UpdatedAt = at
	return nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id, hash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetPasswordToken = &hash
	u.ResetPasswordExpires = &expires
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// fakeOccurrenceRepo stores occurrences and populates references from the
// student and user fakes, mirroring the stores' LEFT JOIN / $lookup.
type fakeOccurrenceRepo struct {
	items    map[string]*models.Occurrence
	order    []string
	seq      int
	students *fakeStudentRepo
	users    *fakeUserRepo

	createErr error
	statsErr  error
	lastPatch models.OccurrencePatch
}

func newFakeOccurrenceRepo(students *fakeStudentRepo, users *fakeUserRepo) *fakeOccurrenceRepo {
	return &fakeOccurrenceRepo{items: map[string]*models.Occurrence{}, students: students, users: users}
}

func (r *fakeOccurrenceRepo) view(o models.Occurrence) dto.OccurrenceView {
	v := dto.OccurrenceView{Occurrence: o}
	if o.StudentID != nil && r.students != nil {
		if s, ok := r.students.students[*o.StudentID]; ok {
			v.Student = &dto.StudentRef{ID: s.ID, Name: s.Name, Class: s.Class, EnrollmentNumber: s.EnrollmentNumber}
		}
	}
	if r.users != nil {
		if u, ok := r.users.users[o.ReportedBy]; ok {
			v.ReportedBy = &dto.UserRef{ID: u.ID, Name: u.Name}
		}
	}
	return v
}

func (r *fakeOccurrenceRepo) List(_ context.Context, f models.OccurrenceFilter) ([]dto.OccurrenceView, int64, error) {
	var out []dto.OccurrenceView
	for i := len(r.order) - 1; i >= 0; i-- {
		o := r.items[r.order[i]]
		if f.Type != "" && o.Type != f.Type {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, r.view(*o))
	}
	total := int64(len(out))
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *fakeOccurrenceRepo) FindByID(_ context.Context, id string) (*dto.OccurrenceView, error) {
	o, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v := r.view(*o)
	return &v, nil
}

func (r *fakeOccurrenceRepo) Create(_ context.Context, o *models.Occurrence) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	o.ID = fmt.Sprintf("o%d", r.seq)
	o.CreatedAt = time.Now()
	c := *o
	r.items[o.ID] = &c
	r.order = append(r.order, o.ID)
	return nil
}

func (r *fakeOccurrenceRepo) Update(_ context.Context, id string, p models.OccurrencePatch) error {
	o, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.lastPatch = p
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.Severity != nil {
		o.Severity = *p.Severity
	}
	if p.Conclusao != nil {
		o.Conclusao = *p.Conclusao
	}
	if p.Acoes != nil {
		o.Acoes = *p.Acoes
	}
	if p.Location != nil {
		o.Location = *p.Location
	}
	if p.ParentNotified != nil {
		o.ParentNotified = *p.ParentNotified
		o.ParentNotifiedAt = p.ParentNotifiedAt
	}
	return nil
}

func (r *fakeOccurrenceRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeOccurrenceRepo) CountByStatus(_ context.Context, statuses []models.OccurrenceStatus) (int64, error) {
	if r.statsErr != nil {
		return 0, r.statsErr
	}
	var n int64
	for _, o := range r.items {
		for _, s := range statuses {
			if o.Status == s {
				n++
			}
		}
	}
	return n, nil
}

func (r *fakeOccurrenceRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	var n int64
	for _, o := range r.items {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeOccurrenceRepo) CountByType(_ context.Context, limit int) ([]models.TypeCount, error) {
	counts := map[string]int64{}
	for _, id := range r.order {
		counts[r.items[id].Type]++
	}
	var out []models.TypeCount
	for t, c := range counts {
		out = append(out, models.TypeCount{Type: t, Count: c})
	}
	return RankTypes(out, limit), nil
}

func (r *fakeOccurrenceRepo) Recent(_ context.Context, limit int) ([]dto.RecentOccurrence, error) {
	var out []dto.RecentOccurrence
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		o := r.items[r.order[i]]
		rec := dto.RecentOccurrence{ID: o.ID, Type: o.Type, Severity: o.Severity, CreatedAt: o.CreatedAt}
		if v := r.view(*o); v.Student != nil {
			rec.Student = &dto.StudentBrief{Name: v.Student.Name, Class: v.Student.Class}
		}
		out = append(out, rec)
	}
	return out, nil
}

// fakeCache is an in-memory CacheRepository.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]interface{}{}}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if stats, ok := v.(*dto.DashboardStats); ok {
		*(dest.(*dto.DashboardStats)) = *stats
	}
	return nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	c.deleted = append(c.deleted, pattern)
	return n, nil
}

type recordingMailer struct {
	mu    sync.Mutex
	sent  []string
	links []string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, _ string, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	m.links = append(m.links, link)
	return nil
}
