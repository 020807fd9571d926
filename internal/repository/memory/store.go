// Package memory is an in-process implementation of repository.Store.
//
// All operations are serialized by one mutex. WithinTx holds that mutex for
// the whole callback and restores a snapshot when the callback fails, so a
// transaction is atomic and isolated. Code running inside WithinTx must use
// the Repositories it is given; calling Store.Repos there deadlocks.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
)

// Store keeps every table in maps guarded by a single mutex.
type Store struct {
	mu   sync.Mutex
	data *dataset
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{data: newDataset(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Repos() repository.Repositories {
	return s.bind(false)
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	snapshot := s.data.clone()
	committed := false
	defer func() {
		if !committed {
			s.data = snapshot
		}
		s.mu.Unlock()
	}()

	if err := fn(s.bind(true)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) bind(inTx bool) repository.Repositories {
	h := handle{s: s, inTx: inTx}
	return repository.Repositories{
		Users:         userRepo{h},
		Profiles:      profileRepo{h},
		Courses:       courseRepo{h},
		Categories:    categoryRepo{h},
		Complaints:    complaintRepo{h},
		Assignments:   assignmentRepo{h},
		Resolutions:   resolutionRepo{h},
		Notifications: notificationRepo{h},
	}
}

type handle struct {
	s    *Store
	inTx bool
}

// lock acquires the store mutex unless the handle already runs inside WithinTx.
func (h handle) lock() func() {
	if h.inTx {
		return func() {}
	}
	h.s.mu.Lock()
	return h.s.mu.Unlock
}

func (h handle) db() *dataset {
	return h.s.data
}

func (h handle) now() time.Time {
	return h.s.now().UTC()
}

// newID allocates an ID and records insertion order for stable listings.
func (h handle) newID() string {
	d := h.db()
	id := uuid.NewString()
	d.seq++
	d.order[id] = d.seq
	return id
}

func (h handle) sortByOrder(ids []string, desc bool) {
	order := h.db().order
	sort.Slice(ids, func(i, j int) bool {
		if desc {
			return order[ids[i]] > order[ids[j]]
		}
		return order[ids[i]] < order[ids[j]]
	})
}

type dataset struct {
	seq            int64
	order          map[string]int64
	users          map[string]domain.User
	students       map[string]domain.StudentProfile // keyed by user ID
	lecturers      map[string]domain.LecturerProfile
	admins         map[string]domain.AdminProfile
	courses        map[string]domain.Course
	categories     map[string]domain.Category
	categoryAdmins map[string][]string
	complaints     map[string]domain.Complaint
	assignments    map[string]domain.ComplaintAssignment
	resolutions    map[string]domain.Resolution
	notifications  map[string]domain.Notification
}

func newDataset() *dataset {
	return &dataset{
		order:          map[string]int64{},
		users:          map[string]domain.User{},
		students:       map[string]domain.StudentProfile{},
		lecturers:      map[string]domain.LecturerProfile{},
		admins:         map[string]domain.AdminProfile{},
		courses:        map[string]domain.Course{},
		categories:     map[string]domain.Category{},
		categoryAdmins: map[string][]string{},
		complaints:     map[string]domain.Complaint{},
		assignments:    map[string]domain.ComplaintAssignment{},
		resolutions:    map[string]domain.Resolution{},
		notifications:  map[string]domain.Notification{},
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		seq:           d.seq,
		order:         maps.Clone(d.order),
		users:         maps.Clone(d.users),
		students:      maps.Clone(d.students),
		lecturers:     maps.Clone(d.lecturers),
		admins:        maps.Clone(d.admins),
		courses:       maps.Clone(d.courses),
		categories:    maps.Clone(d.categories),
		complaints:    maps.Clone(d.complaints),
		assignments:   maps.Clone(d.assignments),
		resolutions:   maps.Clone(d.resolutions),
		notifications: maps.Clone(d.notifications),
	}
	c.categoryAdmins = make(map[string][]string, len(d.categoryAdmins))
	for k, v := range d.categoryAdmins {
		c.categoryAdmins[k] = slices.Clone(v)
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ repository.Store = (*Store)(nil)
