package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/repository"
)

var errInjected = errors.New("injected storage failure")

var wib = time.FixedZone("WIB", 7*60*60)

type memState struct {
	threads  map[int64]domain.Thread
	entries  map[int64]domain.Entry
	contacts []domain.Contact
	history  []domain.History
	notes    []domain.Note
	users    map[int64]domain.User
	nextID   int64
}

func (s *memState) clone() *memState {
	out := &memState{
		threads:  make(map[int64]domain.Thread, len(s.threads)),
		entries:  make(map[int64]domain.Entry, len(s.entries)),
		contacts: slices.Clone(s.contacts),
		history:  slices.Clone(s.history),
		notes:    slices.Clone(s.notes),
		users:    make(map[int64]domain.User, len(s.users)),
		nextID:   s.nextID,
	}
	for k, v := range s.threads {
		out.threads[k] = v
	}
	for k, v := range s.entries {
		out.entries[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	return out
}

// memStore is an in-memory repository.Store. Transactions snapshot the whole
// state and restore it when fn fails.
type memStore struct {
	state *memState
	now   time.Time

	// failEntryWriteAt fails the n-th entry write counted from the last reset.
	failEntryWriteAt int
	entryWrites      int
	numberingLocks   int
	commits          int
	rollbacks        int
}

func newMemStore(now time.Time) *memStore {
	return &memStore{
		state: &memState{
			threads: map[int64]domain.Thread{},
			entries: map[int64]domain.Entry{},
			users:   map[int64]domain.User{},
		},
		now: now,
	}
}

func (s *memStore) Repos() repository.Repositories {
	return repository.Repositories{
		Threads:  memThreads{s},
		Entries:  memEntries{s},
		Contacts: memContacts{s},
		History:  memHistory{s},
		Notes:    memNotes{s},
		Users:    memUsers{s},
	}
}

func (s *memStore) WithinTx(_ context.Context, fn func(repository.Repositories) error) error {
	snapshot := s.state.clone()
	if err := fn(s.Repos()); err != nil {
		s.state = snapshot
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *memStore) id() int64 {
	s.state.nextID++
	return s.state.nextID
}

func (s *memStore) entryWrite() error {
	s.entryWrites++
	if s.failEntryWriteAt > 0 && s.entryWrites == s.failEntryWriteAt {
		return errInjected
	}
	return nil
}

func (s *memStore) stamp(threadID int64) {
	if t, ok := s.state.threads[threadID]; ok {
		t.ChangeDate = s.now
		s.state.threads[threadID] = t
	}
}

// failOnEntryWrite arms the failure injection for the n-th entry write from
// now on.
func (s *memStore) failOnEntryWrite(n int) {
	s.entryWrites = 0
	s.failEntryWriteAt = n
}

func (s *memStore) seedThread(t domain.Thread) domain.Thread {
	if t.ID == 0 {
		t.ID = s.id()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now
	}
	if t.ChangeDate.IsZero() {
		t.ChangeDate = t.CreatedAt
	}
	s.state.threads[t.ID] = t
	return t
}

func (s *memStore) seedEntry(e domain.Entry) domain.Entry {
	if e.ID == 0 {
		e.ID = s.id()
	}
	if e.Status == 0 {
		e.Status = domain.EntryStatusOpen
	}
	if e.CreatedTime.IsZero() {
		e.CreatedTime = s.now
	}
	s.state.entries[e.ID] = e
	return e
}

func (s *memStore) seedUser(u domain.User) domain.User {
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.state.users[u.ID] = u
	return u
}

func (s *memStore) thread(id int64) domain.Thread { return s.state.threads[id] }

func (s *memStore) entry(id int64) domain.Entry { return s.state.entries[id] }

func (s *memStore) threadEntries(threadID int64) []domain.Entry {
	var out []domain.Entry
	for _, e := range s.state.entries {
		if e.ThreadID == threadID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedTime.Equal(out[j].CreatedTime) {
			return out[i].CreatedTime.Before(out[j].CreatedTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type memThreads struct{ s *memStore }

func (r memThreads) Create(_ context.Context, thread *domain.Thread) error {
	for _, t := range r.s.state.threads {
		if t.Number == thread.Number {
			return fmt.Errorf("duplicate ticket number %s", thread.Number)
		}
	}
	thread.ID = r.s.id()
	thread.CreatedAt = r.s.now
	thread.ChangeDate = r.s.now
	r.s.state.threads[thread.ID] = *thread
	return nil
}

func (r memThreads) GetByID(_ context.Context, id int64) (*domain.Thread, error) {
	t, ok := r.s.state.threads[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r memThreads) List(_ context.Context, filter repository.ThreadFilter) ([]domain.Thread, error) {
	out := []domain.Thread{}
	for _, t := range r.s.state.threads {
		if r.matches(t, filter) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memThreads) matches(t domain.Thread, f repository.ThreadFilter) bool {
	if f.IDs != nil && !slices.Contains(f.IDs, t.ID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if f.OpenOnly && !t.Status.IsOpen() {
		return false
	}
	if f.QCAssigned != nil && (t.QCAssigneeID != nil) != *f.QCAssigned {
		return false
	}
	if f.QCAssigneeID != nil && (t.QCAssigneeID == nil || *t.QCAssigneeID != *f.QCAssigneeID) {
		return false
	}
	if len(f.Labels) > 0 && !slices.Contains(f.Labels, t.LabelCase) {
		return false
	}
	if f.Entry != nil {
		found := false
		for _, e := range r.s.threadEntries(t.ID) {
			if f.Entry.Status != nil && e.Status != *f.Entry.Status {
				continue
			}
			if f.Entry.InputBy != nil && (e.InputBy == nil || *e.InputBy != *f.Entry.InputBy) {
				continue
			}
			if f.Entry.SLAZero && e.SLA != 0 {
				continue
			}
			if f.Entry.SLAMax > 0 && (e.SLA < f.Entry.SLAMin || e.SLA > f.Entry.SLAMax) {
				continue
			}
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

// SearchIDs deliberately returns a thread once per matching row, like the
// UNION ALL a naive query would produce.
func (r memThreads) SearchIDs(_ context.Context, term string) ([]int64, error) {
	term = strings.ToLower(term)
	var ids []int64
	for _, t := range r.s.state.threads {
		if strings.Contains(strings.ToLower(t.Number), term) {
			ids = append(ids, t.ID)
		}
	}
	for _, e := range r.s.state.entries {
		if strings.Contains(strings.ToLower(e.CustomerName), term) {
			ids = append(ids, e.ThreadID)
		}
	}
	return ids, nil
}

func (r memThreads) update(id int64, fn func(*domain.Thread)) error {
	t, ok := r.s.state.threads[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(&t)
	r.s.state.threads[id] = t
	return nil
}

func (r memThreads) SetStatus(_ context.Context, id int64, status domain.ThreadStatus, closedAt *time.Time) error {
	return r.update(id, func(t *domain.Thread) {
		t.Status = status
		if closedAt != nil {
			at := *closedAt
			t.ClosedAt = &at
		}
	})
}

func (r memThreads) SetLabel(_ context.Context, id int64, label domain.LabelCase) error {
	return r.update(id, func(t *domain.Thread) { t.LabelCase = label })
}

func (r memThreads) SetQCAssignee(_ context.Context, id int64, qcID int64) error {
	return r.update(id, func(t *domain.Thread) { t.QCAssigneeID = &qcID })
}

func (r memThreads) LockNumbering(context.Context) error {
	r.s.numberingLocks++
	return nil
}

func (r memThreads) LastNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, t := range r.s.state.threads {
		if !strings.HasPrefix(t.Number, prefix) {
			continue
		}
		if len(t.Number) > len(last) || (len(t.Number) == len(last) && t.Number > last) {
			last = t.Number
		}
	}
	return last, nil
}

type memEntries struct{ s *memStore }

func (r memEntries) Create(_ context.Context, entry *domain.Entry) error {
	if err := r.s.entryWrite(); err != nil {
		return err
	}
	if _, ok := r.s.state.threads[entry.ThreadID]; !ok {
		return fmt.Errorf("thread %d does not exist", entry.ThreadID)
	}
	entry.ID = r.s.id()
	r.s.state.entries[entry.ID] = *entry
	r.s.stamp(entry.ThreadID)
	return nil
}

func (r memEntries) Update(_ context.Context, entry *domain.Entry) error {
	if err := r.s.entryWrite(); err != nil {
		return err
	}
	if _, ok := r.s.state.entries[entry.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.state.entries[entry.ID] = *entry
	r.s.stamp(entry.ThreadID)
	return nil
}

func (r memEntries) GetByID(_ context.Context, id int64) (*domain.Entry, error) {
	e, ok := r.s.state.entries[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (r memEntries) ListByThread(_ context.Context, threadID int64) ([]domain.Entry, error) {
	out := r.s.threadEntries(threadID)
	if out == nil {
		out = []domain.Entry{}
	}
	return out, nil
}

func (r memEntries) ListByThreads(_ context.Context, threadIDs []int64) (map[int64][]domain.Entry, error) {
	out := make(map[int64][]domain.Entry, len(threadIDs))
	for _, id := range threadIDs {
		if entries := r.s.threadEntries(id); len(entries) > 0 {
			out[id] = entries
		}
	}
	return out, nil
}

func (r memEntries) ListStages(context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	out := []string{}
	for _, e := range r.s.state.entries {
		if e.Stage == "" {
			continue
		}
		if _, ok := seen[e.Stage]; !ok {
			seen[e.Stage] = struct{}{}
			out = append(out, e.Stage)
		}
	}
	sort.Strings(out)
	return out, nil
}

// bulk applies fn to every entry of threadID as one statement.
func (r memEntries) bulk(threadID int64, fn func(*domain.Entry)) (int64, error) {
	if err := r.s.entryWrite(); err != nil {
		return 0, err
	}
	var n int64
	for id, e := range r.s.state.entries {
		if e.ThreadID != threadID {
			continue
		}
		fn(&e)
		r.s.state.entries[id] = e
		n++
	}
	if n > 0 {
		r.s.stamp(threadID)
	}
	return n, nil
}

func (r memEntries) SetStatusByThread(_ context.Context, threadID int64, status domain.EntryStatus) (int64, error) {
	return r.bulk(threadID, func(e *domain.Entry) { e.Status = status })
}

func (r memEntries) SetQCFeedbackByThread(_ context.Context, threadID int64, description, files string) (int64, error) {
	return r.bulk(threadID, func(e *domain.Entry) {
		e.QCDescription = description
		e.QCFiles = files
	})
}

func (r memEntries) SetComplaintDetailsByThread(_ context.Context, threadID int64, d repository.ComplaintDetails) (int64, error) {
	return r.bulk(threadID, func(e *domain.Entry) {
		e.ComplaintType = d.ComplaintType
		e.ComplaintDetail = d.ComplaintDetail
		e.Chronology = d.Chronology
		e.ChatEvidence = d.ChatEvidence
	})
}

func (r memEntries) DecaySLA(context.Context) (int64, error) {
	if err := r.s.entryWrite(); err != nil {
		return 0, err
	}
	var n int64
	for id, e := range r.s.state.entries {
		if e.SLA > 0 && e.Status != domain.EntryStatusClosed {
			e.SLA--
			r.s.state.entries[id] = e
			r.s.stamp(e.ThreadID)
			n++
		}
	}
	return n, nil
}

func (r memEntries) BackfillBlankFields(context.Context) (repository.BackfillResult, error) {
	if err := r.s.entryWrite(); err != nil {
		return repository.BackfillResult{}, err
	}
	blank := func(v string) bool { return v == "-" || v == "None" }
	var n int64
	for id, e := range r.s.state.entries {
		if !blank(e.AgencyName) && !blank(e.BucketName) {
			continue
		}
		if blank(e.AgencyName) {
			e.AgencyName = ""
		}
		if blank(e.BucketName) {
			e.BucketName = ""
		}
		r.s.state.entries[id] = e
		r.s.stamp(e.ThreadID)
		n++
	}
	return repository.BackfillResult{Entries: n}, nil
}

type memContacts struct{ s *memStore }

func (r memContacts) Create(_ context.Context, contact *domain.Contact) error {
	contact.ID = r.s.id()
	r.s.state.contacts = append(r.s.state.contacts, *contact)
	return nil
}

func (r memContacts) ListByEntries(_ context.Context, entryIDs []int64) (map[int64][]domain.Contact, error) {
	out := map[int64][]domain.Contact{}
	for _, c := range r.s.state.contacts {
		if slices.Contains(entryIDs, c.EntryID) {
			out[c.EntryID] = append(out[c.EntryID], c)
		}
	}
	return out, nil
}

type memHistory struct{ s *memStore }

func (r memHistory) Create(_ context.Context, h *domain.History) error {
	h.ID = r.s.id()
	r.s.state.history = append(r.s.state.history, *h)
	return nil
}

func (r memHistory) List(_ context.Context, limit, offset int) ([]domain.History, error) {
	rows := slices.Clone(r.s.state.history)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	if offset >= len(rows) {
		return []domain.History{}, nil
	}
	end := min(offset+limit, len(rows))
	return rows[offset:end], nil
}

func (r memHistory) Count(context.Context) (int, error) {
	return len(r.s.state.history), nil
}

type memNotes struct{ s *memStore }

func (r memNotes) Create(_ context.Context, n *domain.Note) error {
	n.ID = r.s.id()
	r.s.state.notes = append(r.s.state.notes, *n)
	return nil
}

func (r memNotes) ListByThread(_ context.Context, threadID int64) ([]domain.Note, error) {
	out := []domain.Note{}
	for _, n := range r.s.state.notes {
		if n.ThreadID == threadID {
			out = append(out, n)
		}
	}
	return out, nil
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.s.state.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("duplicate user %s", user.Username)
		}
	}
	user.ID = r.s.id()
	r.s.state.users[user.ID] = *user
	return nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.s.state.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r memUsers) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	for _, u := range r.s.state.users {
		if u.Username == login || u.Email == login {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, u := range r.s.state.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) ListByRoles(_ context.Context, roles ...domain.Role) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range r.s.state.users {
		if slices.Contains(roles, u.Role) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.state.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.state.users, id)
	return nil
}
