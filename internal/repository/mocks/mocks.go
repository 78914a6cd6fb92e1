package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rpggio/pdmvault/internal/domain/activity"
	"github.com/rpggio/pdmvault/internal/domain/counter"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/lock"
	"github.com/rpggio/pdmvault/internal/domain/machine"
)

// DocumentRepository is a mock for document.Repository.
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Create(ctx context.Context, doc *document.Document) (int64, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *DocumentRepository) Get(ctx context.Context, code string) (*document.Document, error) {
	args := m.Called(ctx, code)
	if doc, ok := args.Get(0).(*document.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Update(ctx context.Context, doc *document.Document) (int64, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *DocumentRepository) UpdateDescription(ctx context.Context, code, description string, at time.Time) (int64, error) {
	args := m.Called(ctx, code, description, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *DocumentRepository) Search(ctx context.Context, filter document.SearchFilter) ([]document.Document, error) {
	args := m.Called(ctx, filter)
	if docs, ok := args.Get(0).([]document.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) SetCheckout(ctx context.Context, code, user, host string, at time.Time) (int64, error) {
	args := m.Called(ctx, code, user, host, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *DocumentRepository) ClearCheckout(ctx context.Context, code, user string, force bool) (int64, error) {
	args := m.Called(ctx, code, user, force)
	return args.Get(0).(int64), args.Error(1)
}

// PropertyRepository is a mock for document.PropertyRepository.
type PropertyRepository struct {
	mock.Mock
}

func (m *PropertyRepository) Set(ctx context.Context, code, name, value string) (int64, error) {
	args := m.Called(ctx, code, name, value)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PropertyRepository) List(ctx context.Context, code string) (map[string]string, error) {
	args := m.Called(ctx, code)
	if props, ok := args.Get(0).(map[string]string); ok {
		return props, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PropertyRepository) DeleteProperty(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

// NoteRepository is a mock for document.NoteRepository.
type NoteRepository struct {
	mock.Mock
}

func (m *NoteRepository) Append(ctx context.Context, note *document.StateNote) (int64, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NoteRepository) List(ctx context.Context, code string, limit int) ([]document.StateNote, error) {
	args := m.Called(ctx, code, limit)
	if notes, ok := args.Get(0).([]document.StateNote); ok {
		return notes, args.Error(1)
	}
	return nil, args.Error(1)
}

// Allocator is a mock for document.Allocator.
type Allocator struct {
	mock.Mock
}

func (m *Allocator) AllocateSequence(ctx context.Context, mmm, gggg, vvv string, docType document.DocType) (int, error) {
	args := m.Called(ctx, mmm, gggg, vvv, docType)
	return args.Int(0), args.Error(1)
}

func (m *Allocator) AllocateVersion(ctx context.Context, mmm, gggg string, docType document.DocType) (int, error) {
	args := m.Called(ctx, mmm, gggg, docType)
	return args.Int(0), args.Error(1)
}

// Workspace is a mock for document.Workspace.
type Workspace struct {
	mock.Mock
}

func (m *Workspace) PrepareWIP(doc *document.Document) error {
	args := m.Called(doc)
	return args.Error(0)
}

// CounterRepository is a mock for counter.Repository.
type CounterRepository struct {
	mock.Mock
}

func (m *CounterRepository) NextSequence(ctx context.Context, key counter.SequenceKey, docType document.DocType) (int, error) {
	args := m.Called(ctx, key, docType)
	return args.Int(0), args.Error(1)
}

func (m *CounterRepository) PeekSequence(ctx context.Context, key counter.SequenceKey, docType document.DocType) (int, error) {
	args := m.Called(ctx, key, docType)
	return args.Int(0), args.Error(1)
}

func (m *CounterRepository) NextVersion(ctx context.Context, key counter.VersionKey) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

// LockRepository is a mock for lock.Repository.
type LockRepository struct {
	mock.Mock
}

func (m *LockRepository) Acquire(ctx context.Context, l lock.Lock, now time.Time, keepLease bool) (lock.AcquireResult, error) {
	args := m.Called(ctx, l, now, keepLease)
	return args.Get(0).(lock.AcquireResult), args.Error(1)
}

func (m *LockRepository) Release(ctx context.Context, code, sessionID string) (bool, error) {
	args := m.Called(ctx, code, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *LockRepository) ReleaseAll(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *LockRepository) ListActive(ctx context.Context, now time.Time) ([]lock.Lock, error) {
	args := m.Called(ctx, now)
	if locks, ok := args.Get(0).([]lock.Lock); ok {
		return locks, args.Error(1)
	}
	return nil, args.Error(1)
}

// Locker is a mock for the lock service as seen by workflow.
type Locker struct {
	mock.Mock
}

func (m *Locker) Acquire(ctx context.Context, req lock.AcquireRequest) (lock.AcquireResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(lock.AcquireResult), args.Error(1)
}

func (m *Locker) Release(ctx context.Context, code, sessionID string) (bool, error) {
	args := m.Called(ctx, code, sessionID)
	return args.Bool(0), args.Error(1)
}

// LockReleaser is a mock for session.LockReleaser.
type LockReleaser struct {
	mock.Mock
}

func (m *LockReleaser) ReleaseAll(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

// MachineRepository is a mock for machine.Repository.
type MachineRepository struct {
	mock.Mock
}

func (m *MachineRepository) CreateMachine(ctx context.Context, mc *machine.Machine) error {
	args := m.Called(ctx, mc)
	return args.Error(0)
}

func (m *MachineRepository) ListMachines(ctx context.Context) ([]machine.Machine, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]machine.Machine); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MachineRepository) DeleteMachine(ctx context.Context, mmm string) error {
	args := m.Called(ctx, mmm)
	return args.Error(0)
}

func (m *MachineRepository) CreateGroup(ctx context.Context, g *machine.Group) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MachineRepository) ListGroups(ctx context.Context, mmm string) ([]machine.Group, error) {
	args := m.Called(ctx, mmm)
	if list, ok := args.Get(0).([]machine.Group); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MachineRepository) DeleteGroup(ctx context.Context, mmm, gggg string) error {
	args := m.Called(ctx, mmm, gggg)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRecorder is a mock for the activity service as seen by session
// and workflow.
type ActivityRecorder struct {
	mock.Mock
}

func (m *ActivityRecorder) Record(ctx context.Context, actor activity.Actor, action, code string, status activity.Status, message string, details map[string]any) error {
	args := m.Called(ctx, actor, action, code, status, message, details)
	return args.Error(0)
}
