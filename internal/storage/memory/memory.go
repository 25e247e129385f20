// Package memory is an in-process implementation of storage.Storage.
//
// It keeps documents in a map guarded by a mutex and reproduces the
// document-store semantics the handlers rely on: generated ObjectIDs,
// insertion order on list, and a modified count of zero for updates that
// change nothing. It is meant for local development and tests.
package memory

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// Memory is the in-memory store.
type Memory struct {
	mu    sync.RWMutex
	docs  map[primitive.ObjectID]types.StudentRecord
	order []primitive.ObjectID
}

// New returns an empty store.
func New() *Memory {
	return &Memory{docs: make(map[primitive.ObjectID]types.StudentRecord)}
}

// Put stores rec under its own ID as-is, replacing any existing document.
// It bypasses validation, so it can hold incomplete documents.
func (m *Memory) Put(rec types.StudentRecord) error {
	id, err := storage.ParseID(rec.ID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		m.order = append(m.order, id)
	}
	m.docs[id] = clone(rec)
	return nil
}

func (m *Memory) CreateStudent(_ context.Context, student types.Student) (string, error) {
	id := storage.NewID()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[id] = types.RecordFromStudent(id.Hex(), student)
	m.order = append(m.order, id)
	return id.Hex(), nil
}

func (m *Memory) GetStudents(_ context.Context, filter types.StudentFilter) ([]types.StudentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]types.StudentRecord, 0, len(m.order))
	for _, id := range m.order {
		rec := m.docs[id]
		if matches(rec, filter) {
			records = append(records, clone(rec))
		}
	}
	return records, nil
}

func (m *Memory) GetStudentByID(_ context.Context, id primitive.ObjectID) (types.StudentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.docs[id]
	if !ok {
		return types.StudentRecord{}, storage.ErrNotFound
	}
	return clone(rec), nil
}

func (m *Memory) UpdateStudentByID(_ context.Context, id primitive.ObjectID, update types.StudentUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.docs[id]
	if !ok {
		return 0, nil
	}

	changed := false
	if name, ok := update.Name.Get(); ok && (rec.Name == nil || *rec.Name != name) {
		rec.Name = &name
		changed = true
	}
	if age, ok := update.Age.Get(); ok && (rec.Age == nil || *rec.Age != age) {
		rec.Age = &age
		changed = true
	}
	if addr, ok := update.Address.Get(); ok && !sameAddress(rec.Address, addr) {
		city, country := addr.City, addr.Country
		rec.Address = &types.AddressRecord{City: &city, Country: &country}
		changed = true
	}

	if !changed {
		return 0, nil
	}
	m.docs[id] = rec
	return 1, nil
}

func (m *Memory) DeleteStudentByID(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return 0, nil
	}
	delete(m.docs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close(context.Context) error { return nil }

func matches(rec types.StudentRecord, filter types.StudentFilter) bool {
	if filter.Country != "" {
		if rec.Address == nil || rec.Address.Country == nil || *rec.Address.Country != filter.Country {
			return false
		}
	}
	if filter.MinAge != nil {
		if rec.Age == nil || *rec.Age < *filter.MinAge {
			return false
		}
	}
	return true
}

func sameAddress(stored *types.AddressRecord, addr types.Address) bool {
	return stored != nil &&
		stored.City != nil && *stored.City == addr.City &&
		stored.Country != nil && *stored.Country == addr.Country
}

func clone(rec types.StudentRecord) types.StudentRecord {
	out := types.StudentRecord{ID: rec.ID}
	if rec.Name != nil {
		v := *rec.Name
		out.Name = &v
	}
	if rec.Age != nil {
		v := *rec.Age
		out.Age = &v
	}
	if rec.Address != nil {
		out.Address = &types.AddressRecord{}
		if rec.Address.City != nil {
			v := *rec.Address.City
			out.Address.City = &v
		}
		if rec.Address.Country != nil {
			v := *rec.Address.Country
			out.Address.Country = &v
		}
	}
	return out
}
