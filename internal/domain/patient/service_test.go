package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	items map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.Active = true
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if p, ok := m.items[id]; ok {
		p.Active = false
	}
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.items {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Search(_ context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	return m.List(context.Background(), limit, offset)
}

func TestCreate_RequiresName(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.Create(context.Background(), &Patient{FirstName: "Asha"})
	if err == nil {
		t.Fatal("expected error for missing last name")
	}
}

func TestCreate_And_Get(t *testing.T) {
	svc := NewService(newMockRepo())

	p := &Patient{FirstName: "Asha", LastName: "Nair"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LastName != "Nair" {
		t.Errorf("expected Nair, got %s", got.LastName)
	}
	if !got.Active {
		t.Error("expected new patient to be active")
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Get(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := &Patient{FirstName: "Asha", LastName: "Nair"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Deactivate(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.items[p.ID].Active {
		t.Error("expected patient deactivated")
	}
}
