package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
)

// MockStore is a map-backed StateStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]*domain.PlotState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.PlotState),
	}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, state *domain.PlotState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = state.Snapshot()
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.PlotState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Snapshot(), nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewMockStore())
}

func TestPlotSinkFunc(t *testing.T) {
	var got domain.Plot
	sink := ports.PlotSinkFunc(func(ctx context.Context, plot domain.Plot) error {
		got = plot
		return nil
	})

	want := domain.Plot{Domain: domain.DefaultDomain, Series: []domain.Series{{Label: "f(x) = x"}}}
	if err := sink.Replace(context.Background(), want); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(got.Series) != 1 || got.Series[0].Label != "f(x) = x" {
		t.Errorf("sink did not receive the batch, got %+v", got)
	}
	if err := ports.DiscardSink.Replace(context.Background(), want); err != nil {
		t.Errorf("DiscardSink returned %v", err)
	}
}
