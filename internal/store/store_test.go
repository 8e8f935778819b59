package store

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"salao/internal/catalog"
	"salao/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := zerolog.New(io.Discard)
	s, err := New(filepath.Join(t.TempDir(), "agendamentos.json"), catalog.Default(), &logger)
	require.NoError(t, err)
	return s
}

func TestCreate_Scenario(t *testing.T) {
	s := newTestStore(t)

	// First booking succeeds with a catalog snapshot.
	appt, err := s.Create("Ana", "11122233344", "Corte Feminino", "2025-03-10", "09:00")
	require.NoError(t, err)
	assert.Equal(t, 1, appt.ID)
	assert.Equal(t, models.StatusScheduled, appt.Status)
	assert.Equal(t, 50.00, appt.Price)
	assert.Equal(t, 60, appt.DurationMinutes)

	// Same slot, different client: conflict, no mutation.
	_, err = s.Create("Bia", "22233344455", "Manicure", "2025-03-10", "09:00")
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, 1, s.Count())

	// Soft-delete frees the slot.
	changed, err := s.Remove(1)
	require.NoError(t, err)
	assert.True(t, changed)

	third, err := s.Create("Bia", "22233344455", "Manicure", "2025-03-10", "09:00")
	require.NoError(t, err)
	assert.NotEqual(t, 1, third.ID, "ids are never reused")
	assert.Equal(t, 2, third.ID)
}

func TestCreate_UnknownServiceFallback(t *testing.T) {
	s := newTestStore(t)

	appt, err := s.Create("Ana", "11122233344", "Barba", "2025-03-10", "09:00")
	require.NoError(t, err)
	assert.Equal(t, catalog.FallbackPrice, appt.Price)
	assert.Equal(t, catalog.FallbackDurationMinutes, appt.DurationMinutes)
	assert.Equal(t, "Barba", appt.ServiceName)
}

func TestCreate_Validation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name       string
		clientName string
		date       string
		timeSlot   string
	}{
		{"empty client name", "", "2025-03-10", "09:00"},
		{"empty date", "Ana", "", "09:00"},
		{"empty time slot", "Ana", "2025-03-10", ""},
		{"placeholder time slot", "Ana", "2025-03-10", catalog.PlaceholderSlot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(tt.clientName, "11122233344", "Escova", tt.date, tt.timeSlot)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, s.Count())
}

func TestNoDoubleBooking(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create("Ana", "11122233344", "Escova", "2025-03-10", "10:00")
	require.NoError(t, err)

	// Completing the appointment does not free the slot.
	changed, err := s.MarkCompleted(1)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = s.Create("Bia", "22233344455", "Escova", "2025-03-10", "10:00")
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Different slot or date is fine.
	_, err = s.Create("Bia", "22233344455", "Escova", "2025-03-10", "10:30")
	assert.NoError(t, err)
	_, err = s.Create("Clara", "33344455566", "Escova", "2025-03-11", "10:00")
	assert.NoError(t, err)

	// No two active appointments ever share a slot.
	seen := make(map[[2]string]int)
	for _, a := range s.ListActive() {
		seen[[2]string{a.Date, a.TimeSlot}]++
	}
	for slot, n := range seen {
		assert.Equal(t, 1, n, "slot %v is double booked", slot)
	}
}

func TestTransitions_Idempotent(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create("Ana", "11122233344", "Escova", "2025-03-10", "10:00")
	require.NoError(t, err)
	_, err = s.Create("Bia", "22233344455", "Escova", "2025-03-10", "11:00")
	require.NoError(t, err)

	changed, err := s.MarkCompleted(1)
	require.NoError(t, err)
	assert.True(t, changed)

	// Second completion is a signaled no-op.
	changed, err = s.MarkCompleted(1)
	require.NoError(t, err)
	assert.False(t, changed)

	// Completed is terminal for removal too.
	changed, err = s.Remove(1)
	require.NoError(t, err)
	assert.False(t, changed)
	all := s.All()
	assert.Equal(t, models.StatusCompleted, all[0].Status)

	changed, err = s.Remove(2)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Remove(2)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.MarkCompleted(2)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTransitions_UnknownID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create("Ana", "11122233344", "Escova", "2025-03-10", "10:00")
	require.NoError(t, err)

	changed, err := s.MarkCompleted(999)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.Remove(999)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, 1, s.Count())
	assert.Equal(t, models.StatusScheduled, s.All()[0].Status)
}

func TestPersistence_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agendamentos.json")
	logger := zerolog.New(io.Discard)

	s, err := New(path, catalog.Default(), &logger)
	require.NoError(t, err)

	_, err = s.Create("Ana", "11122233344", "Corte Feminino", "2025-03-10", "09:00")
	require.NoError(t, err)
	_, err = s.Create("Bia", "22233344455", "Manicure", "2025-03-11", "14:00")
	require.NoError(t, err)
	_, err = s.Create("Clara", "33344455566", "Pedicure", "2025-03-10", "10:00")
	require.NoError(t, err)

	_, err = s.MarkCompleted(2)
	require.NoError(t, err)
	_, err = s.Remove(3)
	require.NoError(t, err)

	// A fresh store on the same file reproduces the collection exactly,
	// removed records included, in the same order.
	reloaded, err := New(path, catalog.Default(), &logger)
	require.NoError(t, err)
	assert.Equal(t, s.All(), reloaded.All())

	// The id counter carries over: next id continues after the history.
	appt, err := reloaded.Create("Duda", "44455566677", "Escova", "2025-03-12", "09:00")
	require.NoError(t, err)
	assert.Equal(t, 4, appt.ID)
}

func TestLoad_MissingFile(t *testing.T) {
	logger := zerolog.New(io.Discard)
	s, err := New(filepath.Join(t.TempDir(), "nope", "agendamentos.json"), catalog.Default(), &logger)
	require.NoError(t, err)
	assert.Empty(t, s.All())
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agendamentos.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	logger := zerolog.New(io.Discard)
	s, err := New(path, catalog.Default(), &logger)
	require.NoError(t, err, "corrupt data file must not prevent startup")
	assert.Empty(t, s.All())

	// The store is usable and persists over the corrupt file.
	_, err = s.Create("Ana", "11122233344", "Escova", "2025-03-10", "09:00")
	require.NoError(t, err)

	reloaded, err := New(path, catalog.Default(), &logger)
	require.NoError(t, err)
	assert.Len(t, reloaded.All(), 1)
}

func TestLoad_UnknownStatusKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agendamentos.json")
	raw := `[{"id":1,"clientName":"Ana","clientPhone":"11122233344",` +
		`"serviceName":"Escova","price":40,"durationMinutes":45,` +
		`"date":"2025-03-10","timeSlot":"09:00","status":"Pendente"}]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	logger := zerolog.New(io.Discard)
	s, err := New(path, catalog.Default(), &logger)
	require.NoError(t, err)

	// The record survives with its status untouched and still holds the slot.
	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, models.Status("Pendente"), all[0].Status)
	assert.False(t, s.IsAvailable("2025-03-10", "09:00"))

	// An unknown status has no outgoing transitions.
	changed, err := s.MarkCompleted(1)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestListActive_ExcludesRemoved(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create("Ana", "11122233344", "Escova", "2025-03-10", "09:00")
	require.NoError(t, err)
	_, err = s.Create("Bia", "22233344455", "Manicure", "2025-03-10", "10:00")
	require.NoError(t, err)

	_, err = s.Remove(1)
	require.NoError(t, err)

	active := s.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, 2, active[0].ID)

	// History still holds both.
	assert.Len(t, s.All(), 2)
}

func TestListByDay(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create("Ana", "11122233344", "Escova", "2025-03-10", "09:00")
	require.NoError(t, err)
	_, err = s.Create("Bia", "22233344455", "Manicure", "2025-03-11", "10:00")
	require.NoError(t, err)
	_, err = s.Create("Clara", "33344455566", "Pedicure", "2025-03-10", "11:00")
	require.NoError(t, err)
	_, err = s.Remove(3)
	require.NoError(t, err)

	day := s.ListByDay("2025-03-10")
	require.Len(t, day, 1)
	assert.Equal(t, "Ana", day[0].ClientName)

	assert.Empty(t, s.ListByDay("2025-03-12"))
}

func TestListActiveGroupedByDate(t *testing.T) {
	s := newTestStore(t)

	// Inserted out of date and slot order on purpose.
	_, err := s.Create("Ana", "11122233344", "Escova", "2025-03-11", "15:00")
	require.NoError(t, err)
	_, err = s.Create("Bia", "22233344455", "Manicure", "2025-03-10", "14:00")
	require.NoError(t, err)
	_, err = s.Create("Clara", "33344455566", "Pedicure", "2025-03-11", "08:30")
	require.NoError(t, err)
	_, err = s.Create("Duda", "44455566677", "Coloração", "2025-03-10", "09:00")
	require.NoError(t, err)

	// Removed records vanish from the grouped view.
	_, err = s.Remove(2)
	require.NoError(t, err)

	dates, byDate := s.ListActiveGroupedByDate()
	require.Equal(t, []string{"2025-03-10", "2025-03-11"}, dates)

	day10 := byDate["2025-03-10"]
	require.Len(t, day10, 1)
	assert.Equal(t, "Duda", day10[0].ClientName)

	day11 := byDate["2025-03-11"]
	require.Len(t, day11, 2)
	assert.Equal(t, "08:30", day11[0].TimeSlot)
	assert.Equal(t, "15:00", day11[1].TimeSlot)
}

func TestIsAvailable(t *testing.T) {
	s := newTestStore(t)

	assert.True(t, s.IsAvailable("2025-03-10", "09:00"))

	_, err := s.Create("Ana", "11122233344", "Escova", "2025-03-10", "09:00")
	require.NoError(t, err)

	assert.False(t, s.IsAvailable("2025-03-10", "09:00"))
	assert.True(t, s.IsAvailable("2025-03-10", "09:30"))
	assert.True(t, s.IsAvailable("2025-03-11", "09:00"))

	_, err = s.Remove(1)
	require.NoError(t, err)
	assert.True(t, s.IsAvailable("2025-03-10", "09:00"))
}

func TestCreate_SaveFailureSurfaced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agendamentos.json")
	logger := zerolog.New(io.Discard)

	s, err := New(path, catalog.Default(), &logger)
	require.NoError(t, err)

	// A directory at the data path makes the rename fail.
	require.NoError(t, os.Mkdir(path, 0o755))

	appt, err := s.Create("Ana", "11122233344", "Escova", "2025-03-10", "09:00")
	assert.Error(t, err, "a failed save must be surfaced to the caller")
	require.NotNil(t, appt, "the appointment is still returned")
	assert.Equal(t, 1, appt.ID)

	// The in-memory mutation is kept, not rolled back.
	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Ana", all[0].ClientName)
	assert.False(t, s.IsAvailable("2025-03-10", "09:00"))
}

func TestTransition_SaveFailureSurfaced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agendamentos.json")
	logger := zerolog.New(io.Discard)

	s, err := New(path, catalog.Default(), &logger)
	require.NoError(t, err)

	_, err = s.Create("Ana", "11122233344", "Escova", "2025-03-10", "09:00")
	require.NoError(t, err)
	_, err = s.Create("Bia", "22233344455", "Manicure", "2025-03-10", "10:00")
	require.NoError(t, err)

	// Break persistence after the successful creates.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	changed, err := s.MarkCompleted(1)
	assert.True(t, changed, "the transition itself happened")
	assert.Error(t, err)
	assert.Equal(t, models.StatusCompleted, s.All()[0].Status)

	changed, err = s.Remove(2)
	assert.True(t, changed)
	assert.Error(t, err)
	assert.Equal(t, models.StatusRemoved, s.All()[1].Status)

	// No-op paths stay silent: nothing to save, so no save error either.
	changed, err = s.MarkCompleted(1)
	assert.False(t, changed)
	assert.NoError(t, err)
}

func TestCreate_PersistBeforeReturn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agendamentos.json")
	logger := zerolog.New(io.Discard)

	s, err := New(path, catalog.Default(), &logger)
	require.NoError(t, err)

	_, err = s.Create("Ana", "11122233344", "Escova", "2025-03-10", "09:00")
	require.NoError(t, err)

	// The booking is on disk the moment Create returns.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"clientName": "Ana"`)
	assert.Contains(t, string(data), `"status": "Agendado"`)
}
