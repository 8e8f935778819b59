// Package catalog holds the static reference data of the salon: offered
// services and the bookable time slots of a day. Loaded once at startup,
// never mutated at runtime.
package catalog

// ServiceDefinition describes one offered service. Name is the unique key.
type ServiceDefinition struct {
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
}

// Fallback values used when an appointment references a service name that is
// not in the catalog. Unknown services are tolerated rather than rejected.
const (
	FallbackPrice           = 0.0
	FallbackDurationMinutes = 60
)

// PlaceholderSlot is the blank "no selection" entry of the slot list.
// Callers must treat it as invalid input when chosen.
const PlaceholderSlot = "  "

// Catalog is an immutable set of services and time slots.
type Catalog struct {
	services []ServiceDefinition
	byName   map[string]ServiceDefinition
	slots    []string
}

// New builds a catalog from the given services and slot labels.
func New(services []ServiceDefinition, slots []string) *Catalog {
	byName := make(map[string]ServiceDefinition, len(services))
	for _, s := range services {
		byName[s.Name] = s
	}
	return &Catalog{
		services: services,
		byName:   byName,
		slots:    slots,
	}
}

// Default returns the catalog the salon ships with.
func Default() *Catalog {
	services := []ServiceDefinition{
		{Name: "Corte Feminino", Price: 50.00, DurationMinutes: 60},
		{Name: "Corte Masculino", Price: 30.00, DurationMinutes: 45},
		{Name: "Escova", Price: 40.00, DurationMinutes: 45},
		{Name: "Coloração", Price: 120.00, DurationMinutes: 120},
		{Name: "Hidratação", Price: 60.00, DurationMinutes: 60},
		{Name: "Progressiva", Price: 200.00, DurationMinutes: 180},
		{Name: "Manicure", Price: 25.00, DurationMinutes: 30},
		{Name: "Pedicure", Price: 30.00, DurationMinutes: 45},
	}
	slots := []string{
		PlaceholderSlot,
		"08:00", "08:30", "09:00", "09:30", "10:00", "10:30",
		"11:00", "11:30", "12:00", "12:30", "13:00", "13:30",
		"14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
		"17:00", "17:30", "18:00", "18:30",
	}
	return New(services, slots)
}

// FindService looks a service up by exact name.
func (c *Catalog) FindService(name string) (ServiceDefinition, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// Services returns the service list in insertion order.
func (c *Catalog) Services() []ServiceDefinition {
	out := make([]ServiceDefinition, len(c.services))
	copy(out, c.services)
	return out
}

// TimeSlots returns all slot labels for a day, placeholder included.
func (c *Catalog) TimeSlots() []string {
	out := make([]string, len(c.slots))
	copy(out, c.slots)
	return out
}

// BookableSlots returns the slot labels without the placeholder entry.
func (c *Catalog) BookableSlots() []string {
	out := make([]string, 0, len(c.slots))
	for _, s := range c.slots {
		if s != PlaceholderSlot {
			out = append(out, s)
		}
	}
	return out
}

// IsPlaceholderSlot reports whether the label is the "no selection" entry.
func IsPlaceholderSlot(slot string) bool {
	return slot == PlaceholderSlot
}
