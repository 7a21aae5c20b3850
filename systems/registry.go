package systems

// SystemInfo names a tick phase for the perf panel.
type SystemInfo struct {
	ID   string // Perf phase identifier
	Name string // Display name
}

// SystemRegistry keeps phase display names in one place so the perf panel
// and the perf collector agree.
type SystemRegistry struct {
	byID map[string]SystemInfo
}

// NewSystemRegistry creates a registry holding every tick phase.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{byID: make(map[string]SystemInfo)}
	reg.Register(SystemInfo{ID: "commands", Name: "Commands"})
	reg.Register(SystemInfo{ID: "power", Name: "Power"})
	reg.Register(SystemInfo{ID: "production", Name: "Production"})
	reg.Register(SystemInfo{ID: "transport", Name: "Transport"})
	reg.Register(SystemInfo{ID: "telemetry", Name: "Telemetry"})
	return reg
}

// Register adds or replaces a phase.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.byID[info.ID] = info
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}
