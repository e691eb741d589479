package protocol

import "strings"

// DefaultDevices are the soil stations deployed with the first network.
var DefaultDevices = []string{
	"78AF580300000485",
	"78AF580300000506",
	"78AF580300000512",
}

// Registry is the set of device EUIs allowed to submit sensor frames.
type Registry struct {
	devices map[string]struct{}
	order   []string
}

// NewRegistry builds a registry from EUIs. Entries are trimmed and upper-cased;
// blanks and duplicates are dropped.
func NewRegistry(euis ...string) *Registry {
	r := &Registry{devices: make(map[string]struct{}, len(euis))}
	for _, eui := range euis {
		eui = NormalizeEUI(eui)
		if eui == "" {
			continue
		}
		if _, dup := r.devices[eui]; dup {
			continue
		}
		r.devices[eui] = struct{}{}
		r.order = append(r.order, eui)
	}
	return r
}

// Contains reports whether eui is registered. A nil registry contains nothing.
func (r *Registry) Contains(eui string) bool {
	if r == nil {
		return false
	}
	_, ok := r.devices[NormalizeEUI(eui)]
	return ok
}

// Devices returns the registered EUIs in insertion order.
func (r *Registry) Devices() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NormalizeEUI trims and upper-cases a hex EUI.
func NormalizeEUI(eui string) string {
	return strings.ToUpper(strings.TrimSpace(eui))
}
