// Package registry maps canonical resource type identifiers (e.g. "Azure.WebApp")
// to the node kinds the renderers know how to draw.
package registry

import (
	"strings"
)

// Category groups node kinds for coloring and layout priority
type Category int

const (
	CategoryUnknown      Category = iota
	CategoryNetwork               // VNets, subnets, gateways
	CategorySecurity              // Firewalls, NSGs, WAF
	CategoryCompute               // VMs, functions, app service plans
	CategoryLoadBalancer          // Load balancers, application gateways
	CategoryStorage               // Blob, files, disks
	CategoryDatabase              // SQL, Cosmos, Redis
	CategoryDNS                   // DNS zones, Traffic Manager
	CategoryCertificate           // TLS certificates
	CategorySecret                // Key Vault, KMS
	CategoryContainer             // Registries, AKS, container apps
	CategoryCDN                   // CDN, Front Door
	CategoryIdentity              // Active Directory, managed identities
	CategoryMessaging             // Service Bus, Event Hubs, queues
	CategoryAnalytics             // Synapse, Power BI, Data Factory
	CategoryAI                    // Cognitive Services, OpenAI, ML
	CategoryWeb                   // Web apps, static sites, API management
)

var categoryNames = map[Category]string{
	CategoryUnknown:      "unknown",
	CategoryNetwork:      "network",
	CategorySecurity:     "security",
	CategoryCompute:      "compute",
	CategoryLoadBalancer: "load_balancer",
	CategoryStorage:      "storage",
	CategoryDatabase:     "database",
	CategoryDNS:          "dns",
	CategoryCertificate:  "certificate",
	CategorySecret:       "secret",
	CategoryContainer:    "container",
	CategoryCDN:          "cdn",
	CategoryIdentity:     "identity",
	CategoryMessaging:    "messaging",
	CategoryAnalytics:    "analytics",
	CategoryAI:           "ai",
	CategoryWeb:          "web",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCategory resolves a category name as written in registry files
func ParseCategory(name string) (Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == name {
			return c, true
		}
	}
	return CategoryUnknown, false
}

// NodeKind is the renderable descriptor for a resource type
type NodeKind struct {
	TypeID   string
	Label    string
	Category Category
}

// DefaultKind is returned for any type identifier the registry does not know
var DefaultKind = NodeKind{TypeID: "Generic.Resource", Label: "Resource", Category: CategoryUnknown}

// Registry is an ordered, read-only table of node kinds. It is safe for
// concurrent use because nothing mutates it after construction.
type Registry struct {
	kinds    []NodeKind
	index    map[string]int
	folded   map[string]int
	fallback NodeKind
}

// New builds a registry from entries. A later entry with the same TypeID
// replaces an earlier one in place.
func New(entries ...NodeKind) *Registry {
	r := &Registry{
		kinds:    make([]NodeKind, 0, len(entries)),
		index:    make(map[string]int, len(entries)),
		folded:   make(map[string]int, len(entries)),
		fallback: DefaultKind,
	}
	for _, k := range entries {
		r.add(k)
	}
	return r
}

func (r *Registry) add(k NodeKind) {
	if k.Label == "" {
		k.Label = labelFromTypeID(k.TypeID)
	}
	if i, ok := r.index[k.TypeID]; ok {
		r.kinds[i] = k
		return
	}
	r.kinds = append(r.kinds, k)
	r.index[k.TypeID] = len(r.kinds) - 1
	r.folded[strings.ToLower(k.TypeID)] = len(r.kinds) - 1
}

// With returns a copy of the registry extended with extra entries
func (r *Registry) With(extra ...NodeKind) *Registry {
	merged := make([]NodeKind, 0, len(r.kinds)+len(extra))
	merged = append(merged, r.kinds...)
	merged = append(merged, extra...)
	return New(merged...)
}

// Lookup resolves a type identifier. It never fails: unknown identifiers
// resolve to DefaultKind.
func (r *Registry) Lookup(typeID string) NodeKind {
	typeID = strings.TrimSpace(typeID)
	if i, ok := r.index[typeID]; ok {
		return r.kinds[i]
	}
	// Models are not consistent about casing ("Azure.SqlDatabase")
	if i, ok := r.folded[strings.ToLower(typeID)]; ok {
		return r.kinds[i]
	}
	return r.fallback
}

// Known reports whether typeID has an explicit entry
func (r *Registry) Known(typeID string) bool {
	typeID = strings.TrimSpace(typeID)
	if _, ok := r.index[typeID]; ok {
		return true
	}
	_, ok := r.folded[strings.ToLower(typeID)]
	return ok
}

// Kinds returns the table in declaration order
func (r *Registry) Kinds() []NodeKind {
	out := make([]NodeKind, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// labelFromTypeID turns "Azure.SQLDatabase" into "SQLDatabase"
func labelFromTypeID(typeID string) string {
	if i := strings.LastIndex(typeID, "."); i >= 0 && i < len(typeID)-1 {
		return typeID[i+1:]
	}
	return typeID
}
