package router

import "sort"

// Module mounts a group of actions.
type Module interface{ Mount(EZ) }

// Modules may implement this to control mount order (lower first, default 100).
type prioritizer interface{ Priority() int }

// MountAll mounts mods in priority order.
func MountAll(e EZ, mods ...Module) {
	mods = append([]Module(nil), mods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.Mount(e)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
