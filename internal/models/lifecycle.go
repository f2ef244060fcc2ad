package models

// Lifecycle replaces the per-table hidden flag of the previous system.
// Entities are never physically removed; list queries filter on
// LifecycleActive through one place in each repository, direct-by-ID reads
// ignore it so historical submissions and comments keep resolving.
type Lifecycle string

const (
	LifecycleActive Lifecycle = "active"
	LifecycleHidden Lifecycle = "hidden"
)

func (l Lifecycle) String() string {
	return string(l)
}
