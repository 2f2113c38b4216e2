// Package tag attaches human-readable labels to pipeline objects.
//
// A label is pure metadata: it never changes how an estimator, pipeline or
// dataset behaves, it only flows into the snapshots recorded for it.
// Types opt in by embedding Label, which gives them the Tagger methods.
package tag

import "sync"

// Tagger is implemented by every object that can carry a label.
type Tagger interface {
	Tag() string
	SetTag(label string)
}

// Label stores one object's label. The zero value is an empty label.
// Embed it by value; the enclosing object must not be copied after use.
type Label struct {
	mu    sync.RWMutex
	value string
}

// Tag returns the last assigned label, or "" if none was assigned.
func (l *Label) Tag() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value
}

// SetTag replaces the label. The last write wins.
func (l *Label) SetTag(label string) {
	l.mu.Lock()
	l.value = label
	l.mu.Unlock()
}

// Set labels obj and returns it, so construction and tagging can be chained:
//
//	pca := tag.Set(estimator.NewPCA(), "reducer")
func Set[T Tagger](obj T, label string) T {
	obj.SetTag(label)
	return obj
}

// Of returns obj's label, or "" if obj cannot carry one.
func Of(obj any) string {
	if t, ok := obj.(Tagger); ok {
		return t.Tag()
	}
	return ""
}
