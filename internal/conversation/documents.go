package conversation

import (
	"sync"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

// Documents is the ordered set of uploaded documents, keyed by name.
type Documents struct {
	mu   sync.RWMutex
	docs []model.Document
}

// NewDocuments creates an empty document set.
func NewDocuments() *Documents {
	return &Documents{}
}

// Put appends doc. A document already holding the same name is dropped first,
// so names stay unique and the newest upload goes last.
func (d *Documents) Put(doc model.Document) (replaced bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := make([]model.Document, 0, len(d.docs)+1)
	for _, existing := range d.docs {
		if existing.Name == doc.Name {
			replaced = true
			continue
		}
		kept = append(kept, existing)
	}
	d.docs = append(kept, doc)
	return replaced
}

// Remove drops every document named name and returns how many were dropped.
func (d *Documents) Remove(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := make([]model.Document, 0, len(d.docs))
	for _, doc := range d.docs {
		if doc.Name != name {
			kept = append(kept, doc)
		}
	}
	removed := len(d.docs) - len(kept)
	d.docs = kept
	return removed
}

// List returns a copy of the documents in insertion order.
func (d *Documents) List() []model.Document {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]model.Document, len(d.docs))
	copy(out, d.docs)
	return out
}

// Len returns the number of documents.
func (d *Documents) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}
