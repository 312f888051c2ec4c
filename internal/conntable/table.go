// Package conntable holds the process-local table of admitted connections
// (spec §2.2, §3): the only place a Connection's state, admission time, and
// remote IP live. It has no dependency on the Matchmaker or Gateway; only
// module.go imports the Abuse Controller, to bind Table as its
// ConnectionLookup, and the abuse package does not import this one, so no
// cycle arises.
package conntable

import (
	"sync"

	"github.com/webitel/signal-matchmaker/internal/domain/model"
)

type Table struct {
	mu   sync.RWMutex
	byID map[string]*model.Connection
	byIP map[string]map[string]struct{}
}

func New() *Table {
	return &Table{
		byID: make(map[string]*model.Connection),
		byIP: make(map[string]map[string]struct{}),
	}
}

// Put registers a newly admitted connection (spec §4.6 admission).
func (t *Table) Put(conn *model.Connection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[conn.ID] = conn
	if t.byIP[conn.RemoteIP] == nil {
		t.byIP[conn.RemoteIP] = make(map[string]struct{})
	}
	t.byIP[conn.RemoteIP][conn.ID] = struct{}{}
}

// Get returns the connection record for connID, if this instance admitted it.
func (t *Table) Get(connID string) (*model.Connection, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byID[connID]
	return c, ok
}

// Delete removes connID's record on teardown (spec §4.6 disconnect).
func (t *Table) Delete(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.byID[connID]
	if !ok {
		return
	}
	delete(t.byID, connID)
	if ips, ok := t.byIP[c.RemoteIP]; ok {
		delete(ips, connID)
		if len(ips) == 0 {
			delete(t.byIP, c.RemoteIP)
		}
	}
}

// RemoteIP implements abuse.ConnectionLookup.
func (t *Table) RemoteIP(connID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byID[connID]
	if !ok {
		return "", false
	}
	return c.RemoteIP, true
}

// ConnIDsForIP implements abuse.ConnectionLookup, used to force-close every
// local connection from a newly banned IP.
func (t *Table) ConnIDsForIP(ip string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.byIP[ip]))
	for id := range t.byIP[ip] {
		ids = append(ids, id)
	}
	return ids
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
