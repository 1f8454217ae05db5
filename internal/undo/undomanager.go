/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot is the serialized state of one issue tree captured before a mutation.
// Blob content is opaque to the manager; size is estimated as len(Blob).
type Snapshot struct {
	IssueID string
	Blob    []byte
	TS      time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerIssue limits number of snapshots per issue (0 means unlimited).
	MaxPerIssue int
	// MinInterval coalesces snapshots pushed within the interval for the same issue:
	// the earlier state is kept so one undo reverts the whole burst.
	MinInterval time.Duration
}

// Manager provides undo/redo stacks per issue with memory safeguards.
// It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting over both stacks
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records the state of an issue before a change and clears its redo stack.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked(s.IssueID)
	stack := m.undo[s.IssueID]
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 {
		last := &stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			last.TS = s.TS
			return
		}
	}
	m.undo[s.IssueID] = append(stack, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(s.IssueID)
}

// Undo pops the latest snapshot of current.IssueID and parks current on the redo stack.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := current.IssueID
	stack := m.undo[id]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[id] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[id] = append(m.redo[id], current)
	m.totalBytes += len(current.Blob)
	return s, true
}

// Redo pops the latest redo snapshot and parks current on the undo stack.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := current.IssueID
	r := m.redo[id]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[id] = r[:len(r)-1]
	m.totalBytes -= len(s.Blob)
	m.undo[id] = append(m.undo[id], current)
	m.totalBytes += len(current.Blob)
	m.enforceCapsLocked(id)
	return s, true
}

// Stacks returns copies of both stacks of an issue, oldest first.
func (m *Manager) Stacks(issueID string) (undo, redo []Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Snapshot(nil), m.undo[issueID]...), append([]Snapshot(nil), m.redo[issueID]...)
}

// Load replaces both stacks of an issue, e.g. with history read from disk.
func (m *Manager) Load(issueID string, undo, redo []Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(issueID)
	if len(undo) > 0 {
		m.undo[issueID] = append([]Snapshot(nil), undo...)
	}
	if len(redo) > 0 {
		m.redo[issueID] = append([]Snapshot(nil), redo...)
	}
	for _, s := range undo {
		m.totalBytes += len(s.Blob)
	}
	for _, s := range redo {
		m.totalBytes += len(s.Blob)
	}
	m.enforceCapsLocked(issueID)
}

// Clear drops undo/redo stacks for an issue to free memory.
func (m *Manager) Clear(issueID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(issueID)
}

func (m *Manager) clearLocked(issueID string) {
	for _, s := range m.undo[issueID] {
		m.totalBytes -= len(s.Blob)
	}
	m.dropRedoLocked(issueID)
	delete(m.undo, issueID)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

func (m *Manager) dropRedoLocked(issueID string) {
	for _, s := range m.redo[issueID] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.redo, issueID)
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, issues int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issues = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, issues, totalSnapshots
}

func (m *Manager) enforceCapsLocked(issueID string) {
	// Per-issue depth cap
	if m.cfg.MaxPerIssue > 0 {
		stack := m.undo[issueID]
		if len(stack) > m.cfg.MaxPerIssue {
			toDrop := len(stack) - m.cfg.MaxPerIssue
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[issueID] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest undo entries across all issues
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldest := ""
		found := false
		var oldestTS time.Time
		for id, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldest, oldestTS, found = id, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldest]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldest] = stack[1:]
		if len(m.undo[oldest]) == 0 {
			delete(m.undo, oldest)
		}
	}
}
