// Package testutil provides collaborator fakes shared by package tests.
package testutil

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/comalice/commanderx/internal/core"
	"github.com/comalice/commanderx/internal/primitives"
)

// RecordingSink keeps every diagnostic it receives.
type RecordingSink struct {
	mu    sync.Mutex
	diags []primitives.Diagnostic
}

func (s *RecordingSink) Emit(d primitives.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = append(s.diags, d)
}

// Diagnostics returns a copy of everything emitted so far.
func (s *RecordingSink) Diagnostics() []primitives.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]primitives.Diagnostic(nil), s.diags...)
}

// Texts returns the emitted message texts in order.
func (s *RecordingSink) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.diags))
	for i, d := range s.diags {
		out[i] = d.Text
	}
	return out
}

func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = nil
}

// FakeDevices is an in-memory device root.
type FakeDevices struct {
	mu      sync.Mutex
	Names   []string
	ListErr error
	Fail    map[string]bool
	blocked []string
}

func (f *FakeDevices) Blockable() ([]string, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]string(nil), f.Names...), nil
}

func (f *FakeDevices) Block(device string) error {
	if f.Fail[device] {
		return errors.New("ioctl failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked = append(f.blocked, device)
	return nil
}

// Blocked returns the devices successfully blocked.
func (f *FakeDevices) Blocked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.blocked...)
}

// CapturePublisher records published snapshots.
type CapturePublisher struct {
	mu    sync.Mutex
	snaps []core.StatusSnapshot
	Err   error
}

func (p *CapturePublisher) Publish(ctx context.Context, snapshot core.StatusSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, snapshot)
	return p.Err
}

func (p *CapturePublisher) Close() error { return nil }

func (p *CapturePublisher) Snapshots() []core.StatusSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.StatusSnapshot(nil), p.snaps...)
}

// MemoryPersister keeps the latest snapshot per vehicle.
type MemoryPersister struct {
	mu    sync.Mutex
	saved map[string]core.StatusSnapshot
	saves int
}

func (p *MemoryPersister) Save(ctx context.Context, snapshot core.StatusSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saved == nil {
		p.saved = make(map[string]core.StatusSnapshot)
	}
	p.saved[snapshot.VehicleID] = snapshot
	p.saves++
	return nil
}

func (p *MemoryPersister) Load(ctx context.Context, vehicleID string) (core.StatusSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.saved[vehicleID]
	if !ok {
		return core.StatusSnapshot{}, os.ErrNotExist
	}
	return s, nil
}

// Saves counts successful Save calls.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}
