package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/model"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/region"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/voice"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/weather"
)

var errBroken = errors.New("storage offline")

// memStore is an in-memory StateStore and Mailbox.
type memStore struct {
	mu       sync.Mutex
	states   map[string]model.DeviceState
	mailbox  map[string]model.MailboxEntry
	logs     []model.DispenseLog
	saves    int
	failLoad bool
	failSave bool
	failLog  bool
	failMail bool
}

func newMemStore() *memStore {
	return &memStore{
		states:  make(map[string]model.DeviceState),
		mailbox: make(map[string]model.MailboxEntry),
	}
}

func (s *memStore) LoadState(ctx context.Context, deviceID string) (model.DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad {
		return model.DeviceState{}, errBroken
	}
	if st, ok := s.states[deviceID]; ok {
		return st, nil
	}
	return model.NewDeviceState(deviceID, 100), nil
}

func (s *memStore) SaveState(ctx context.Context, state model.DeviceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errBroken
	}
	s.saves++
	s.states[state.DeviceID] = state
	return nil
}

func (s *memStore) AppendLog(ctx context.Context, entry *model.DispenseLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLog {
		return errBroken
	}
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *memStore) RecentLogs(ctx context.Context, deviceID string, limit int) ([]model.DispenseLog, error) {
	return nil, nil
}

func (s *memStore) WriteCommand(ctx context.Context, deviceID string, scentCode int, region string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMail {
		return errBroken
	}
	s.mailbox[deviceID] = model.MailboxEntry{DeviceID: deviceID, PendingCommand: scentCode, PendingRegion: region}
	return nil
}

func (s *memStore) ReadAndClearCommand(ctx context.Context, deviceID string) (int, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMail {
		return 0, "", errBroken
	}
	entry := s.mailbox[deviceID]
	if entry.PendingCommand == 0 {
		return 0, "", nil
	}
	delete(s.mailbox, deviceID)
	return entry.PendingCommand, entry.PendingRegion, nil
}

func (s *memStore) lastLog() model.DispenseLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs[len(s.logs)-1]
}

type fakeWeather struct {
	obs    weather.Observation
	err    error
	calls  int
	coords []region.Coords
}

func (f *fakeWeather) Fetch(ctx context.Context, coords region.Coords, baseDate, baseTime string) (weather.Observation, error) {
	f.calls++
	f.coords = append(f.coords, coords)
	return f.obs, f.err
}

type fakeVoice struct {
	text  string
	key   string
	err   error
	calls int
}

func (f *fakeVoice) Transcribe(ctx context.Context, deviceID string, audio []byte) (voice.Transcript, error) {
	f.calls++
	return voice.Transcript{Text: f.text, ClipKey: f.key}, f.err
}

type recordingNotifier struct {
	devices   []string
	remaining []float64
}

func (n *recordingNotifier) NotifyLowCapacity(deviceID string, remaining float64) {
	n.devices = append(n.devices, deviceID)
	n.remaining = append(n.remaining, remaining)
}
