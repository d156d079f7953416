package fakes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/shopscript/apiserver/internal/storage"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// ObjectStore keeps objects in memory.
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string]Object
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string]Object)}
}

func (s *ObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: data, ContentType: contentType}
	return nil
}

func (s *ObjectStore) Get(_ context.Context, key string) (*storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{
		ReadCloser:  io.NopCloser(bytes.NewReader(obj.Data)),
		ContentType: obj.ContentType,
		Size:        int64(len(obj.Data)),
	}, nil
}

func (s *ObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Object returns the stored object for key.
func (s *ObjectStore) Object(key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Keys lists every stored key.
func (s *ObjectStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

// Event is a recorded publish call. Payload holds the JSON-encoded payload.
type Event struct {
	Channel string
	Type    string
	Payload json.RawMessage
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []Event

	// Err, when set, fails every publish.
	Err error
}

func (p *Publisher) Publish(_ context.Context, channel, eventType string, payload any) error {
	if p.Err != nil {
		return p.Err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Event{Channel: channel, Type: eventType, Payload: raw})
	return nil
}

// Events returns a copy of the recorded events.
func (p *Publisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}
