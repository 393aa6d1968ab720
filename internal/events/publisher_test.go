package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roster/roster/internal/model"
)

func TestNewUserCreated(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	user := model.User{ID: "u1", Name: "Ada", Created: now.UnixMilli()}

	event := NewUserCreated(user, now)

	if event.Type != TypeUserCreated {
		t.Errorf("Type = %q, want %q", event.Type, TypeUserCreated)
	}
	if event.OccurredAt != now.UnixMilli() {
		t.Errorf("OccurredAt = %d, want %d", event.OccurredAt, now.UnixMilli())
	}
	if event.User != user {
		t.Errorf("User = %+v, want %+v", event.User, user)
	}

	id, err := ulid.ParseStrict(event.EventID)
	if err != nil {
		t.Fatalf("EventID %q is not a ULID: %v", event.EventID, err)
	}
	if id.Time() != uint64(now.UnixMilli()) {
		t.Errorf("ULID time = %d, want %d", id.Time(), now.UnixMilli())
	}
}

func TestNewUserCreated_UniqueIDs(t *testing.T) {
	t.Parallel()

	now := time.Now()
	user := model.User{ID: "u1", Name: "Ada"}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewUserCreated(user, now).EventID
		if seen[id] {
			t.Fatalf("duplicate event id %s", id)
		}
		seen[id] = true
	}
}

func TestEvent_WireFormat(t *testing.T) {
	t.Parallel()

	event := Event{
		EventID:    "01HQ0000000000000000000000",
		Type:       TypeUserCreated,
		User:       model.User{ID: "u1", Name: "Ada", Created: 1700000000000},
		OccurredAt: 1700000000001,
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)

	for _, field := range []string{`"event_id":`, `"type":"user.created"`, `"user":{"id":"u1","name":"Ada","created":1700000000000}`, `"occurred_at":1700000000001`} {
		if !strings.Contains(got, field) {
			t.Errorf("payload %s missing %s", got, field)
		}
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"event_id":"01HQ0000000000000000000000","type":"user.created","user":{"id":"u1","name":"Ada"},"occurred_at":1}`, false},
		{"not json", `{`, true},
		{"missing type", `{"event_id":"x","user":{"id":"u1","name":"Ada"}}`, true},
		{"missing id", `{"type":"user.created"}`, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
