package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestCreateAndExists(t *testing.T) {
	s := NewStore()

	id := s.Create()
	if id == "" {
		t.Fatal("Create() returned empty id")
	}
	if !s.Exists(id) {
		t.Error("Exists() = false for freshly created session")
	}

	transcript, err := s.Transcript(id)
	if err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}
	if len(transcript) != 0 {
		t.Errorf("new session transcript has %d turns, want 0", len(transcript))
	}

	if other := s.Create(); other == id {
		t.Error("Create() returned a duplicate id")
	}
}

func TestAppendUnknownSession(t *testing.T) {
	s := NewStore()

	err := s.Append("nope", Turn{Role: RoleUser, Content: "hi"})
	if !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("Append() error = %v, want ErrUnknownSession", err)
	}
	if s.Exists("nope") {
		t.Error("failed Append created the session as a side effect")
	}

	if _, err := s.Transcript("nope"); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Transcript() error = %v, want ErrUnknownSession", err)
	}
}

func TestAppendOrderingAndAtomicity(t *testing.T) {
	s := NewStore()
	id := s.Create()

	if err := s.Append(id,
		Turn{Role: RoleUser, Content: "question"},
		Turn{Role: RoleAssistant, Content: "answer"},
	); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	transcript, err := s.Transcript(id)
	if err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("transcript has %d turns, want 2", len(transcript))
	}
	if transcript[0].Role != RoleUser || transcript[1].Role != RoleAssistant {
		t.Errorf("turn order = [%s, %s], want [user, assistant]", transcript[0].Role, transcript[1].Role)
	}
}

func TestTranscriptIsSnapshot(t *testing.T) {
	s := NewStore()
	id := s.Create()
	s.Append(id, Turn{Role: RoleUser, Content: "first"})

	snapshot, _ := s.Transcript(id)
	s.Append(id, Turn{Role: RoleAssistant, Content: "second"})

	if len(snapshot) != 1 {
		t.Errorf("snapshot grew after later append: len = %d, want 1", len(snapshot))
	}

	// Mutating the snapshot must not touch the store.
	snapshot[0].Content = "mutated"
	current, _ := s.Transcript(id)
	if current[0].Content != "first" {
		t.Errorf("store turn mutated through snapshot: %q", current[0].Content)
	}
}

func TestConcurrentSessionsAreIsolated(t *testing.T) {
	s := NewStore()
	a := s.Create()
	b := s.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s.Append(a, Turn{Role: RoleUser, Content: fmt.Sprintf("a-%d", n)})
		}(i)
		go func(n int) {
			defer wg.Done()
			s.Append(b, Turn{Role: RoleUser, Content: fmt.Sprintf("b-%d", n)})
		}(i)
	}
	wg.Wait()

	ta, _ := s.Transcript(a)
	tb, _ := s.Transcript(b)
	if len(ta) != 50 || len(tb) != 50 {
		t.Fatalf("transcript lengths = %d/%d, want 50/50", len(ta), len(tb))
	}
	for _, turn := range ta {
		if turn.Content[0] != 'a' {
			t.Fatalf("session a observed foreign turn %q", turn.Content)
		}
	}
	for _, turn := range tb {
		if turn.Content[0] != 'b' {
			t.Fatalf("session b observed foreign turn %q", turn.Content)
		}
	}
}
