package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func seedTurns(t *testing.T, repo Repository, conversationID string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		turn := Turn{
			ConversationID: conversationID,
			TurnNumber:     i,
			Query:          fmt.Sprintf("question %d", i),
			AnswerText:     fmt.Sprintf("answer %d", i),
		}
		if err := repo.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("AppendTurn(%d) failed: %v", i, err)
		}
	}
}

func turnNumbers(turns []Turn) []int {
	nums := make([]int, len(turns))
	for i, t := range turns {
		nums[i] = t.TurnNumber
	}
	return nums
}

func TestMemoryRepository_TurnsBefore(t *testing.T) {
	repo := NewMemoryRepository()
	seedTurns(t, repo, "conv-1", 6)

	tests := []struct {
		name       string
		beforeTurn int
		limit      int
		want       []int
	}{
		{"no bounds returns all", 0, 0, []int{1, 2, 3, 4, 5, 6}},
		{"before turn excludes it", 4, 0, []int{1, 2, 3}},
		{"limit keeps most recent", 0, 2, []int{5, 6}},
		{"bound and limit combine", 6, 3, []int{3, 4, 5}},
		{"before first turn is empty", 1, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns, err := repo.TurnsBefore(context.Background(), "conv-1", tt.beforeTurn, tt.limit)
			if err != nil {
				t.Fatalf("TurnsBefore failed: %v", err)
			}
			got := turnNumbers(turns)
			if len(got) != len(tt.want) {
				t.Fatalf("got turns %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got turns %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMemoryRepository_UnknownConversation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	turns, err := repo.TurnsBefore(ctx, "missing", 0, 0)
	if err != nil {
		t.Fatalf("TurnsBefore failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected no turns, got %d", len(turns))
	}

	if _, ok, err := repo.LastTurn(ctx, "missing"); err != nil || ok {
		t.Errorf("LastTurn = ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	state, err := repo.State(ctx, "missing")
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state != StateActive {
		t.Errorf("state = %q, want %q", state, StateActive)
	}
}

func TestMemoryRepository_LastTurn(t *testing.T) {
	repo := NewMemoryRepository()
	seedTurns(t, repo, "conv-1", 3)

	last, ok, err := repo.LastTurn(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("LastTurn failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a last turn")
	}
	if last.TurnNumber != 3 {
		t.Errorf("last turn = %d, want 3", last.TurnNumber)
	}
}

func TestMemoryRepository_Archive(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.Archive(ctx, "conv-1"); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if err := repo.Archive(ctx, "conv-1"); err != nil {
		t.Fatalf("second Archive failed: %v", err)
	}

	state, err := repo.State(ctx, "conv-1")
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state != StateArchived {
		t.Errorf("state = %q, want %q", state, StateArchived)
	}
}

func TestMemoryRepository_ConcurrentConversations(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for c := 0; c < 10; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			id := fmt.Sprintf("conv-%d", c)
			for i := 1; i <= 5; i++ {
				_ = repo.AppendTurn(ctx, Turn{ConversationID: id, TurnNumber: i})
				_, _, _ = repo.LastTurn(ctx, id)
			}
		}(c)
	}
	wg.Wait()

	for c := 0; c < 10; c++ {
		id := fmt.Sprintf("conv-%d", c)
		turns, err := repo.TurnsBefore(ctx, id, 0, 0)
		if err != nil {
			t.Fatalf("TurnsBefore(%s) failed: %v", id, err)
		}
		if len(turns) != 5 {
			t.Errorf("conversation %s has %d turns, want 5", id, len(turns))
		}
	}
}
