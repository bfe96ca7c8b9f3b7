package session

import (
	"context"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		fields  map[string]string
		want    State
		wantNil bool
		wantErr bool
	}{
		{"empty map", map[string]string{}, "", true, false},
		{"nil map", nil, "", true, false},
		{"main menu", map[string]string{"state": "main_menu"}, StateMainMenu, false, false},
		{"questions", map[string]string{"state": "questions"}, StateQuestions, false, false},
		{"recommendation", map[string]string{"state": "recommendation"}, StateRecommendation, false, false},
		{"unknown value", map[string]string{"state": "limbo"}, "", false, true},
		{"missing state field", map[string]string{"mood": "ok"}, "", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info, err := Parse(tc.fields)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if tc.wantNil {
				if info != nil {
					t.Fatalf("expected nil info, got %+v", info)
				}
				return
			}
			if info == nil || info.State != tc.want {
				t.Fatalf("Parse = %+v, want state %s", info, tc.want)
			}
		})
	}
}

func TestInformationRoundTrip(t *testing.T) {
	info := Information{State: StateQuestions}
	parsed, err := Parse(info.Fields())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.State != StateQuestions {
		t.Fatalf("state = %s", parsed.State)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	fields, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("fresh store returned %v", fields)
	}

	if err := store.Set(ctx, 1, Information{State: StateMainMenu}.Fields()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, 1, Information{State: StateRecommendation}.Fields()); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	fields, err = store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fields[FieldState] != string(StateRecommendation) {
		t.Fatalf("state = %q", fields[FieldState])
	}

	// Mutating the returned map must not leak into the store.
	fields[FieldState] = "limbo"
	again, _ := store.Get(ctx, 1)
	if again[FieldState] != string(StateRecommendation) {
		t.Fatal("Get must return a copy")
	}

	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	fields, _ = store.Get(ctx, 1)
	if len(fields) != 0 {
		t.Fatalf("record survived delete: %v", fields)
	}
}
