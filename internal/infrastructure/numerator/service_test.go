package numerator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "mesa/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert: every call advances the
// per-key counter by the requested increment (1 for strict calls).
type mockQuerier struct {
	mu      sync.Mutex
	values  map[string]int64
	queries int
	err     error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key, _ := args[0].(string)
	var increment int64 = 1
	if len(args) > 1 {
		if v, ok := args[1].(int64); ok {
			increment = v
		}
	}

	if strings.Contains(sql, "DO UPDATE SET current_val = $2") {
		// SetNextNumber overwrites instead of incrementing
		m.values[key] = increment
	} else {
		m.values[key] += increment
	}
	return &mockRow{val: m.values[key]}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	period := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	cfg := corenumerator.DefaultConfig("PAY")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PAY-2024-00001" {
		t.Errorf("first number = %q, want PAY-2024-00001", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PAY-2024-00002" {
		t.Errorf("second number = %q, want PAY-2024-00002", num)
	}

	// Strict hits the database on every call
	if q.queries != 2 {
		t.Errorf("queries = %d, want 2", q.queries)
	}
}

func TestGetNextNumber_DailySequence(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	cfg := corenumerator.DailyConfig("")
	day1 := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	num, err := svc.GetNextNumber(ctx, cfg, nil, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "2024-01-10-001" {
		t.Errorf("number = %q, want 2024-01-10-001", num)
	}

	svc.GetNextNumber(ctx, cfg, nil, day1)
	num, _ = svc.GetNextNumber(ctx, cfg, nil, day1)
	if num != "2024-01-10-003" {
		t.Errorf("number = %q, want 2024-01-10-003", num)
	}

	// Each day keys its own sequence
	num, err = svc.GetNextNumber(ctx, cfg, nil, day2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "2024-01-11-001" {
		t.Errorf("next day number = %q, want 2024-01-11-001", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	cfg := corenumerator.DefaultConfig("DOC")
	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}
	period := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 10; i++ {
		num, err := svc.GetNextNumber(ctx, cfg, opts, period)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		want := fmt.Sprintf("DOC-2024-%05d", i)
		if num != want {
			t.Errorf("call %d = %q, want %q", i, num, want)
		}
	}

	// One range reservation covers the first ten numbers
	if q.queries != 1 {
		t.Errorf("queries = %d, want 1", q.queries)
	}

	// Eleventh number exhausts the range and reserves the next one
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "DOC-2024-00011" {
		t.Errorf("number = %q, want DOC-2024-00011", num)
	}
	if q.queries != 2 {
		t.Errorf("queries = %d, want 2", q.queries)
	}
}

func TestGetNextNumber_QueryError(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection refused")
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("PAY"), nil, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	cfg := corenumerator.DefaultConfig("DOC")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}
	period := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.GetNextNumber(ctx, cfg, opts, period); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetNextNumber(ctx, cfg, period, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Cache dropped: the next call reserves a fresh range past 100
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "DOC-2024-00101" {
		t.Errorf("number = %q, want DOC-2024-00101", num)
	}
}

func TestFormatNumber(t *testing.T) {
	svc := New(newMockQuerier())
	period := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  corenumerator.Config
		num  int64
		want string
	}{
		{"yearly with prefix", corenumerator.DefaultConfig("PAY"), 7, "PAY-2024-00007"},
		{"daily no prefix", corenumerator.DailyConfig(""), 12, "2024-06-15-012"},
		{"daily with prefix", corenumerator.DailyConfig("INV"), 3, "INV-2024-06-15-003"},
		{"no period", corenumerator.Config{Prefix: "X", PadWidth: 4}, 42, "X-0042"},
		{"default pad width", corenumerator.Config{Prefix: "Y"}, 1, "Y-00001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.formatNumber(tt.cfg, period, tt.num)
			if got != tt.want {
				t.Errorf("formatNumber = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildKey(t *testing.T) {
	svc := New(newMockQuerier())
	period := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  corenumerator.Config
		want string
	}{
		{"yearly", corenumerator.Config{Prefix: "PAY", ResetPeriod: "year"}, "PAY_2024"},
		{"monthly", corenumerator.Config{Prefix: "PAY", ResetPeriod: "month"}, "PAY_2024_06"},
		{"daily no prefix", corenumerator.Config{ResetPeriod: "day"}, "2024_06_15"},
		{"never resets", corenumerator.Config{Prefix: "GLOBAL"}, "GLOBAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.buildKey(tt.cfg, period)
			if got != tt.want {
				t.Errorf("buildKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"PAY-2024-00007", 7},
		{"2024-01-10-003", 3},
		{"no-digits-here", -1},
		{"trailing-", -1},
		{"plain", -1},
	}

	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
