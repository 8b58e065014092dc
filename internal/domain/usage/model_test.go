package usage

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want PeriodKey
	}{
		{name: "mid month", in: date(2025, time.March, 14), want: "2025-03"},
		{name: "last instant of year", in: time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC), want: "2024-12"},
		{
			name: "non-UTC zone is normalized",
			in:   time.Date(2025, time.February, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600*2)),
			want: "2025-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodOf(tt.in); got != tt.want {
				t.Errorf("PeriodOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeriodKey_Start(t *testing.T) {
	start, err := PeriodKey("2025-02").Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !start.Equal(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start() = %v", start)
	}
	if _, err := PeriodKey("Feb 2025").Start(); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("Start() error = %v, want ErrInvalidPeriod", err)
	}
}

func TestLedger_MonthBoundary(t *testing.T) {
	l := NewLedger(date(2025, time.January, 31))
	if l.RolloverIfNeeded(date(2025, time.January, 31)) {
		t.Fatal("RolloverIfNeeded() reported change within the same period")
	}
	if err := l.Record(1, 5); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if !l.RolloverIfNeeded(date(2025, time.February, 1)) {
		t.Fatal("RolloverIfNeeded() = false across month boundary")
	}

	if got := l.History["2025-01"]; got != (Totals{Messages: 1, Tokens: 5}) {
		t.Errorf("History[2025-01] = %+v, want {1 5}", got)
	}
	if l.MessagesUsed != 0 || l.TokensUsed != 0 {
		t.Errorf("counters = %d/%d, want zeroed", l.MessagesUsed, l.TokensUsed)
	}
	if l.CurrentPeriod != "2025-02" {
		t.Errorf("CurrentPeriod = %v, want 2025-02", l.CurrentPeriod)
	}

	if err := l.Record(1, 7); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if got := l.History["2025-02"]; got != (Totals{Messages: 1, Tokens: 7}) {
		t.Errorf("History[2025-02] = %+v, want {1 7}", got)
	}
	if got := l.History["2025-01"]; got != (Totals{Messages: 1, Tokens: 5}) {
		t.Errorf("History[2025-01] changed to %+v", got)
	}
}

func TestLedger_RolloverIdempotent(t *testing.T) {
	l := NewLedger(date(2025, time.January, 10))
	_ = l.Record(3, 40)

	l.RolloverIfNeeded(date(2025, time.February, 2))
	first := l.Clone()

	if l.RolloverIfNeeded(date(2025, time.February, 27)) {
		t.Error("second rollover in the same period reported a change")
	}
	if !reflect.DeepEqual(first, l) {
		t.Errorf("ledger changed on repeated rollover: got %+v, want %+v", l, first)
	}
}

func TestLedger_RolloverIgnoresPast(t *testing.T) {
	l := NewLedger(date(2025, time.March, 1))
	_ = l.Record(2, 2)

	if l.RolloverIfNeeded(date(2025, time.February, 28)) {
		t.Error("RolloverIfNeeded() moved the ledger backwards")
	}
	if l.CurrentPeriod != "2025-03" || l.MessagesUsed != 2 {
		t.Errorf("ledger = %+v, want unchanged", l)
	}
}

func TestLedger_RolloverSkipsIdleMonths(t *testing.T) {
	l := NewLedger(date(2025, time.January, 5))
	_ = l.Record(1, 1)

	l.RolloverIfNeeded(date(2025, time.April, 5))

	if len(l.History) != 1 {
		t.Errorf("History = %v, want only the active month", l.History)
	}
	if l.CurrentPeriod != "2025-04" {
		t.Errorf("CurrentPeriod = %v, want 2025-04", l.CurrentPeriod)
	}
}

func TestLedger_RolloverOpensEmptyLedger(t *testing.T) {
	var l Ledger
	if !l.RolloverIfNeeded(date(2025, time.June, 1)) {
		t.Fatal("RolloverIfNeeded() on zero ledger = false")
	}
	if l.CurrentPeriod != "2025-06" || len(l.History) != 0 {
		t.Errorf("ledger = %+v", l)
	}
}

func TestLedger_Remaining(t *testing.T) {
	tests := []struct {
		name         string
		msgLimit     int64
		tokLimit     int64
		msgUsed      int64
		tokUsed      int64
		wantMsgLeft  int64
		wantTokLeft  int64
		wantMsgLimit bool
		wantTokLimit bool
	}{
		{name: "within limits", msgLimit: 10, tokLimit: 100, msgUsed: 4, tokUsed: 30, wantMsgLeft: 6, wantTokLeft: 70},
		{name: "at limit", msgLimit: 10, tokLimit: 100, msgUsed: 10, tokUsed: 100, wantMsgLimit: true, wantTokLimit: true},
		{name: "over limit floors at zero", msgLimit: 10, tokLimit: 100, msgUsed: 12, tokUsed: 180, wantMsgLimit: true, wantTokLimit: true},
		{name: "zero limit denies", msgLimit: 0, tokLimit: 0, wantMsgLimit: true, wantTokLimit: true},
		{
			name:     "unlimited",
			msgLimit: plan.Unlimited, tokLimit: plan.Unlimited,
			msgUsed: 1 << 40, tokUsed: 1 << 40,
			wantMsgLeft: Unbounded, wantTokLeft: Unbounded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := plan.Plan{MonthlyMessageLimit: tt.msgLimit, MonthlyTokenLimit: tt.tokLimit}
			l := Ledger{MessagesUsed: tt.msgUsed, TokensUsed: tt.tokUsed}

			if got := l.RemainingMessages(p); got != tt.wantMsgLeft {
				t.Errorf("RemainingMessages() = %d, want %d", got, tt.wantMsgLeft)
			}
			if got := l.RemainingTokens(p); got != tt.wantTokLeft {
				t.Errorf("RemainingTokens() = %d, want %d", got, tt.wantTokLeft)
			}
			if got := l.MessageLimitReached(p); got != tt.wantMsgLimit {
				t.Errorf("MessageLimitReached() = %v, want %v", got, tt.wantMsgLimit)
			}
			if got := l.TokenLimitReached(p); got != tt.wantTokLimit {
				t.Errorf("TokenLimitReached() = %v, want %v", got, tt.wantTokLimit)
			}
		})
	}
}

func TestLedger_RecordRejectsNegative(t *testing.T) {
	l := NewLedger(date(2025, time.May, 1))
	if err := l.Record(1, -3); !errors.Is(err, ErrNegativeUsage) {
		t.Fatalf("Record() error = %v, want ErrNegativeUsage", err)
	}
	if l.MessagesUsed != 0 || l.TokensUsed != 0 {
		t.Errorf("counters changed on rejected record: %+v", l)
	}
}

func TestLedger_ResetKeepsHistory(t *testing.T) {
	l := NewLedger(date(2025, time.May, 1))
	_ = l.Record(4, 400)

	l.Reset(date(2025, time.May, 20))
	if l.MessagesUsed != 0 || l.TokensUsed != 0 {
		t.Errorf("counters = %d/%d after reset", l.MessagesUsed, l.TokensUsed)
	}
	_ = l.Record(1, 10)

	if got := l.History["2025-05"]; got != (Totals{Messages: 5, Tokens: 410}) {
		t.Errorf("History[2025-05] = %+v, want month total {5 410}", got)
	}
}

func TestLedger_CloneIsDeep(t *testing.T) {
	l := NewLedger(date(2025, time.May, 1))
	_ = l.Record(1, 1)

	c := l.Clone()
	_ = c.Record(1, 1)

	if l.History["2025-05"].Messages != 1 {
		t.Error("Clone() shares history with the original")
	}
}
