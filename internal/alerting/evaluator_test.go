package alerting

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"plantasset/internal/mapping"
	"plantasset/internal/models"
)

type stubMeta struct {
	signalType *models.SignalType
	assetName  string
}

func (m *stubMeta) GetAssetName(ctx context.Context, assetID uuid.UUID) (string, error) {
	return m.assetName, nil
}

func (m *stubMeta) GetSignalType(ctx context.Context, signalTypeID uuid.UUID) (*models.SignalType, error) {
	return m.signalType, nil
}

type stubTrail struct {
	created  []*models.Alert
	widened  []float64
	resolved []uuid.UUID
}

func (t *stubTrail) GetActiveAlert(ctx context.Context, mappingID uuid.UUID) (*models.Alert, error) {
	for i := len(t.created) - 1; i >= 0; i-- {
		if t.created[i].MappingID == mappingID && t.created[i].IsActive {
			return t.created[i], nil
		}
	}
	return nil, nil
}

func (t *stubTrail) CreateAlert(ctx context.Context, item *models.Alert) error {
	t.created = append(t.created, item)
	return nil
}

func (t *stubTrail) WidenAlertObserved(ctx context.Context, alertID uuid.UUID, value float64, at time.Time) error {
	t.widened = append(t.widened, value)
	return nil
}

func (t *stubTrail) ResolveAlert(ctx context.Context, alertID uuid.UUID, endUtc time.Time) error {
	t.resolved = append(t.resolved, alertID)
	for _, a := range t.created {
		if a.AlertID == alertID {
			a.IsActive = false
		}
	}
	return nil
}

type stubNotifier struct {
	notices []Notice
}

func (n *stubNotifier) CreateForUsers(ctx context.Context, notice Notice) error {
	n.notices = append(n.notices, notice)
	return nil
}

func newEvaluator(signalType *models.SignalType) (*Evaluator, *stubTrail, *stubNotifier) {
	trail := &stubTrail{}
	notifier := &stubNotifier{}
	e := &Evaluator{
		States:   NewStateStore(),
		Meta:     &stubMeta{signalType: signalType, assetName: "Boiler 3"},
		Trail:    trail,
		Notifier: notifier,
		Priority: "high",
	}
	return e, trail, notifier
}

func tempSignal() *models.SignalType {
	return &models.SignalType{
		SignalTypeID:           uuid.New(),
		SignalName:             "Temperature",
		SignalUnit:             "°C",
		MinThreshold:           10,
		MaxThreshold:           20,
		DefaultRegisterAddress: 40001,
	}
}

func tempMapping(st *models.SignalType) mapping.Info {
	return mapping.Info{
		MappingID:       uuid.New(),
		AssetID:         uuid.New(),
		SignalTypeID:    st.SignalTypeID,
		SignalName:      st.SignalName,
		SignalUnit:      st.SignalUnit,
		RegisterAddress: st.DefaultRegisterAddress,
	}
}

func TestEvaluate_StartUpdateResolveScenario(t *testing.T) {
	st := tempSignal()
	m := tempMapping(st)
	e, trail, notifier := newEvaluator(st)

	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Out of range with nothing active: start.
	if err := e.Evaluate(ctx, m, Sample{Value: 25, RegisterAddress: 40001, Timestamp: t0}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.notices) != 1 {
		t.Fatalf("notices=%d want 1", len(notifier.notices))
	}
	start := notifier.notices[0]
	if !strings.Contains(start.Title, "HIGH") {
		t.Fatalf("start title %q missing HIGH", start.Title)
	}
	if !strings.Contains(start.Text, "25.0%") {
		t.Fatalf("start text %q missing 25.0%% deviation", start.Text)
	}
	if len(trail.created) != 1 {
		t.Fatalf("alert rows=%d want 1", len(trail.created))
	}

	// Still out of range: widen only, no second notification.
	t1 := t0.Add(time.Second)
	if err := e.Evaluate(ctx, m, Sample{Value: 30, RegisterAddress: 40001, Timestamp: t1}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.notices) != 1 {
		t.Fatalf("duplicate start notification emitted")
	}
	if len(trail.widened) != 1 || trail.widened[0] != 30 {
		t.Fatalf("widened=%v want [30]", trail.widened)
	}
	snap := e.States.Get(m.MappingID)
	if snap.MinValue != 25 || snap.MaxValue != 30 {
		t.Fatalf("state min/max=%v/%v want 25/30", snap.MinValue, snap.MaxValue)
	}

	// Back in range: resolve with duration and observed bounds.
	t2 := t0.Add(90 * time.Second)
	if err := e.Evaluate(ctx, m, Sample{Value: 15, RegisterAddress: 40001, Timestamp: t2}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.notices) != 2 {
		t.Fatalf("notices=%d want 2", len(notifier.notices))
	}
	resolved := notifier.notices[1]
	if !strings.Contains(resolved.Text, "90 seconds") {
		t.Fatalf("resolve text %q missing duration", resolved.Text)
	}
	if !strings.Contains(resolved.Text, "min 25.00") || !strings.Contains(resolved.Text, "max 30.00") {
		t.Fatalf("resolve text %q missing observed range", resolved.Text)
	}
	if len(trail.resolved) != 1 {
		t.Fatalf("resolved rows=%d want 1", len(trail.resolved))
	}
	if e.States.Get(m.MappingID) != nil {
		t.Fatalf("state not cleared after resolve")
	}
}

func TestEvaluate_LowDirection(t *testing.T) {
	st := tempSignal()
	m := tempMapping(st)
	e, _, notifier := newEvaluator(st)

	err := e.Evaluate(context.Background(), m, Sample{Value: 5, RegisterAddress: 40001, Timestamp: time.Now().UTC()})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.notices) != 1 || !strings.Contains(notifier.notices[0].Title, "LOW") {
		t.Fatalf("expected LOW notification, got %+v", notifier.notices)
	}
	if !strings.Contains(notifier.notices[0].Text, "50.0%") {
		t.Fatalf("text %q missing 50.0%% deviation", notifier.notices[0].Text)
	}
}

func TestEvaluate_RegisterGate(t *testing.T) {
	st := tempSignal()
	m := tempMapping(st)
	m.RegisterAddress = 40099
	e, trail, notifier := newEvaluator(st)

	// Same signal type, different register: never evaluated.
	err := e.Evaluate(context.Background(), m, Sample{Value: 500, RegisterAddress: 40099, Timestamp: time.Now().UTC()})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.notices) != 0 || len(trail.created) != 0 {
		t.Fatalf("non-canonical register triggered evaluation")
	}
	if e.States.Get(m.MappingID) != nil {
		t.Fatalf("state created for non-canonical register")
	}
}

func TestEvaluate_InRangeNoActiveIsNoop(t *testing.T) {
	st := tempSignal()
	m := tempMapping(st)
	e, trail, notifier := newEvaluator(st)

	err := e.Evaluate(context.Background(), m, Sample{Value: 15, RegisterAddress: 40001, Timestamp: time.Now().UTC()})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(notifier.notices) != 0 || len(trail.created) != 0 {
		t.Fatalf("in-range sample produced side effects")
	}
}

func TestDeviationPercent(t *testing.T) {
	cases := []struct {
		value, min, max, want float64
	}{
		{25, 10, 20, 25},
		{5, 10, 20, 50},
		{15, 10, 20, 0},
		{30, 0, 0, 0},
	}
	for _, tc := range cases {
		if got := deviationPercent(tc.value, tc.min, tc.max); got != tc.want {
			t.Fatalf("deviationPercent(%v,[%v,%v])=%v want %v", tc.value, tc.min, tc.max, got, tc.want)
		}
	}
}
