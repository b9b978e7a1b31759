package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-adr/medistream/internal/events"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/tests/testutil"
)

type fakeDesktop struct {
	perm      Permission
	answer    Permission
	requested int
	shown     []string
}

func (d *fakeDesktop) Permission() Permission { return d.perm }

func (d *fakeDesktop) RequestPermission(context.Context) (Permission, error) {
	d.requested++
	d.perm = d.answer
	return d.answer, nil
}

func (d *fakeDesktop) Show(title, _ string) error {
	d.shown = append(d.shown, title)
	return nil
}

type fakeTone struct {
	plays []string
}

func (f *fakeTone) Play(name string, _ float64) bool {
	f.plays = append(f.plays, name)
	return true
}

type staticSettings model.NotificationSettings

func (s staticSettings) Current() model.NotificationSettings {
	return model.NotificationSettings(s)
}

// harness drives a Notifier with a manual clock. Guard releases are
// collected instead of scheduled so tests decide when they happen.
type harness struct {
	now      time.Time
	releases []func()
}

func (h *harness) Now() time.Time { return h.now }

func (h *harness) After(_ time.Duration, f func()) {
	h.releases = append(h.releases, f)
}

func (h *harness) Release() {
	for _, f := range h.releases {
		f()
	}
	h.releases = nil
}

func newHarness(t *testing.T, opts ...Option) (*Notifier, *harness) {
	t.Helper()
	h := &harness{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts = append(opts, WithClock(h.Now, h.After))
	return New(nil, opts...), h
}

func medEvent(count, delta int) model.ChangeEvent {
	return model.ChangeEvent{
		Kind:     model.KindMedications,
		NewCount: count,
		Delta:    delta,
		Latest:   model.Medication{ID: int64(count), Lab: "Pfizer", Drug: "Paxlovid"},
	}
}

func TestNotifier_AppendsRecord(t *testing.T) {
	n, _ := newHarness(t, WithUserEmail("ana@example.com"))

	res := n.Handle(medEvent(15, 3))

	require.Equal(t, ResultAppended, res)
	recs := n.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "New medications", recs[0].Title)
	assert.Equal(t, "3 new medications added to DrugDealer", recs[0].Message)
	assert.Equal(t, 15, recs[0].Count)
	assert.Equal(t, 3, recs[0].Delta)
	assert.Equal(t, "Pfizer", recs[0].Details.Laboratory)
	assert.Empty(t, recs[0].Details.DrugName, "medication details carry no drug name")
	assert.Equal(t, "ana@example.com", recs[0].Details.UserEmail)
	assert.Equal(t, 1, n.Processed())
}

func TestNotifier_DetailsPerKind(t *testing.T) {
	n, h := newHarness(t)

	n.Handle(model.ChangeEvent{
		Kind: model.KindTactics, NewCount: 4, Delta: 1,
		Latest: model.PharmaTactic{ID: 4, Lab: "Roche", Drug: "Ocrevus", Tactic: "KOL outreach"},
	})

	recs := n.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "1 new pharma tactic registered", recs[0].Message)
	assert.Equal(t, "Roche", recs[0].Details.Laboratory)
	assert.Equal(t, "Ocrevus", recs[0].Details.DrugName)
	assert.Equal(t, UnknownUser, recs[0].Details.UserEmail)

	h.Release()
	n.Handle(model.ChangeEvent{Kind: model.KindUnmetNeeds, NewCount: 9, Delta: 2})
	recs = n.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "2 new unmet need analyses available", recs[0].Message)
	assert.Empty(t, recs[0].Details.Laboratory)
}

func TestNotifier_ReentrantEventIsDropped(t *testing.T) {
	n, h := newHarness(t)

	assert.Equal(t, ResultAppended, n.Handle(medEvent(15, 3)))
	assert.Equal(t, ResultBusy, n.Handle(model.ChangeEvent{Kind: model.KindTactics, NewCount: 5, Delta: 1}))

	h.Release()
	assert.Equal(t, ResultAppended, n.Handle(model.ChangeEvent{Kind: model.KindTactics, NewCount: 5, Delta: 1}))
	assert.Len(t, n.Records(), 2)
}

func TestNotifier_PerKindCooldown(t *testing.T) {
	n, h := newHarness(t)

	n.Handle(medEvent(15, 3))
	h.Release()

	h.now = h.now.Add(2 * time.Second)
	assert.Equal(t, ResultCooldown, n.Handle(medEvent(17, 2)))

	// The cooldown is per kind and releases the guard immediately.
	assert.Equal(t, ResultAppended, n.Handle(model.ChangeEvent{Kind: model.KindUnmetNeeds, NewCount: 3, Delta: 1}))
	h.Release()

	h.now = h.now.Add(1500 * time.Millisecond)
	assert.Equal(t, ResultAppended, n.Handle(medEvent(17, 2)))
}

func TestNotifier_DuplicateWithinFiveSeconds(t *testing.T) {
	n, h := newHarness(t)

	n.Handle(medEvent(15, 3))
	h.Release()

	h.now = h.now.Add(4 * time.Second)
	assert.Equal(t, ResultDuplicate, n.Handle(medEvent(15, 3)))
	h.Release()
	assert.Len(t, n.Records(), 1)

	h.now = h.now.Add(6 * time.Second)
	assert.Equal(t, ResultAppended, n.Handle(medEvent(15, 3)))
	assert.Len(t, n.Records(), 2)
}

func TestNotifier_ListIsBounded(t *testing.T) {
	n, h := newHarness(t)

	for i := 1; i <= 30; i++ {
		h.now = h.now.Add(10 * time.Second)
		require.Equal(t, ResultAppended, n.Handle(medEvent(100+i, 1)))
		h.Release()
	}

	recs := n.Records()
	assert.Len(t, recs, model.MaxNotifications)
	assert.Equal(t, 130, recs[0].Count, "most recent first")
	assert.Equal(t, 111, recs[len(recs)-1].Count)
}

func TestNotifier_ProcessedSetExpires(t *testing.T) {
	n, h := newHarness(t)

	n.Handle(medEvent(15, 3))
	h.Release()
	h.now = h.now.Add(10 * time.Second)
	n.Handle(medEvent(16, 1))
	h.Release()
	assert.Equal(t, 2, n.Processed())

	h.now = h.now.Add(25 * time.Second)
	n.Handle(medEvent(17, 1))
	assert.Equal(t, 2, n.Processed())
}

func TestNotifier_DesktopPermission(t *testing.T) {
	tests := []struct {
		name      string
		perm      Permission
		answer    Permission
		wantShown int
		wantAsked int
	}{
		{"granted shows", PermissionGranted, PermissionGranted, 1, 0},
		{"default asks then shows", PermissionDefault, PermissionGranted, 1, 1},
		{"default asks and is refused", PermissionDefault, PermissionDenied, 0, 1},
		{"denied skips", PermissionDenied, PermissionDenied, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDesktop{perm: tt.perm, answer: tt.answer}
			n, _ := newHarness(t, WithDesktop(d))

			assert.Equal(t, ResultAppended, n.Handle(medEvent(15, 3)))
			assert.Len(t, d.shown, tt.wantShown)
			assert.Equal(t, tt.wantAsked, d.requested)
		})
	}
}

func TestNotifier_ToneFollowsSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings model.NotificationSettings
		want     []string
	}{
		{"enabled", model.NotificationSettings{Enabled: true, Volume: 0.4, Tone: model.ToneChime}, []string{model.ToneChime}},
		{"disabled", model.NotificationSettings{Enabled: false, Volume: 0.4, Tone: model.ToneChime}, nil},
		{"muted", model.NotificationSettings{Enabled: true, Volume: 0, Tone: model.ToneChime}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tone := &fakeTone{}
			n, _ := newHarness(t, WithTone(tone), WithSettings(staticSettings(tt.settings)))

			n.Handle(medEvent(15, 3))
			assert.Equal(t, tt.want, tone.plays)
		})
	}
}

func TestNotifier_HistoryRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	n, h := newHarness(t, WithHistory(s))
	n.Handle(medEvent(15, 3))
	h.Release()
	h.now = h.now.Add(time.Minute)
	n.Handle(model.ChangeEvent{Kind: model.KindTactics, NewCount: 2, Delta: 1})

	restored, _ := newHarness(t, WithHistory(s))
	require.NoError(t, restored.LoadHistory(ctx))
	recs := restored.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, model.KindTactics, recs[0].Kind)
	assert.Equal(t, "Pfizer", recs[1].Details.Laboratory)

	require.NoError(t, restored.Clear(ctx))
	assert.Empty(t, restored.Records())

	again, err := s.RecentNotifications(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, again)
}

type failingHistory struct{}

func (failingHistory) SaveNotification(context.Context, model.NotificationRecord) error {
	return errors.New("disk full")
}

func (failingHistory) RecentNotifications(context.Context, int) ([]model.NotificationRecord, error) {
	return nil, errors.New("disk full")
}

func (failingHistory) ClearNotifications(context.Context) error {
	return errors.New("disk full")
}

func TestNotifier_HistoryFailureIsNotFatal(t *testing.T) {
	n, _ := newHarness(t, WithHistory(failingHistory{}))

	assert.Equal(t, ResultAppended, n.Handle(medEvent(15, 3)))
	assert.Len(t, n.Records(), 1)
	assert.Error(t, n.LoadHistory(context.Background()))
	assert.Error(t, n.Clear(context.Background()))
	assert.Empty(t, n.Records())
}

func TestNotifier_AttachAndWait(t *testing.T) {
	bus := events.New(nil)
	n, _ := newHarness(t)
	unsubscribe := n.Attach(bus)
	defer unsubscribe()

	bus.Publish(medEvent(15, 3))

	msg := n.WaitForNotification()().(NotificationMsg)
	assert.Equal(t, 15, msg.Record.Count)
}

func TestNotifier_CloseReleasesWaiters(t *testing.T) {
	n, _ := newHarness(t)
	wait := n.WaitForNotification()

	got := make(chan any, 1)
	go func() { got <- wait() }()

	n.Close()
	n.Close()

	select {
	case msg := <-got:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForNotification did not return after Close")
	}
}
