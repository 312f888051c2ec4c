package abuse

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/webitel/signal-matchmaker/config"
	"github.com/webitel/signal-matchmaker/internal/domain/event"
	"github.com/webitel/signal-matchmaker/internal/domain/registry"
	"github.com/webitel/signal-matchmaker/internal/sss"
)

// stubHub is a minimal registry.Hubber that only records Unregister calls;
// the abuse package never registers sessions itself.
type stubHub struct {
	unregistered []string
}

func (h *stubHub) Register(connID string) registry.Session       { return nil }
func (h *stubHub) Unregister(connID string)                      { h.unregistered = append(h.unregistered, connID) }
func (h *stubHub) IsLocal(connID string) bool                    { return false }
func (h *stubHub) DeliverLocal(connID string, ev event.Eventer) bool { return false }
func (h *stubHub) Shutdown()                                     {}

type fakeDispatcher struct {
	bans []string
}

func (d *fakeDispatcher) PublishDelivery(_ context.Context, _ event.Eventer) error { return nil }
func (d *fakeDispatcher) PublishBanInvalidation(_ context.Context, ip string) error {
	d.bans = append(d.bans, ip)
	return nil
}

type fakeDeliverer struct {
	delivered []event.Eventer
}

func (d *fakeDeliverer) Deliver(_ context.Context, ev event.Eventer) {
	d.delivered = append(d.delivered, ev)
}

type fakeLookup struct {
	ips map[string]string
}

func (l *fakeLookup) RemoteIP(connID string) (string, bool) {
	ip, ok := l.ips[connID]
	return ip, ok
}

func (l *fakeLookup) ConnIDsForIP(ip string) []string {
	var ids []string
	for id, connIP := range l.ips {
		if connIP == ip {
			ids = append(ids, id)
		}
	}
	return ids
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController() (*Controller, *fakeDispatcher, *fakeDeliverer, *stubHub) {
	store := sss.NewMemoryStore()
	hub := &stubHub{}
	dispatcher := &fakeDispatcher{}
	deliverer := &fakeDeliverer{}
	lookup := &fakeLookup{ips: map[string]string{
		"reporter": "1.1.1.1",
		"subject":  "2.2.2.2",
	}}
	c := NewController(store, hub, deliverer, dispatcher, lookup, &config.Config{ReportAutoBanAt: 5}, testLogger())
	return c, dispatcher, deliverer, hub
}

func TestAdmissionAllowsUnknownIP(t *testing.T) {
	c, _, _, _ := newTestController()
	if !c.Admission(context.Background(), "9.9.9.9") {
		t.Fatalf("expected unbanned IP to be admitted")
	}
}

func TestBanBlocksAdmission(t *testing.T) {
	c, dispatcher, deliverer, hub := newTestController()
	ctx := context.Background()

	c.Ban(ctx, "2.2.2.2", "abusive behavior")

	if c.Admission(ctx, "2.2.2.2") {
		t.Fatalf("expected banned IP to be rejected")
	}
	if len(dispatcher.bans) != 1 || dispatcher.bans[0] != "2.2.2.2" {
		t.Fatalf("expected a ban invalidation publish, got %v", dispatcher.bans)
	}
	if len(deliverer.delivered) != 1 || deliverer.delivered[0].GetKind() != event.Banned {
		t.Fatalf("expected subject's connection to receive a banned event")
	}
	if len(hub.unregistered) != 1 || hub.unregistered[0] != "subject" {
		t.Fatalf("expected subject connection to be force-unregistered, got %v", hub.unregistered)
	}
}

func TestUnbanRestoresAdmission(t *testing.T) {
	c, _, _, _ := newTestController()
	ctx := context.Background()

	c.Ban(ctx, "2.2.2.2", "test")
	c.Unban(ctx, "2.2.2.2")

	if !c.Admission(ctx, "2.2.2.2") {
		t.Fatalf("expected unbanned IP to be admitted again")
	}
}

func TestReportRequiresCurrentPartner(t *testing.T) {
	c, _, _, _ := newTestController()
	ctx := context.Background()

	partner := func(id string) (string, bool) { return "", false }
	if err := c.Report(ctx, "reporter", "subject", "harassment", partner); err == nil {
		t.Fatalf("expected report without a current partner to be rejected")
	}
}

func TestReportAutoBansAtThreshold(t *testing.T) {
	c, _, _, _ := newTestController()
	ctx := context.Background()

	partner := func(id string) (string, bool) { return "subject", true }
	for i := 0; i < 5; i++ {
		if err := c.Report(ctx, "reporter", "subject", "harassment", partner); err != nil {
			t.Fatalf("report %d: %v", i, err)
		}
	}

	if c.Admission(ctx, "2.2.2.2") {
		t.Fatalf("expected subject's IP to be auto-banned after 5 reports")
	}
}

func TestReportAutoBanThresholdIsConfigurable(t *testing.T) {
	store := sss.NewMemoryStore()
	lookup := &fakeLookup{ips: map[string]string{"reporter": "1.1.1.1", "subject": "2.2.2.2"}}
	c := NewController(store, &stubHub{}, &fakeDeliverer{}, &fakeDispatcher{}, lookup, &config.Config{ReportAutoBanAt: 2}, testLogger())
	ctx := context.Background()

	partner := func(id string) (string, bool) { return "subject", true }
	for i := 0; i < 2; i++ {
		if err := c.Report(ctx, "reporter", "subject", "harassment", partner); err != nil {
			t.Fatalf("report %d: %v", i, err)
		}
	}

	if c.Admission(ctx, "2.2.2.2") {
		t.Fatalf("expected subject's IP to be auto-banned after the configured threshold of 2")
	}
}

func TestListBansAndListReports(t *testing.T) {
	c, _, _, _ := newTestController()
	ctx := context.Background()

	c.Ban(ctx, "2.2.2.2", "abusive behavior")
	bans, err := c.ListBans(ctx)
	if err != nil {
		t.Fatalf("list bans: %v", err)
	}
	if len(bans) != 1 || bans[0].IP != "2.2.2.2" || bans[0].Reason != "abusive behavior" {
		t.Fatalf("unexpected bans: %+v", bans)
	}

	partner := func(id string) (string, bool) { return "subject", true }
	if err := c.Report(ctx, "reporter", "subject", "harassment", partner); err != nil {
		t.Fatalf("report: %v", err)
	}
	reports, err := c.ListReports(ctx)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 1 || reports[0].IP != "2.2.2.2" || reports[0].Count != 1 {
		t.Fatalf("unexpected reports: %+v", reports)
	}

	c.ClearReports(ctx, "2.2.2.2")
	reports, err = c.ListReports(ctx)
	if err != nil {
		t.Fatalf("list reports after clear: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected reports to be cleared, got %+v", reports)
	}
}
