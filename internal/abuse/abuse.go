// Package abuse implements the Abuse Controller (spec §4.5): admission
// bans, report accounting with auto-ban, and IP-level banning with a
// process-local cache kept warm via cross-instance invalidation.
package abuse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/webitel/signal-matchmaker/config"
	"github.com/webitel/signal-matchmaker/internal/bus"
	"github.com/webitel/signal-matchmaker/internal/domain/event"
	"github.com/webitel/signal-matchmaker/internal/domain/model"
	"github.com/webitel/signal-matchmaker/internal/domain/registry"
	"github.com/webitel/signal-matchmaker/internal/sss"
)

const (
	banSetKey        = "banned_ips"
	banDetailsKeyFmt = "ban_details:%s"
	reportKeyFmt     = "reports:%s"
	reportedIPsKey   = "reported_ips"
	maxReasonLen     = 500
)

// ReportSummary is one row of GET /admin/reports (spec §6.3): a reported IP
// and how many reports are currently on file for it.
type ReportSummary struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// ConnectionLookup resolves a connection id to its admitting instance's
// local record, needed to turn a reporter/subject connection id into a
// remote IP (spec §4.5). Implemented by the Connection Gateway's local
// table.
type ConnectionLookup interface {
	RemoteIP(connID string) (string, bool)
	ConnIDsForIP(ip string) []string
}

// Controller is the production Abuse Controller. The ban cache is a
// process-local LRU, grounded on the teacher's PeerEnricher cache-aside
// pattern (internal/service/peer_enricher.go) — here keyed by IP instead of
// peer id, invalidated on mutation via the bus's bans topic instead of TTL
// expiry, since a ban must take effect immediately everywhere.
type Controller struct {
	store      sss.Store
	hub        registry.Hubber
	deliverer  bus.Deliverer
	dispatcher bus.Dispatcher
	lookup     ConnectionLookup
	threshold  int
	logger     *slog.Logger

	cache *lru.Cache[string, bool]
}

func NewController(store sss.Store, hub registry.Hubber, deliverer bus.Deliverer, dispatcher bus.Dispatcher, lookup ConnectionLookup, cfg *config.Config, logger *slog.Logger) *Controller {
	cache, _ := lru.New[string, bool](10_000)
	threshold := model.AutoBanThreshold
	if cfg != nil && cfg.ReportAutoBanAt > 0 {
		threshold = cfg.ReportAutoBanAt
	}
	return &Controller{
		store:      store,
		hub:        hub,
		deliverer:  deliverer,
		dispatcher: dispatcher,
		lookup:     lookup,
		threshold:  threshold,
		logger:     logger,
		cache:      cache,
	}
}

// Admission rejects a connection if its IP is banned (spec §4.5). The fast
// path consults the local cache; a cache miss falls through to the
// authoritative SSS set and backfills the cache.
func (c *Controller) Admission(ctx context.Context, ip string) bool {
	if banned, ok := c.cache.Get(ip); ok {
		return !banned
	}
	banned, err := c.store.SetIsMember(ctx, banSetKey, ip)
	if err != nil {
		c.logger.Error("abuse: admission check failed, failing open", "ip", ip, "err", err)
		return true
	}
	c.cache.Add(ip, banned)
	return !banned
}

// Report records reporter's complaint against subject (spec §4.5). Requires
// the two to currently be partnered; reason must be 1-500 bytes. Crossing
// the auto-ban threshold triggers Ban.
func (c *Controller) Report(ctx context.Context, reporterConnID, subjectConnID, reason string, partner func(string) (string, bool)) error {
	if p, ok := partner(reporterConnID); !ok || p != subjectConnID {
		return fmt.Errorf("abuse: report target is not the current partner")
	}
	if len(reason) == 0 || len(reason) > maxReasonLen {
		return fmt.Errorf("abuse: reason must be 1-%d bytes", maxReasonLen)
	}

	reporterIP, _ := c.lookup.RemoteIP(reporterConnID)
	subjectIP, ok := c.lookup.RemoteIP(subjectConnID)
	if !ok {
		return fmt.Errorf("abuse: subject connection not found")
	}

	record := model.ReportRecord{
		ReporterConnID: reporterConnID,
		ReporterIP:     reporterIP,
		SubjectIP:      subjectIP,
		Reason:         reason,
		Timestamp:      time.Now(),
	}
	data, err := encodeReport(record)
	if err != nil {
		return err
	}

	length, err := c.store.ListPushTTL(ctx, fmt.Sprintf(reportKeyFmt, subjectIP), data, model.ReportWindow)
	if err != nil {
		return fmt.Errorf("abuse: record report: %w", err)
	}
	if err := c.store.SetAdd(ctx, reportedIPsKey, subjectIP); err != nil {
		c.logger.Error("abuse: reported-ips index add failed", "ip", subjectIP, "err", err)
	}

	if length >= c.threshold {
		c.Ban(ctx, subjectIP, fmt.Sprintf("auto-ban: >=%d reports in 24h", c.threshold))
	}

	return nil
}

// Ban adds ip to the ban set, publishes a cache invalidation to every
// instance, and delivers banned to and force-closes the connections from
// that IP admitted on this instance (spec §4.5). Connections from that IP on
// other instances are not notified or closed; those instances only drop
// their cached verdict.
func (c *Controller) Ban(ctx context.Context, ip, reason string) {
	if err := c.store.SetAdd(ctx, banSetKey, ip); err != nil {
		c.logger.Error("abuse: ban set-add failed", "ip", ip, "err", err)
		return
	}
	record := model.BanRecord{IP: ip, Reason: reason, CreatedAt: time.Now()}
	if err := c.store.HashSetJSON(ctx, fmt.Sprintf(banDetailsKeyFmt, ip), record); err != nil {
		c.logger.Error("abuse: ban metadata write failed", "ip", ip, "err", err)
	}

	c.cache.Add(ip, true)
	if err := c.dispatcher.PublishBanInvalidation(ctx, ip); err != nil {
		c.logger.Error("abuse: ban invalidation publish failed", "ip", ip, "err", err)
	}

	for _, connID := range c.lookup.ConnIDsForIP(ip) {
		c.deliverer.Deliver(ctx, event.NewBanned(connID, reason))
		c.hub.Unregister(connID)
	}
}

// Unban removes ip from the ban set. Existing connections from that IP are
// unaffected (spec §4.5).
func (c *Controller) Unban(ctx context.Context, ip string) {
	if err := c.store.SetRemove(ctx, banSetKey, ip); err != nil {
		c.logger.Error("abuse: unban set-remove failed", "ip", ip, "err", err)
		return
	}
	if err := c.store.HashDelete(ctx, fmt.Sprintf(banDetailsKeyFmt, ip)); err != nil {
		c.logger.Error("abuse: unban metadata delete failed", "ip", ip, "err", err)
	}
	c.cache.Add(ip, false)
	if err := c.dispatcher.PublishBanInvalidation(ctx, ip); err != nil {
		c.logger.Error("abuse: unban invalidation publish failed", "ip", ip, "err", err)
	}
}

// InvalidateCache drops ip's cached verdict so the next Admission check
// re-reads the SSS. Wired as the bus's ban-invalidation subscriber
// callback (spec §4.5's "invalidates its cache on updates").
func (c *Controller) InvalidateCache(ip string) {
	c.cache.Remove(ip)
}

func (c *Controller) ClearReports(ctx context.Context, ip string) {
	if err := c.store.ListDelete(ctx, fmt.Sprintf(reportKeyFmt, ip)); err != nil {
		c.logger.Error("abuse: clear reports failed", "ip", ip, "err", err)
	}
	if err := c.store.SetRemove(ctx, reportedIPsKey, ip); err != nil {
		c.logger.Error("abuse: reported-ips index remove failed", "ip", ip, "err", err)
	}
}

func (c *Controller) ReportCount(ctx context.Context, ip string) int {
	reports, err := c.store.ListAll(ctx, fmt.Sprintf(reportKeyFmt, ip))
	if err != nil {
		return 0
	}
	return len(reports)
}

// ListBans returns every currently banned IP and its recorded metadata,
// backing GET /admin/bans (spec §6.3). A ban whose ban_details hash is
// missing (evicted, never written) still shows up with its IP alone.
func (c *Controller) ListBans(ctx context.Context) ([]model.BanRecord, error) {
	ips, err := c.store.SetMembers(ctx, banSetKey)
	if err != nil {
		return nil, fmt.Errorf("abuse: list bans: %w", err)
	}
	records := make([]model.BanRecord, 0, len(ips))
	for _, ip := range ips {
		var record model.BanRecord
		if ok, err := c.store.HashGetJSON(ctx, fmt.Sprintf(banDetailsKeyFmt, ip), &record); err != nil || !ok {
			record = model.BanRecord{IP: ip}
		}
		records = append(records, record)
	}
	return records, nil
}

// ListReports returns every IP with at least one report on file and its
// current count, backing GET /admin/reports (spec §6.3).
func (c *Controller) ListReports(ctx context.Context) ([]ReportSummary, error) {
	ips, err := c.store.SetMembers(ctx, reportedIPsKey)
	if err != nil {
		return nil, fmt.Errorf("abuse: list reports: %w", err)
	}
	summaries := make([]ReportSummary, 0, len(ips))
	for _, ip := range ips {
		summaries = append(summaries, ReportSummary{IP: ip, Count: c.ReportCount(ctx, ip)})
	}
	return summaries, nil
}

func encodeReport(record model.ReportRecord) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("abuse: encode report: %w", err)
	}
	return string(data), nil
}
