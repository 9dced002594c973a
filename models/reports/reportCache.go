package reports

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/utils"
	"github.com/sirupsen/logrus"
)

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	biz, _ := utils.GetBusinessIdFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"field":          "slow_report",
		"name":           name,
		"ms":             d.Milliseconds(),
		"business_id":    biz,
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow report")
}

func reportCachePrefix(businessId string) string {
	return "report:" + businessId + ":"
}

// reportCacheKey is report:<business>:<name>:<sha1 of the filters>.
func reportCacheKey(name string, businessId string, filters any) (string, error) {
	b, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(b)
	return reportCachePrefix(businessId) + name + ":" + hex.EncodeToString(sum[:]), nil
}

// InvalidateReportCache drops every cached report of the business in ctx. Called after
// gate pass writes so the registers never trail the documents by a full TTL.
func InvalidateReportCache(ctx context.Context) {
	if !reportCacheEnabled() {
		return
	}
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return
	}
	if err := config.RemoveRedisKeysByPrefix(ctx, reportCachePrefix(businessId)); err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "InvalidateReportCache", "scan delete", businessId, err)
	}
}

// cachedReport serves build from Redis when the report cache is on. Cache failures fall
// through to build.
func cachedReport[T any](ctx context.Context, name string, filters any, build func() (*T, error)) (*T, error) {
	if !reportCacheEnabled() {
		return build()
	}
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	key, err := reportCacheKey(name, businessId, filters)
	if err != nil {
		return build()
	}
	var cached T
	if ok, err := cacheGet(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}
	result, err := build()
	if err != nil {
		return nil, err
	}
	if err := cacheSet(ctx, key, result, reportCacheTTL()); err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "cachedReport", "caching "+name, key, err)
	}
	return result, nil
}

func cacheGet[T any](ctx context.Context, key string, dest *T) (bool, error) {
	return config.GetRedisObject(ctx, key, dest)
}

func cacheSet(ctx context.Context, key string, obj any, ttl time.Duration) error {
	return config.SetRedisObject(ctx, key, obj, ttl)
}
