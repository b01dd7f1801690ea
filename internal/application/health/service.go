package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"marketplace-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// CollectResult is the body of /health/json.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB    int `json:"allocMb"`
	HeapUsedMB int `json:"heapUsedMb"`
}

type TrafficInfo struct {
	TotalRequests   int                    `json:"totalRequests"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	SuccessRate     string                 `json:"successRate"`
	AvgResponseTime string                 `json:"avgResponseTime"`
	LastRequest     map[string]interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// PingTimeout bounds each dependency ping.
const PingTimeout = 2 * time.Second

// CollectHealth pings the store and Redis and reads the traffic counters kept by
// middleware.HealthMarker.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger) CollectResult {
	result := CollectResult{Dependencies: make(map[string]DepStatus)}

	dbStatus := DepStatus{Status: "disconnected"}
	if db != nil {
		dbStatus = ping(ctx, db.PingContext)
	}
	result.Dependencies["database"] = dbStatus

	redisStatus := DepStatus{Status: "disconnected"}
	stats := TrafficInfo{AvgResponseTime: "0", SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()
	if rdb != nil {
		redisStatus = ping(ctx, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		if redisStatus.Status == "connected" {
			startTimeMs = readTraffic(ctx, rdb, &stats, startTimeMs)
		}
	}
	result.Dependencies["redis"] = redisStatus
	result.Traffic = stats

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapUsedMB: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	result.Status = "issue"
	if dbStatus.Status == "connected" && redisStatus.Status == "connected" {
		result.Status = "ok"
	}
	return result
}

func ping(ctx context.Context, fn func(context.Context) error) DepStatus {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	start := time.Now()
	if err := fn(ctx); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

// readTraffic fills stats and returns the recorded start time, initializing it when unset.
func readTraffic(ctx context.Context, rdb *redis.Client, stats *TrafficInfo, now int64) int64 {
	vals, err := rdb.MGet(ctx,
		middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq,
	).Result()
	if err != nil {
		return now
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	startTimeMs := now
	if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		startTimeMs = t
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, now, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(str(0))
	stats.FailedCount, _ = strconv.Atoi(str(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	if count, _ := strconv.Atoi(str(3)); count > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		_ = json.Unmarshal([]byte(last), &stats.LastRequest)
	}
	return startTimeMs
}

// ResetKeys are the counters cleared by /reset.
func ResetKeys() []string {
	return []string{
		middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime, middleware.KeyResCount,
		middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog,
	}
}

// Reset clears the traffic counters and restarts the uptime clock.
func Reset(ctx context.Context, rdb *redis.Client) error {
	if err := rdb.Del(ctx, ResetKeys()...).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err()
}

// RecentErrors returns the last n entries of the 5xx error log, newest first.
func RecentErrors(ctx context.Context, rdb *redis.Client, n int64) ([]map[string]interface{}, error) {
	entries, err := rdb.LRange(ctx, middleware.KeyErrorLog, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}
