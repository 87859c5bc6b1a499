package queue

import (
	"encoding/json"
	"testing"

	"github.com/shopvd/backoffice/internal/config"
)

func TestDisabledClientDropsTasks(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderNotify(OrderNotifyPayload{OrderCode: "DH001"}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.EnqueueDailyReport(DailyReportPayload{Date: "2024-05-01"}); err != nil {
		t.Fatalf("disabled daily report should be a no-op: %v", err)
	}
}

func TestSheetsSyncTaskPayload(t *testing.T) {
	task, err := NewSheetsSyncTask(SheetsSyncPayload{Action: "registerCTV", Data: json.RawMessage(`{"referralCode":"CTV001"}`)})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskSheetsSync {
		t.Fatalf("task type want %s got %s", TaskSheetsSync, task.Type())
	}
	var payload SheetsSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.Action != "registerCTV" || string(payload.Data) != `{"referralCode":"CTV001"}` {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, DB: 2})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}
