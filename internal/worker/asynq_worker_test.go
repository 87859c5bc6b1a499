package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/provider"
	"github.com/shopvd/backoffice/internal/queue"
	"github.com/shopvd/backoffice/internal/service"

	"github.com/hibiken/asynq"
)

type recordingSheets struct {
	actions []string
	bodies  []string
}

func (r *recordingSheets) Sync(_ context.Context, action string, data json.RawMessage) error {
	r.actions = append(r.actions, action)
	r.bodies = append(r.bodies, string(data))
	return nil
}

func TestDueReportDate(t *testing.T) {
	// 2026-03-19 14:30 UTC = 21:30 ICT
	now := time.Date(2026, 3, 19, 14, 30, 0, 0, time.UTC)

	date, due := dueReportDate(now, 21, "")
	if !due || date != "2026-03-19" {
		t.Fatalf("expected due on 2026-03-19, got %q %v", date, due)
	}
	if _, due := dueReportDate(now, 21, "2026-03-19"); due {
		t.Fatalf("expected no repeat on the same day")
	}
	if _, due := dueReportDate(now, 22, ""); due {
		t.Fatalf("expected not due before report hour")
	}
	if _, due := dueReportDate(now, -1, ""); due {
		t.Fatalf("expected disabled report hour")
	}
	// 17:30 UTC 已是越南次日 00:30
	if date, due := dueReportDate(now.Add(3*time.Hour), 0, "2026-03-19"); !due || date != "2026-03-20" {
		t.Fatalf("expected next VN day, got %q %v", date, due)
	}
}

func TestHandleSheetsSyncForwardsPayload(t *testing.T) {
	sheets := &recordingSheets{}
	notifier := service.NewNotificationService(nil, nil, nil, nil, sheets, nil, "", 21)
	consumer := NewConsumer(&provider.Container{NotificationService: notifier})

	task, err := queue.NewSheetsSyncTask(queue.SheetsSyncPayload{
		Action: constants.SheetsActionOrder,
		Data:   json.RawMessage(`{"orderId":"DH001"}`),
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleSheetsSync(context.Background(), task); err != nil {
		t.Fatalf("handle sheets sync failed: %v", err)
	}
	if len(sheets.actions) != 1 || sheets.actions[0] != constants.SheetsActionOrder {
		t.Fatalf("unexpected actions %v", sheets.actions)
	}
	if sheets.bodies[0] != `{"orderId":"DH001"}` {
		t.Fatalf("unexpected body %s", sheets.bodies[0])
	}
}

func TestHandlersSkipInvalidPayloads(t *testing.T) {
	sheets := &recordingSheets{}
	notifier := service.NewNotificationService(nil, nil, nil, nil, sheets, nil, "", 21)
	consumer := NewConsumer(&provider.Container{NotificationService: notifier})
	ctx := context.Background()

	if err := consumer.handleSheetsSync(ctx, asynq.NewTask(queue.TaskSheetsSync, []byte(`{"action":""}`))); err != nil {
		t.Fatalf("expected empty action skipped, got %v", err)
	}
	if err := consumer.handleOrderNotify(ctx, asynq.NewTask(queue.TaskOrderNotify, []byte(`{"order_code":" "}`))); err != nil {
		t.Fatalf("expected empty order skipped, got %v", err)
	}
	if err := consumer.handleOrderEvent(ctx, asynq.NewTask(queue.TaskOrderEvent, []byte(`not-json`))); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if len(sheets.actions) != 0 {
		t.Fatalf("expected no sync calls, got %v", sheets.actions)
	}

	var empty *Consumer
	if err := empty.handleDailyReport(ctx, asynq.NewTask(queue.TaskDailyReport, nil)); err != nil {
		t.Fatalf("nil consumer should be a no-op, got %v", err)
	}
}
