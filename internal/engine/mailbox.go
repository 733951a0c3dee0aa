package engine

import (
	"context"
	"fmt"
	"log"
)

func (e *Engine) manual(ctx context.Context, r ManualCommand) Result {
	if r.SprayNum < 0 || r.SprayNum > 4 {
		return CommandError()
	}
	e.metrics.ManualCommandsTotal.Add(1)
	if err := e.mailbox.WriteCommand(ctx, r.DeviceID, r.SprayNum, r.Region); err != nil {
		// The app still gets its acknowledgement; the device will just see no command.
		e.storageError("write command", r.DeviceID, err)
	}
	log.Printf("[APP] Manual command stored: %d (%s) for %s", r.SprayNum, r.Region, r.DeviceID)

	text := fmt.Sprintf("수동분사 %d번 예약됨", r.SprayNum)
	return Result{Kind: KindManual, ScentCode: r.SprayNum, ResultText: text, Message: text}
}

func (e *Engine) poll(ctx context.Context, r PollRequest) Result {
	code, target, err := e.mailbox.ReadAndClearCommand(ctx, r.DeviceID)
	if err != nil {
		e.storageError("read command", r.DeviceID, err)
		code, target = 0, ""
	}

	if code <= 0 {
		e.metrics.PollsEmptyTotal.Add(1)
		return Result{Kind: KindPoll, ResultText: ResultNoCommand, Message: ResultNoCommand}
	}

	e.metrics.PollsDeliveredTotal.Add(1)
	text := fmt.Sprintf("예약명령 실행(%d)", code)
	if target != "" {
		text += "/" + target
	}
	log.Printf("[POLL] Delivering command %d (%s) to %s", code, target, r.DeviceID)
	return Result{Kind: KindPoll, ScentCode: code, TargetRegion: target, ResultText: text, Message: text}
}
