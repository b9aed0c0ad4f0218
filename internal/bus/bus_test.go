package bus

import (
	"log/slog"
	"testing"
	"time"

	"relaybot/internal/domain"
)

func textEvent(sender domain.UserID, text string) domain.InboundEvent {
	return domain.InboundEvent{
		Sender:  sender,
		Payload: domain.Payload{Kind: domain.PayloadText, Text: text},
		Time:    time.Now(),
	}
}

func TestBus_PublishSubscribe(t *testing.T) {
	b := New(10, slog.Default())
	defer b.Close()

	b.Publish(textEvent(1001, "hello"))

	select {
	case ev := <-b.Subscribe():
		if ev.Sender != 1001 || ev.Payload.Text != "hello" {
			t.Fatalf("got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestBus_PreservesOrder(t *testing.T) {
	b := New(10, slog.Default())
	defer b.Close()

	for i := 0; i < 5; i++ {
		b.Publish(textEvent(domain.UserID(i), "m"))
	}
	sub := b.Subscribe()
	for i := 0; i < 5; i++ {
		ev := <-sub
		if ev.Sender != domain.UserID(i) {
			t.Fatalf("event %d from sender %d, want %d", i, ev.Sender, i)
		}
	}
}

func TestBus_PublishAfterCloseIsNoop(t *testing.T) {
	b := New(10, slog.Default())
	b.Close()

	// Must not panic on the closed channel.
	b.Publish(textEvent(1001, "late"))
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	b := New(10, slog.Default())
	b.Close()
	b.Close()
}
