package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/kakeibo/internal/models"
)

func expense(id, groupID string) models.Expense {
	return models.Expense{ID: id, GroupID: groupID, Date: "2025-01-01", Payer: "Aki", Item: id, Amount: 100, Category: "食費"}
}

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_DeliversToGroupOnly(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	home := hub.Subscribe("home", 4)
	defer home.Close()
	other := hub.Subscribe("other", 4)
	defer other.Close()

	require.NoError(t, hub.Publish(ctx, Inserted(expense("e1", "home"), time.Unix(10, 0))))

	ev := receive(t, home)
	assert.Equal(t, EventInsert, ev.Type)
	assert.Equal(t, "e1", ev.ExpenseID)
	assert.Equal(t, int64(10), ev.At)

	select {
	case ev := <-other.Events():
		t.Fatalf("other group received %+v", ev)
	default:
	}
}

func TestHub_DropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()
	sub := hub.Subscribe("home", 1)
	defer sub.Close()

	require.NoError(t, hub.Publish(ctx, Deleted("home", "a", time.Now())))
	require.NoError(t, hub.Publish(ctx, Deleted("home", "b", time.Now())))

	assert.Equal(t, "a", receive(t, sub).ExpenseID)
	assert.Equal(t, int64(1), hub.Dropped())
}

func TestSubscription_Close(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("home", 0)
	assert.Equal(t, 1, hub.Subscribers("home"))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers("home"))

	_, open := <-sub.Events()
	assert.False(t, open)

	require.NoError(t, hub.Publish(context.Background(), Deleted("home", "x", time.Now())))
}

type recordingPublisher struct {
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func TestFanout(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("broker down")}
	ok := &recordingPublisher{}

	err := Fanout{failing, nil, ok}.Publish(context.Background(), Deleted("home", "x", time.Now()))

	assert.EqualError(t, err, "broker down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1, "later publishers still run")
}

func TestDecode(t *testing.T) {
	valid := []byte(`{"type":"delete","group_id":"home","expense_id":"e1","at":5,"origin":"peer"}`)

	ev, err := decode(valid, "me")
	require.NoError(t, err)
	assert.Equal(t, EventDelete, ev.Type)
	assert.Equal(t, "peer", ev.Origin)

	_, err = decode(valid, "peer")
	assert.ErrorIs(t, err, errOwnEvent)

	_, err = decode([]byte("not json"), "me")
	assert.Error(t, err)

	_, err = decode([]byte(`{"type":"insert","group_id":"home","expense_id":"e1"}`), "me")
	assert.Error(t, err, "insert without a record is invalid")
}
