package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/mmynk/kakeibo/internal/calculator"
	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) CreateUser(ctx context.Context, user *models.User) error { return nil }

func (f fakeUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func (f fakeUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return f[id], nil
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []*gomail.Message
	attempts int
	err      error
	// release, when set, holds every send until it is closed.
	release chan struct{}
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func (f *fakeSender) messages() []*gomail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*gomail.Message(nil), f.sent...)
}

func wait(t *testing.T, m *Mailer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
}

func testGroup() *models.Group {
	return &models.Group{
		ID:   "g1",
		Name: "Home",
		Members: []models.Member{
			{UserID: "u1", DisplayName: "A"},
			{UserID: "u2", DisplayName: "B"},
		},
	}
}

func testResult() ledger.SettleResult {
	expenses := []models.Expense{
		{Payer: "A", Amount: 3000},
		{Payer: "B", Amount: 500},
	}
	return ledger.SettleResult{
		Count:      2,
		SettledAt:  1700000000,
		Settlement: calculator.CalculateSettlement(expenses, []string{"A", "B"}),
	}
}

func TestMailer_SettlementCompleted(t *testing.T) {
	users := fakeUsers{
		"u1": {ID: "u1", Email: "a@example.com"},
		"u2": {ID: "u2", Email: "b@example.com"},
	}
	sender := &fakeSender{}
	m := NewMailer(Config{Enabled: true, Username: "bot@example.com", From: "Kakeibo"}, users, WithSender(sender))

	require.NoError(t, m.SettlementCompleted(context.Background(), testGroup(), testResult()))
	wait(t, m)
	sent := sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, []string{"a@example.com"}, sent[0].GetHeader("To"))
	assert.Equal(t, []string{"b@example.com"}, sent[1].GetHeader("To"))
	assert.Contains(t, sent[0].GetHeader("Subject")[0], "Home")
}

func TestMailer_DoesNotBlockOnSlowHost(t *testing.T) {
	sender := &fakeSender{release: make(chan struct{})}
	m := NewMailer(Config{Enabled: true}, fakeUsers{"u1": {ID: "u1", Email: "a@example.com"}}, WithSender(sender))

	returned := make(chan error, 1)
	go func() {
		returned <- m.SettlementCompleted(context.Background(), testGroup(), testResult())
	}()
	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("SettlementCompleted waited for the SMTP host")
	}
	assert.Empty(t, sender.messages())

	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Wait(short), context.DeadlineExceeded)

	close(sender.release)
	wait(t, m)
	assert.Len(t, sender.messages(), 1)
}

func TestMailer_SkipsMembersWithoutAccount(t *testing.T) {
	users := fakeUsers{"u1": {ID: "u1", Email: "a@example.com"}}
	sender := &fakeSender{}
	m := NewMailer(Config{Enabled: true}, users, WithSender(sender))

	group := testGroup()
	group.Members[1].UserID = ""
	require.NoError(t, m.SettlementCompleted(context.Background(), group, testResult()))
	wait(t, m)
	assert.Len(t, sender.messages(), 1)
}

func TestMailer_Disabled(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer(Config{Enabled: false}, fakeUsers{"u1": {Email: "a@example.com"}}, WithSender(sender))

	require.NoError(t, m.SettlementCompleted(context.Background(), testGroup(), testResult()))
	wait(t, m)
	assert.Empty(t, sender.messages())

	m = NewMailer(Config{Enabled: true}, fakeUsers{"u1": {Email: "a@example.com"}}, WithSender(sender))
	require.NoError(t, m.SettlementCompleted(context.Background(), testGroup(), ledger.SettleResult{}))
	wait(t, m)
	assert.Empty(t, sender.messages())
}

func TestMailer_SendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	m := NewMailer(Config{Enabled: true}, fakeUsers{"u1": {Email: "a@example.com"}}, WithSender(sender))

	require.NoError(t, m.SettlementCompleted(context.Background(), testGroup(), testResult()))
	wait(t, m)
	assert.Equal(t, 1, sender.attempts)

	msg := gomail.NewMessage()
	msg.SetHeader("To", "a@example.com")
	err := m.send("g1", []*gomail.Message{msg, msg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Contains(t, err.Error(), "a@example.com")
	assert.Equal(t, 3, sender.attempts)
}

func TestSettlementBody(t *testing.T) {
	body := settlementBody(testGroup(), testResult())
	assert.Contains(t, body, "精算件数: 2")
	assert.Contains(t, body, "合計: ¥3,500")
	assert.Contains(t, body, "B → A: ¥1,250")

	even := ledger.SettleResult{
		Count:      2,
		Settlement: calculator.CalculateSettlement([]models.Expense{{Payer: "A", Amount: 100}, {Payer: "B", Amount: 100}}, []string{"A", "B"}),
	}
	assert.True(t, strings.Contains(settlementBody(testGroup(), even), "お互いの支払いは均等です"))
}
