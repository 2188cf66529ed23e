package notifier

import (
	"context"
	"fmt"
	"testing"
	"time"

	"jptraining-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeSender struct {
	sent   []sentMail
	broken map[string]bool
}

func (f *fakeSender) Send(to, subject string, htmlBody []byte) error {
	if f.broken[to] {
		return fmt.Errorf("mailbox unavailable")
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: string(htmlBody)})
	return nil
}

type fakeSlots struct {
	slots []Slot
	after time.Time
}

func (f *fakeSlots) AvailableSlots(ctx context.Context, after time.Time) ([]Slot, error) {
	f.after = after
	return f.slots, nil
}

type fakeRecipients struct {
	recipients []Recipient
}

func (f *fakeRecipients) Recipients(ctx context.Context) ([]Recipient, error) {
	return f.recipients, nil
}

func setup(t testing.TB, slots []Slot, recipients []Recipient) (Service, *fakeSender, *fakeSlots, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/notifier")

	sender := &fakeSender{broken: map[string]bool{}}
	source := &fakeSlots{slots: slots}
	s := Service{
		mailer:     sender,
		slots:      source,
		recipients: &fakeRecipients{recipients: recipients},
		config:     Options{SiteBaseURL: "https://notify.example.test"},
	}
	return s, sender, source, cleanup
}

func TestNotifySubscribers(t *testing.T) {
	slots := []Slot{
		{Date: "2026-09-01", Start: "10:00", End: "11:00", Room: "A", Remain: 3},
		{Date: "2026-09-02", Start: "09:00", End: "10:00", Room: "B", Remain: 1},
	}
	recipients := []Recipient{
		{Email: "a@example.com", UnsubscribeToken: "token-a"},
		{Email: "b@example.com", UnsubscribeToken: "token-b"},
	}
	service, sender, source, cleanup := setup(t, slots, recipients)
	defer cleanup()

	err := service.NotifySubscribers(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, sender.sent, 2)
	require.Equal(t, "a@example.com", sender.sent[0].To)
	require.Equal(t, digestSubject, sender.sent[0].Subject)
	require.Contains(t, sender.sent[0].Body, "2026-09-01")
	require.Contains(t, sender.sent[0].Body, "10:00 - 11:00")
	require.Contains(t, sender.sent[0].Body, "Room A")
	require.Contains(t, sender.sent[0].Body,
		"https://notify.example.test/unsubscribe?token=token-a")
	require.Contains(t, sender.sent[1].Body,
		"https://notify.example.test/unsubscribe?token=token-b")

	// only slots beyond tomorrow are announced
	require.True(t, source.after.After(time.Now().Add(time.Hour*12)))
}

func TestNotifySubscribersSkipsWhenNothingIsOpen(t *testing.T) {
	service, sender, _, cleanup := setup(t, nil, []Recipient{
		{Email: "a@example.com"},
	})
	defer cleanup()

	err := service.NotifySubscribers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	require.Empty(t, sender.sent)
}

func TestNotifySubscribersContinuesPastBouncedMailbox(t *testing.T) {
	slots := []Slot{{Date: "2026-09-01", Start: "10:00", End: "11:00", Room: "A", Remain: 3}}
	recipients := []Recipient{
		{Email: "dead@example.com", UnsubscribeToken: "token-dead"},
		{Email: "live@example.com", UnsubscribeToken: "token-live"},
	}
	service, sender, _, cleanup := setup(t, slots, recipients)
	defer cleanup()
	sender.broken["dead@example.com"] = true

	err := service.NotifySubscribers(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, sender.sent, 1)
	require.Equal(t, "live@example.com", sender.sent[0].To)
}

func TestUnsubscribeURL(t *testing.T) {
	service := Service{config: Options{SiteBaseURL: "https://notify.example.test"}}
	require.Equal(t,
		"https://notify.example.test/unsubscribe?token=a%2Fb",
		service.UnsubscribeURL("a/b"))
}

func TestRenderDigestEscapesSlotText(t *testing.T) {
	body, err := RenderDigest([]Slot{
		{Date: "2026-09-01", Start: "10:00", End: "11:00", Room: `<script>`, Remain: 2},
	}, "https://notify.example.test/unsubscribe")
	if err != nil {
		t.Fatal(err)
	}
	require.NotContains(t, string(body), "<script>")
	require.Contains(t, string(body), "&lt;script&gt;")
}

func TestSlotBadgeColor(t *testing.T) {
	require.Equal(t, "#ee5a52", Slot{Remain: 0}.BadgeColor())
	require.Equal(t, "#ff9800", Slot{Remain: 1}.BadgeColor())
	require.Equal(t, "#4caf50", Slot{Remain: 2}.BadgeColor())
}
