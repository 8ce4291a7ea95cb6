package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"SignalSentry/internal/collector"
	"SignalSentry/internal/model"
	"SignalSentry/internal/payment"
	"SignalSentry/internal/recorder"
	"SignalSentry/internal/scheduler"
	"SignalSentry/internal/store"
	"SignalSentry/internal/tracker"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]string // chat id -> messages
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[string][]string)}
}

func (f *fakeNotifier) Send(chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

func (f *fakeNotifier) lastFor(chatID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.sent[chatID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

type testEnv struct {
	server   *Server
	store    *store.Store
	fetcher  *collector.MockFetcher
	notifier *fakeNotifier
	payments *payment.NowPaymentsClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	st, err := store.NewStoreFromDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fetcher := &collector.MockFetcher{Price: 100}
	fn := newFakeNotifier()
	rec := recorder.NewNoopRecorder()
	tr := tracker.NewTracker(st, fetcher, fn, rec)
	sched := scheduler.NewScheduler(st, tr, fn)
	pay := payment.NewNowPaymentsClient("http://payments.invalid", "key", "topsecret", "", "")

	srv := New(st, collector.NewCollector(fetcher), tr, sched, fn, pay, rec,
		[]string{"BTC-USDT"}, map[string]float64{"1": 40, "2": 70})
	return &testEnv{server: srv, store: st, fetcher: fetcher, notifier: fn, payments: pay}
}

func postJSON(t *testing.T, h http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const ipnFinished = `{
	"payment_status": "finished",
	"payment_id": 42,
	"order_id": "111",
	"pay_amount": 39.5,
	"pay_currency": "usdt",
	"order_description": "{\"telegram_id\": \"111\"}"
}`

func telegramMessage(text string) string {
	return fmt.Sprintf(`{"message": {"text": %q, "chat": {"id": 111}, "from": {"id": 111, "first_name": "Ada"}}}`, text)
}

func TestNowPayments_BadSignatureRejected(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.server.Handler(), NowPaymentsRoute, ipnFinished,
		map[string]string{"x-nowpayments-sig": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = postJSON(t, env.server.Handler(), NowPaymentsRoute, ipnFinished, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNowPayments_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.server.Handler(), NowPaymentsRoute, ipnFinished,
		map[string]string{"x-nowpayments-sig": "topsecret"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNowPayments_ActivatesThirtyDaySubscription(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.store.GetOrCreateUser("111", store.UserInfo{})
	require.NoError(t, err)

	rr := postJSON(t, env.server.Handler(), NowPaymentsRoute, ipnFinished,
		map[string]string{"x-nowpayments-sig": "topsecret"})
	require.Equal(t, http.StatusOK, rr.Code)

	now := time.Now().UTC()
	sub, err := env.store.ActiveSubscriptionByStrategy(user.ID, model.StrategyAdvanced, now)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "42", sub.PaymentID)
	assert.Equal(t, 39.5, sub.Amount)
	assert.WithinDuration(t, now.AddDate(0, 0, 30), sub.EndDate, time.Minute)
	assert.Contains(t, env.notifier.lastFor("111"), "subscription is active until")

	// Replayed IPN must not stack a second subscription.
	rr = postJSON(t, env.server.Handler(), NowPaymentsRoute, ipnFinished,
		map[string]string{"x-nowpayments-sig": "topsecret"})
	require.Equal(t, http.StatusOK, rr.Code)
	subs, err := env.store.ActiveSubscriptions(user.ID, now)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestNowPayments_PendingStatusIgnored(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.store.GetOrCreateUser("111", store.UserInfo{})
	require.NoError(t, err)

	body := strings.Replace(ipnFinished, "finished", "waiting", 1)
	rr := postJSON(t, env.server.Handler(), NowPaymentsRoute, body,
		map[string]string{"x-nowpayments-sig": "topsecret"})
	require.Equal(t, http.StatusOK, rr.Code)

	subs, err := env.store.ActiveSubscriptions(user.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestTelegram_AdviceRequiresSubscription(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.server.Handler(), TelegramRoute, telegramMessage("/advice"), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, env.notifier.lastFor("111"), "Please subscribe first")
}

func TestTelegram_AdviceForSubscriber(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.store.GetOrCreateUser("111", store.UserInfo{})
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, env.store.CreateSubscription(&model.Subscription{
		UserID: user.ID, Strategy: model.StrategyAdvanced,
		StartDate: now.AddDate(0, 0, -1), EndDate: now.AddDate(0, 0, 29),
		Status: model.SubStatusActive,
	}))

	// The mock feed trends gently upward, so the last close sits above the
	// entry zone and no recommendation fires.
	rr := postJSON(t, env.server.Handler(), TelegramRoute, telegramMessage("/advice"), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, env.notifier.lastFor("111"), "No recommendations")
}

func TestTelegram_StartAndHelp(t *testing.T) {
	env := newTestEnv(t)

	postJSON(t, env.server.Handler(), TelegramRoute, telegramMessage("/start"), nil)
	assert.Contains(t, env.notifier.lastFor("111"), "Welcome Ada")

	postJSON(t, env.server.Handler(), TelegramRoute, telegramMessage("/help"), nil)
	assert.Contains(t, env.notifier.lastFor("111"), "/subscribe 1")
}

func TestTelegram_CancelSubscription(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.store.GetOrCreateUser("111", store.UserInfo{})
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, env.store.CreateSubscription(&model.Subscription{
		UserID: user.ID, Strategy: model.StrategyAdvanced,
		StartDate: now, EndDate: now.AddDate(0, 0, 30),
		Status: model.SubStatusActive,
	}))

	postJSON(t, env.server.Handler(), TelegramRoute, telegramMessage("/cancel 1"), nil)
	assert.Contains(t, env.notifier.lastFor("111"), "Subscription cancelled")

	ok, err := env.store.HasActiveSubscription(user.ID, model.StrategyAdvanced, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTelegram_WebhookTicksExpiry(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.store.GetOrCreateUser("222", store.UserInfo{})
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, env.store.CreateSubscription(&model.Subscription{
		UserID: user.ID, Strategy: model.StrategyAdvanced,
		StartDate: now.AddDate(0, 0, -40), EndDate: now.AddDate(0, 0, -10),
		Status: model.SubStatusActive,
	}))

	// Any inbound message runs a maintenance tick, which sweeps the lapsed
	// subscription before the command is handled.
	postJSON(t, env.server.Handler(), TelegramRoute, telegramMessage("/status"), nil)

	// The tick already expired the row, so a manual sweep finds nothing.
	n, err := env.store.ExpireSubscriptions(now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
