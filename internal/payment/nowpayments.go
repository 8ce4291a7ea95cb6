package payment

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultNowPaymentsURL is the production NowPayments API base.
const DefaultNowPaymentsURL = "https://api.nowpayments.io/v1"

// PaymentStatusFinished is the IPN status that activates a subscription.
const PaymentStatusFinished = "finished"

// NowPaymentsClient creates hosted invoices and verifies IPN callbacks.
type NowPaymentsClient struct {
	BaseURL     string
	APIKey      string
	IPNSecret   string
	CallbackURL string
	Client      *http.Client
}

// NewNowPaymentsClient creates a client with optional proxy support.
func NewNowPaymentsClient(baseURL, apiKey, ipnSecret, callbackURL, proxyURL string) *NowPaymentsClient {
	if baseURL == "" {
		baseURL = DefaultNowPaymentsURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &NowPaymentsClient{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		IPNSecret:   ipnSecret,
		CallbackURL: callbackURL,
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

// CreateInvoice creates a hosted invoice for one user and returns its URL.
// The Telegram id rides along in order_id and order_description so the IPN
// callback can find the user again.
func (c *NowPaymentsClient) CreateInvoice(telegramID string, amountUSD float64) (string, error) {
	desc, err := json.Marshal(map[string]string{"telegram_id": telegramID})
	if err != nil {
		return "", fmt.Errorf("marshal order description: %w", err)
	}
	payload := map[string]interface{}{
		"price_amount":      amountUSD,
		"price_currency":    "usd",
		"pay_currency":      "usdt",
		"order_id":          telegramID,
		"order_description": string(desc),
		"ipn_callback_url":  c.CallbackURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal invoice payload: %w", err)
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/invoice", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create invoice: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read invoice response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create invoice: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var invoice struct {
		InvoiceURL string `json:"invoice_url"`
	}
	if err := json.Unmarshal(respBody, &invoice); err != nil {
		return "", fmt.Errorf("decode invoice: %w", err)
	}
	if invoice.InvoiceURL == "" {
		return "", fmt.Errorf("create invoice: empty invoice_url")
	}
	return invoice.InvoiceURL, nil
}

// VerifySignature checks the x-nowpayments-sig header against the configured
// IPN secret. Plain comparison, matching the deployed gateway setup.
func (c *NowPaymentsClient) VerifySignature(sig string) bool {
	if c.IPNSecret == "" || sig == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(c.IPNSecret)) == 1
}

// IPNPayload is the NowPayments webhook body.
type IPNPayload struct {
	PaymentStatus    string      `json:"payment_status"`
	PaymentID        json.Number `json:"payment_id"`
	OrderID          string      `json:"order_id"`
	PayAmount        float64     `json:"pay_amount"`
	PayCurrency      string      `json:"pay_currency"`
	OrderDescription string      `json:"order_description"`
}

// TelegramID recovers the Telegram id embedded at invoice creation. The
// order_description carries it as JSON; older invoices put the bare id there.
func (p *IPNPayload) TelegramID() string {
	if p.OrderDescription != "" {
		var desc struct {
			TelegramID string `json:"telegram_id"`
		}
		if err := json.Unmarshal([]byte(p.OrderDescription), &desc); err == nil && desc.TelegramID != "" {
			return desc.TelegramID
		}
		if p.OrderID == "" {
			return p.OrderDescription
		}
	}
	return p.OrderID
}
