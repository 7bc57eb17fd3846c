package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lystun/payflo-sub003/internal/config"
)

// Bani is the Bani bank-transfer variant
type Bani struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewBani(cfg *config.ProviderConfig, client *http.Client) *Bani {
	return &Bani{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

func (b *Bani) Name() string { return "bani" }

type baniPayoutRequest struct {
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	BankCode     string `json:"receiver_bank_code"`
	AccountNo    string `json:"receiver_account_num"`
	AccountName  string `json:"receiver_account_name"`
	Reference    string `json:"payout_reference"`
	Narration    string `json:"transfer_note"`
	PayoutMethod string `json:"payout_method"`
}

type baniPayoutResponse struct {
	Status bool   `json:"status"`
	Ref    string `json:"payout_ref"`
	Detail string `json:"message"`
}

func (b *Bani) Payout(ctx context.Context, req PayoutRequest) (*PayoutResult, error) {
	body := baniPayoutRequest{
		Amount:       req.Amount,
		Currency:     req.Currency,
		BankCode:     req.BankCode,
		AccountNo:    req.AccountNo,
		AccountName:  req.AccountName,
		Reference:    req.Reference,
		Narration:    req.Narration,
		PayoutMethod: "bank_transfer",
	}

	var resp baniPayoutResponse
	if err := b.post(ctx, "/partner/payout/initiate_transfer", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("%w: %s", ErrPayoutDeclined, resp.Detail)
	}

	return &PayoutResult{ProviderRef: resp.Ref}, nil
}

type baniResolveResponse struct {
	Status      bool   `json:"status"`
	AccountName string `json:"account_name"`
	AccountNo   string `json:"account_number"`
}

func (b *Bani) Resolve(ctx context.Context, accountNo, bankCode string) (*ResolvedAccount, error) {
	body := map[string]string{
		"account_number": accountNo,
		"bank_code":      bankCode,
	}

	var resp baniResolveResponse
	if err := b.post(ctx, "/partner/payout/verify_bank_account", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, ErrAccountUnresolved
	}

	return &ResolvedAccount{AccountName: resp.AccountName, AccountNo: resp.AccountNo}, nil
}

func (b *Bani) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal bani request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build bani request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	httpResp, err := b.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("bani call failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("bani returned status %d", httpResp.StatusCode)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode bani response: %w", err)
	}
	return nil
}
