package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lystun/payflo-sub003/internal/config"
)

// NinePSB is the 9PSB bank-transfer variant. Unlike Bani it disburses from
// a named platform account, resolved once from configuration.
type NinePSB struct {
	baseURL            string
	apiKey             string
	disbursingAccount  string
	disbursingBankCode string
	client             *http.Client
}

func NewNinePSB(cfg *config.ProviderConfig, client *http.Client) *NinePSB {
	return &NinePSB{
		baseURL:            cfg.BaseURL,
		apiKey:             cfg.APIKey,
		disbursingAccount:  cfg.DisbursingAccount,
		disbursingBankCode: cfg.DisbursingBankCode,
		client:             client,
	}
}

func (p *NinePSB) Name() string { return "ninepsb" }

type ninePSBTransferRequest struct {
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	SenderAccount string `json:"senderAccountNumber"`
	BankCode      string `json:"beneficiaryBank"`
	AccountNo     string `json:"beneficiaryAccount"`
	AccountName   string `json:"beneficiaryName"`
	Reference     string `json:"transactionReference"`
	Narration     string `json:"narration"`
}

type ninePSBTransferResponse struct {
	Code      string `json:"responseCode"`
	Message   string `json:"responseMessage"`
	SessionID string `json:"sessionId"`
}

func (p *NinePSB) Payout(ctx context.Context, req PayoutRequest) (*PayoutResult, error) {
	body := ninePSBTransferRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		SenderAccount: p.disbursingAccount,
		BankCode:      req.BankCode,
		AccountNo:     req.AccountNo,
		AccountName:   req.AccountName,
		Reference:     req.Reference,
		Narration:     req.Narration,
	}

	var resp ninePSBTransferResponse
	if err := p.post(ctx, "/merchant/virtualaccount/wallet/other_banks_transfer", body, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "00" {
		return nil, fmt.Errorf("%w: %s (%s)", ErrPayoutDeclined, resp.Message, resp.Code)
	}

	return &PayoutResult{ProviderRef: resp.SessionID}, nil
}

type ninePSBEnquiryResponse struct {
	Code        string `json:"responseCode"`
	AccountName string `json:"accountName"`
	AccountNo   string `json:"accountNumber"`
}

func (p *NinePSB) Resolve(ctx context.Context, accountNo, bankCode string) (*ResolvedAccount, error) {
	body := map[string]string{
		"accountNumber": accountNo,
		"bankCode":      bankCode,
	}

	var resp ninePSBEnquiryResponse
	if err := p.post(ctx, "/merchant/virtualaccount/wallet/account_enquiry", body, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "00" {
		return nil, ErrAccountUnresolved
	}

	return &ResolvedAccount{AccountName: resp.AccountName, AccountNo: resp.AccountNo}, nil
}

func (p *NinePSB) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal 9psb request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build 9psb request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("9psb call failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("9psb returned status %d", httpResp.StatusCode)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode 9psb response: %w", err)
	}
	return nil
}
