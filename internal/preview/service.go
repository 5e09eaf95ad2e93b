// Package preview assembles the unpersisted draft view of uploaded
// statement files: parse, validate, suggest. It performs no writes, so a
// preview can be retried freely.
package preview

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/id"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/importer"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/store"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/suggest"
)

// recentLimit caps the prior-transaction context returned per account.
const recentLimit = 20

// FileUpload is one uploaded statement file.
type FileUpload struct {
	Filename  string `json:"filename"`
	AccountID string `json:"account_id"`
	Content   string `json:"content"` // base64-encoded spreadsheet bytes
}

// Request is the preview input.
type Request struct {
	Files []FileUpload `json:"files"`
}

// FileView describes one previewed file.
type FileView struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	AccountID   string           `json:"account_id"`
	BankFormat  string           `json:"bank_format"`
	RowCount    int              `json:"row_count"`
	ErrorCount  int              `json:"error_count"`
	Errors      []model.RowError `json:"errors"`
	PreviewRows int              `json:"preview_rows"`
	Status      model.FileStatus `json:"status"`
}

// RowView is one draft row with its full suggestion payload.
type RowView struct {
	ID                    string                        `json:"id"`
	FileID                string                        `json:"file_id"`
	RowNumber             int                           `json:"row_number"`
	AccountID             string                        `json:"account_id"`
	Date                  string                        `json:"date"`
	Amount                string                        `json:"amount"`
	Description           string                        `json:"description"`
	SuggestedCategory     *model.CategorySuggestion     `json:"suggested_category,omitempty"`
	SuggestedSubscription *model.SubscriptionSuggestion `json:"suggested_subscription,omitempty"`
	TransferMatch         *model.TransferMatch          `json:"transfer_match,omitempty"`
	RuleApplied           bool                          `json:"rule_applied"`
	RuleType              string                        `json:"rule_type,omitempty"`
	RuleSummary           string                        `json:"rule_summary,omitempty"`
}

// RecentTransaction is a prior transaction shown as operator context.
type RecentTransaction struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	OccurredAt  string `json:"occurred_at"`
	CategoryID  string `json:"category_id,omitempty"`
}

// AccountContext carries per-account review context.
type AccountContext struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	BankFormat string              `json:"bank_format"`
	Recent     []RecentTransaction `json:"recent"`
}

// Response is the complete draft view. Nothing in it is persisted.
type Response struct {
	Files    []FileView       `json:"files"`
	Rows     []RowView        `json:"rows"`
	Accounts []AccountContext `json:"accounts"`
}

// Service orchestrates preview. It only reads from the store.
type Service struct {
	store  store.Store
	engine *suggest.Engine
	log    zerolog.Logger
}

// New creates a preview Service.
func New(st store.Store, engine *suggest.Engine, log zerolog.Logger) *Service {
	return &Service{store: st, engine: engine, log: log}
}

// Preview parses and annotates every uploaded file. Per-file problems are
// reported inline on the file entry; only repository failures make
// Preview itself return an error.
func (s *Service) Preview(ctx context.Context, req Request) (*Response, error) {
	activeRules, err := s.store.Rules().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	categories, err := s.store.Categories().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	subs, err := s.store.Subscriptions().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading subscriptions: %w", err)
	}

	resp := &Response{}
	var accountOrder []string
	seenAccounts := make(map[string]model.Account)

	for _, upload := range req.Files {
		fileID := id.New()
		view := FileView{
			ID:        fileID,
			Filename:  upload.Filename,
			AccountID: upload.AccountID,
		}

		account, rows, errs := s.parseFile(ctx, upload)
		view.BankFormat = string(account.BankFormat)
		view.RowCount = len(rows)
		view.ErrorCount = len(errs)
		view.Errors = errs
		view.PreviewRows = len(rows)
		switch {
		case len(errs) > 0:
			view.Status = model.FileStatusError
		case len(rows) == 0:
			view.Status = model.FileStatusEmpty
		default:
			view.Status = model.FileStatusReady
		}

		if account.ID != "" {
			if _, ok := seenAccounts[account.ID]; !ok {
				seenAccounts[account.ID] = account
				accountOrder = append(accountOrder, account.ID)
			}
		}

		drafts := make([]model.DraftRow, len(rows))
		for i, r := range rows {
			drafts[i] = model.DraftRow{
				FileID:      fileID,
				RowIndex:    i + 1,
				AccountID:   upload.AccountID,
				Date:        r.Date,
				Description: r.Description,
				Amount:      r.Amount,
			}
		}
		s.engine.Annotate(drafts, activeRules, categories, subs)

		for _, d := range drafts {
			resp.Rows = append(resp.Rows, RowView{
				ID:                    id.New(),
				FileID:                d.FileID,
				RowNumber:             d.RowIndex,
				AccountID:             d.AccountID,
				Date:                  d.Date.Format("2006-01-02"),
				Amount:                d.Amount.StringFixed(2),
				Description:           d.Description,
				SuggestedCategory:     d.Category,
				SuggestedSubscription: d.Subscription,
				TransferMatch:         d.Transfer,
				RuleApplied:           d.RuleApplied,
				RuleType:              d.RuleType,
				RuleSummary:           d.RuleSummary,
			})
		}
		resp.Files = append(resp.Files, view)

		s.log.Debug().Str("file", upload.Filename).Int("rows", len(rows)).
			Int("errors", len(errs)).Msg("previewed file")
	}

	for _, accountID := range accountOrder {
		accCtx, err := s.accountContext(ctx, seenAccounts[accountID])
		if err != nil {
			return nil, err
		}
		resp.Accounts = append(resp.Accounts, accCtx)
	}
	return resp, nil
}

// parseFile resolves the upload's account and runs the bank parser.
// Problems are returned as row errors, never as a failure.
func (s *Service) parseFile(ctx context.Context, upload FileUpload) (model.Account, []model.StatementRow, []model.RowError) {
	account, err := s.store.Accounts().Get(ctx, upload.AccountID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, nil, []model.RowError{{RowNumber: 0, Message: fmt.Sprintf("account %q not found", upload.AccountID)}}
	}
	if err != nil {
		return model.Account{}, nil, []model.RowError{{RowNumber: 0, Message: fmt.Sprintf("looking up account: %v", err)}}
	}
	if account.BankFormat == "" {
		return account, nil, []model.RowError{{RowNumber: 0, Message: fmt.Sprintf("account %q has no bank format configured", account.Name)}}
	}

	data, err := base64.StdEncoding.DecodeString(upload.Content)
	if err != nil {
		return account, nil, []model.RowError{{RowNumber: 0, Message: fmt.Sprintf("decoding file content: %v", err)}}
	}

	rows, errs := importer.Parse(data, upload.Filename, account.BankFormat)
	return account, rows, errs
}

func (s *Service) accountContext(ctx context.Context, account model.Account) (AccountContext, error) {
	recent, err := s.store.Transactions().ListRecentByAccount(ctx, account.ID, recentLimit)
	if err != nil {
		return AccountContext{}, fmt.Errorf("loading recent transactions for %s: %w", account.ID, err)
	}

	out := AccountContext{
		ID:         account.ID,
		Name:       account.Name,
		BankFormat: string(account.BankFormat),
	}
	for _, t := range recent {
		amount := accountLegAmount(t, account.ID)
		rt := RecentTransaction{
			ID:          t.ID,
			Description: t.Description,
			Amount:      amount.StringFixed(2),
			OccurredAt:  t.OccurredAt.Format("2006-01-02"),
		}
		if t.CategoryID != nil {
			rt.CategoryID = *t.CategoryID
		}
		out.Recent = append(out.Recent, rt)
	}
	return out, nil
}

// accountLegAmount nets the transaction's legs against one account.
func accountLegAmount(t model.Transaction, accountID string) decimal.Decimal {
	amount := decimal.Zero
	for _, leg := range t.Legs {
		if leg.AccountID == accountID {
			amount = amount.Add(leg.Amount)
		}
	}
	return amount
}
