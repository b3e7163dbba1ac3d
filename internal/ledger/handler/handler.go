package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/custody"
	"badgeledger/internal/ledger/fusion"
	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/registry"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/platform/httputil"
	"badgeledger/pkg/requestcontext"
)

// Service defines the ledger operations exposed over HTTP.
type Service interface {
	Rules() registry.Config
	Mint(ctx context.Context, req registry.MintRequest) (*models.Badge, error)
	DonateAndMint(ctx context.Context, req registry.DonationRequest) (*models.Badge, error)
	Transfer(ctx context.Context, tokenID id.BadgeID, from, to id.Account) (*models.Badge, error)
	Fuse(ctx context.Context, req fusion.Request) (*fusion.Result, error)
	Badge(ctx context.Context, tokenID id.BadgeID) (*models.Badge, error)
	BadgesByOwner(ctx context.Context, owner id.Account) ([]*models.Badge, error)
	Account(ctx context.Context, account id.Account) (*models.AccountState, error)
	List(ctx context.Context, tokenID id.BadgeID, seller id.Account, price decimal.Decimal) (*models.Listing, error)
	Cancel(ctx context.Context, listingID id.ListingID, caller id.Account) (*models.Listing, error)
	Buy(ctx context.Context, listingID id.ListingID, buyer id.Account, payment decimal.Decimal) (*models.Listing, error)
	Listing(ctx context.Context, listingID id.ListingID) (*models.Listing, error)
	Withdraw(ctx context.Context, projectID id.ProjectID, caller, recipient id.Account) (*custody.Withdrawal, error)
	RegisterProject(ctx context.Context, projectID id.ProjectID, owner id.Account) (*models.ProjectEscrow, error)
	Escrow(ctx context.Context, projectID id.ProjectID) (*models.ProjectEscrow, error)
	Balance(ctx context.Context, account id.Account) (decimal.Decimal, error)
}

// Middleware wraps a route group. Nil entries are skipped.
type Middleware func(http.Handler) http.Handler

// Guards are the middlewares applied per route group.
type Guards struct {
	Auth       Middleware
	Admin      Middleware
	ReadLimit  Middleware
	WriteLimit Middleware
}

// Handler serves the ledger API.
type Handler struct {
	ledger Service
	logger *slog.Logger
}

// New creates a ledger Handler.
func New(ledger Service, logger *slog.Logger) *Handler {
	return &Handler{ledger: ledger, logger: logger}
}

// Register mounts the ledger routes on r.
func (h *Handler) Register(r chi.Router, g Guards) {
	r.Group(func(r chi.Router) {
		use(r, g.ReadLimit)
		r.Get("/rules", h.handleRules)
		r.Get("/badges/{tokenID}", h.handleGetBadge)
		r.Get("/accounts/{account}", h.handleGetAccount)
		r.Get("/accounts/{account}/badges", h.handleListBadges)
		r.Get("/listings/{listingID}", h.handleGetListing)
		r.Get("/projects/{projectID}/escrow", h.handleGetEscrow)
	})

	r.Group(func(r chi.Router) {
		use(r, g.Auth)
		use(r, g.WriteLimit)
		r.Post("/donations", h.handleDonate)
		r.Post("/badges/{tokenID}/transfer", h.handleTransfer)
		r.Post("/fusions", h.handleFuse)
		r.Post("/listings", h.handleList)
		r.Post("/listings/{listingID}/cancel", h.handleCancel)
		r.Post("/listings/{listingID}/buy", h.handleBuy)
		r.Post("/projects/{projectID}/withdraw", h.handleWithdraw)
	})

	r.Route("/admin", func(r chi.Router) {
		use(r, g.Admin)
		r.Post("/badges", h.handleAdminMint)
		r.Put("/projects/{projectID}", h.handleRegisterProject)
	})
}

func use(r chi.Router, mw Middleware) {
	if mw != nil {
		r.Use(mw)
	}
}

// caller returns the authenticated account or writes 401.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Account, bool) {
	account := requestcontext.Account(r.Context())
	if account.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return account, true
}

// fail logs and writes err. Rule violations are client outcomes and log at
// warn; anything uncoded or internal logs at error.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := dErrors.CodeOf(err)
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "operation", op, "code", string(code)}
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		h.logger.ErrorContext(ctx, "ledger request failed", append(attrs, "error", err.Error())...)
	} else {
		h.logger.WarnContext(ctx, "ledger request rejected", append(attrs, "reason", err.Error())...)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := h.ledger.Rules()
	httputil.WriteJSON(w, http.StatusOK, RulesResponse{
		MaxBadgesPerOwner: rules.MaxBadgesPerOwner,
		CooldownSeconds:   int64(rules.Cooldown.Seconds()),
	})
}

func (h *Handler) handleGetBadge(w http.ResponseWriter, r *http.Request) {
	tokenID, err := id.ParseBadgeID(chi.URLParam(r, "tokenID"))
	if err != nil {
		h.fail(r.Context(), w, "get_badge", err)
		return
	}
	badge, err := h.ledger.Badge(r.Context(), tokenID)
	if err != nil {
		h.fail(r.Context(), w, "get_badge", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, badge)
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := id.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		h.fail(ctx, w, "get_account", err)
		return
	}
	state, err := h.ledger.Account(ctx, account)
	if err != nil {
		h.fail(ctx, w, "get_account", err)
		return
	}
	balance, err := h.ledger.Balance(ctx, account)
	if err != nil {
		h.fail(ctx, w, "get_account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(state, balance))
}

func (h *Handler) handleListBadges(w http.ResponseWriter, r *http.Request) {
	account, err := id.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		h.fail(r.Context(), w, "list_badges", err)
		return
	}
	badges, err := h.ledger.BadgesByOwner(r.Context(), account)
	if err != nil {
		h.fail(r.Context(), w, "list_badges", err)
		return
	}
	if badges == nil {
		badges = []*models.Badge{}
	}
	httputil.WriteJSON(w, http.StatusOK, BadgesResponse{Badges: badges})
}

func (h *Handler) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		h.fail(r.Context(), w, "get_listing", err)
		return
	}
	listing, err := h.ledger.Listing(r.Context(), listingID)
	if err != nil {
		h.fail(r.Context(), w, "get_listing", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleGetEscrow(w http.ResponseWriter, r *http.Request) {
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		h.fail(r.Context(), w, "get_escrow", err)
		return
	}
	escrow, err := h.ledger.Escrow(r.Context(), projectID)
	if err != nil {
		h.fail(r.Context(), w, "get_escrow", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, escrow)
}

func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donor, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req DonateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "donate", err)
		return
	}
	donation, err := req.toDonation(donor)
	if err != nil {
		h.fail(ctx, w, "donate", err)
		return
	}
	badge, err := h.ledger.DonateAndMint(ctx, donation)
	if err != nil {
		h.fail(ctx, w, "donate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, badge)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, ok := h.caller(w, r)
	if !ok {
		return
	}
	tokenID, err := id.ParseBadgeID(chi.URLParam(r, "tokenID"))
	if err != nil {
		h.fail(ctx, w, "transfer", err)
		return
	}
	var req TransferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "transfer", err)
		return
	}
	to, err := id.ParseAccount(req.To)
	if err != nil {
		h.fail(ctx, w, "transfer", err)
		return
	}
	badge, err := h.ledger.Transfer(ctx, tokenID, from, to)
	if err != nil {
		h.fail(ctx, w, "transfer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, badge)
}

func (h *Handler) handleFuse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req FuseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "fuse", err)
		return
	}
	result, err := h.ledger.Fuse(ctx, fusion.Request{
		TokenA:         req.TokenA,
		TokenB:         req.TokenB,
		Caller:         caller,
		NewMetadataRef: req.MetadataRef,
	})
	if err != nil {
		h.fail(ctx, w, "fuse", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FuseResponse{Badge: result.Badge, FromTier: result.FromTier})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req ListRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "list", err)
		return
	}
	listing, err := h.ledger.List(ctx, req.TokenID, seller, req.Price)
	if err != nil {
		h.fail(ctx, w, "list", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, listing)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		h.fail(ctx, w, "cancel", err)
		return
	}
	listing, err := h.ledger.Cancel(ctx, listingID, caller)
	if err != nil {
		h.fail(ctx, w, "cancel", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyer, ok := h.caller(w, r)
	if !ok {
		return
	}
	listingID, err := id.ParseListingID(chi.URLParam(r, "listingID"))
	if err != nil {
		h.fail(ctx, w, "buy", err)
		return
	}
	var req BuyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "buy", err)
		return
	}
	listing, err := h.ledger.Buy(ctx, listingID, buyer, req.Payment)
	if err != nil {
		h.fail(ctx, w, "buy", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		h.fail(ctx, w, "withdraw", err)
		return
	}
	var req WithdrawRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.fail(ctx, w, "withdraw", err)
			return
		}
	}
	var recipient id.Account
	if req.Recipient != "" {
		if recipient, err = id.ParseAccount(req.Recipient); err != nil {
			h.fail(ctx, w, "withdraw", err)
			return
		}
	}
	out, err := h.ledger.Withdraw(ctx, projectID, caller, recipient)
	if err != nil {
		h.fail(ctx, w, "withdraw", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WithdrawResponse{
		ProjectID: out.ProjectID,
		Amount:    out.Amount,
		Recipient: out.Recipient,
	})
}

func (h *Handler) handleAdminMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req MintRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "mint", err)
		return
	}
	mint, err := req.toMint()
	if err != nil {
		h.fail(ctx, w, "mint", err)
		return
	}
	badge, err := h.ledger.Mint(ctx, mint)
	if err != nil {
		h.fail(ctx, w, "mint", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, badge)
}

func (h *Handler) handleRegisterProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		h.fail(ctx, w, "register_project", err)
		return
	}
	var req RegisterProjectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "register_project", err)
		return
	}
	owner, err := id.ParseAccount(req.OwnerAddress)
	if err != nil {
		h.fail(ctx, w, "register_project", err)
		return
	}
	escrow, err := h.ledger.RegisterProject(ctx, projectID, owner)
	if err != nil {
		h.fail(ctx, w, "register_project", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, escrow)
}
