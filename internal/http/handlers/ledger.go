package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spendsmart/spendsmart/internal/cache"
	"github.com/spendsmart/spendsmart/internal/config"
	"github.com/spendsmart/spendsmart/internal/domain/ledger"
	"github.com/spendsmart/spendsmart/internal/http/middlewares"
)

type EntriesStore interface {
	Insert(ctx context.Context, kind ledger.Kind, e ledger.Entry) error
	ListByUser(ctx context.Context, kind ledger.Kind, userID string) ([]ledger.Entry, error)
}

// LedgerHandler serves both ledgers; each route fixes the Kind. Summaries
// are cached per user for a few seconds and invalidated on every write.
type LedgerHandler struct {
	entries   EntriesStore
	summaries *cache.Cache
}

func NewLedgerHandler(entries EntriesStore, summaries *cache.Cache) *LedgerHandler {
	return &LedgerHandler{entries: entries, summaries: summaries}
}

func (h *LedgerHandler) ListIncomes(ctx *gin.Context)    { h.list(ctx, ledger.KindIncome) }
func (h *LedgerHandler) ListExpenses(ctx *gin.Context)   { h.list(ctx, ledger.KindExpense) }
func (h *LedgerHandler) AddIncome(ctx *gin.Context)      { h.add(ctx, ledger.KindIncome, "Income added successfully") }
func (h *LedgerHandler) AddExpense(ctx *gin.Context)     { h.add(ctx, ledger.KindExpense, "Expense added successfully") }
func (h *LedgerHandler) IncomeSummary(ctx *gin.Context)  { h.summary(ctx, ledger.KindIncome) }
func (h *LedgerHandler) ExpenseSummary(ctx *gin.Context) { h.summary(ctx, ledger.KindExpense) }

func (h *LedgerHandler) list(ctx *gin.Context, kind ledger.Kind) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Unauthorized")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	// queries always filter by the session's user id, nothing else
	entries, err := h.entries.ListByUser(cctx, kind, userID)

	if err != nil {
		RespondInternal(ctx, "storage_error", "Server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": entries,
		"count": len(entries),
	})
}

func (h *LedgerHandler) add(ctx *gin.Context, kind ledger.Kind, message string) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Unauthorized")
		return
	}

	var req ledger.CreateEntryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	err := req.Validate()

	if err != nil {
		RespondBadRequest(ctx, "invalid_input", "Invalid data")
		return
	}

	entry := ledger.NewFromCreateRequest(userID, req)

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	err = h.entries.Insert(cctx, kind, entry)

	if err != nil {
		RespondInternal(ctx, "storage_error", "Server error")
		return
	}

	h.invalidateSummary(kind, userID)

	// the generated id stays server-side; clients re-fetch the list
	ctx.JSON(http.StatusCreated, gin.H{
		"message": message,
	})
}

func (h *LedgerHandler) summary(ctx *gin.Context, kind ledger.Kind) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Unauthorized")
		return
	}

	key := summaryCacheKey(kind, userID)

	if h.summaries != nil {
		if cached, ok := h.summaries.Get(key); ok {
			if totals, ok := cached.([]ledger.CategoryTotal); ok {
				ctx.JSON(http.StatusOK, gin.H{
					"items": totals,
					"count": len(totals),
				})
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	entries, err := h.entries.ListByUser(cctx, kind, userID)

	if err != nil {
		RespondInternal(ctx, "storage_error", "Server error")
		return
	}

	totals := ledger.AggregateByCategory(entries)

	if h.summaries != nil {
		h.summaries.Set(key, totals)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": totals,
		"count": len(totals),
	})
}

func (h *LedgerHandler) invalidateSummary(kind ledger.Kind, userID string) {
	if h.summaries != nil {
		h.summaries.Delete(summaryCacheKey(kind, userID))
	}
}

func summaryCacheKey(kind ledger.Kind, userID string) string {
	return "summary:" + string(kind) + ":" + userID
}
