package payments

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/refurbmart/refurbmart-backend/api/responses"
	internalpayments "github.com/refurbmart/refurbmart-backend/internal/payments"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
	"github.com/refurbmart/refurbmart-backend/pkg/logger"
)

// CallbackHandler settles one gateway callback.
type CallbackHandler interface {
	Handle(ctx context.Context, cb internalpayments.Callback) (*internalpayments.CallbackResult, error)
}

// Redirect results appended to the frontend's /payment/ path.
const (
	resultSuccess   = "success"
	resultFailed    = "failed"
	resultCancelled = "cancelled"
)

// SSLCommerzCallback receives the gateway's browser redirects and IPN posts.
// Browser callbacks end in a 302 to the storefront; the IPN gets JSON.
func SSLCommerzCallback(svc CallbackHandler, frontendURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := internalpayments.ParseCallbackKind(chi.URLParam(r, "kind"))
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown callback"))
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment callbacks unavailable"))
			return
		}
		if err := r.ParseForm(); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback payload"))
			return
		}

		cb := internalpayments.Callback{
			Kind:          kind,
			TransactionID: strings.TrimSpace(r.Form.Get("tran_id")),
			ValID:         strings.TrimSpace(r.Form.Get("val_id")),
			Amount:        strings.TrimSpace(r.Form.Get("amount")),
			Currency:      strings.TrimSpace(r.Form.Get("currency")),
			Status:        strings.TrimSpace(r.Form.Get("status")),
			Payload:       formPayload(r.Form),
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"callback_kind":  string(kind),
				"transaction_id": cb.TransactionID,
			})
		}

		result, err := svc.Handle(ctx, cb)
		if kind == internalpayments.CallbackIPN {
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccess(w, result)
			return
		}

		if err != nil {
			if logg != nil {
				logg.Error(ctx, "payment.callback.error", err)
			}
			if frontendURL == "" {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			http.Redirect(w, r, redirectURL(frontendURL, resultFailed, "", cb.TransactionID, "error"), http.StatusFound)
			return
		}
		if frontendURL == "" {
			responses.WriteSuccess(w, result)
			return
		}
		http.Redirect(w, r, redirectURL(frontendURL, redirectResult(kind, result), result.OrderID.String(), result.TransactionID, string(result.Status)), http.StatusFound)
	}
}

func redirectResult(kind internalpayments.CallbackKind, result *internalpayments.CallbackResult) string {
	switch {
	case result.Status == enums.TransactionStatusCompleted:
		return resultSuccess
	case kind == internalpayments.CallbackCancel && !result.AlreadyProcessed:
		return resultCancelled
	default:
		return resultFailed
	}
}

func redirectURL(frontendURL, result, orderID, transactionID, status string) string {
	q := url.Values{}
	if orderID != "" {
		q.Set("order_id", orderID)
	}
	if transactionID != "" {
		q.Set("transaction_id", transactionID)
	}
	q.Set("status", status)
	return strings.TrimRight(frontendURL, "/") + "/payment/" + result + "?" + q.Encode()
}

// formPayload keeps the first value of every posted field for the
// transaction's gateway_response audit trail.
func formPayload(form url.Values) map[string]any {
	out := make(map[string]any, len(form))
	for key, values := range form {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}
