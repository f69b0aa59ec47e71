package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"frauddetect/fraud"
)

//go:embed templates/index.html static
var assets embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"num":    formatInput,
	"amount": formatAmount,
}).ParseFS(assets, "templates/index.html"))

func staticHandler() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// inputField describes one numeric control of the form.
type inputField struct {
	Name  string
	Label string
	Value float64
}

type resultView struct {
	Probability     string
	Threshold       string
	Label           string
	IsFraud         bool
	BalanceDiffOrig float64
	BalanceDiffDest float64
}

type pageView struct {
	Types     []fraud.TransactionType
	Presets   []fraud.Preset
	Type      fraud.TransactionType
	Fields    []inputField
	Threshold float64
	Result    *resultView
	Error     string
}

func (h *Handlers) newPageView(tx fraud.Transaction, threshold float64) pageView {
	return pageView{
		Types:   fraud.TransactionTypes(),
		Presets: fraud.Presets(),
		Type:    tx.Type,
		Fields: []inputField{
			{Name: "amount", Label: "Amount", Value: tx.Amount},
			{Name: "oldbalanceOrg", Label: "Old Balance (Sender)", Value: tx.OldBalanceOrg},
			{Name: "newbalanceOrig", Label: "New Balance (Sender)", Value: tx.NewBalanceOrig},
			{Name: "oldbalanceDest", Label: "Old Balance (Receiver)", Value: tx.OldBalanceDest},
			{Name: "newbalanceDest", Label: "New Balance (Receiver)", Value: tx.NewBalanceDest},
		},
		Threshold: threshold,
	}
}

// handleForm renders the form, optionally pre-filled with a preset. The
// threshold query parameter carries the slider position across preset loads.
func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	tx := fraud.DefaultTransaction()
	threshold := h.defaultThreshold
	query := r.URL.Query()

	if v := strings.TrimSpace(query.Get("threshold")); v != "" {
		t, err := parseThreshold(v)
		if err == nil {
			err = fraud.ValidateThreshold(t)
		}
		if err != nil {
			view := h.newPageView(tx, threshold)
			view.Error = err.Error()
			h.render(w, r, http.StatusBadRequest, view)
			return
		}
		threshold = t
	}

	if name := query.Get("preset"); name != "" {
		preset, err := fraud.LookupPreset(name)
		if err != nil {
			view := h.newPageView(tx, threshold)
			view.Error = err.Error()
			h.render(w, r, http.StatusBadRequest, view)
			return
		}
		tx = preset
	}
	h.render(w, r, http.StatusOK, h.newPageView(tx, threshold))
}

func (h *Handlers) handleFormPredict(w http.ResponseWriter, r *http.Request) {
	tx, threshold, err := h.parseForm(r)
	if err != nil {
		view := h.newPageView(tx, threshold)
		view.Error = err.Error()
		h.render(w, r, http.StatusBadRequest, view)
		return
	}

	view := h.newPageView(tx, threshold)
	prediction, err := h.predictor.Predict(r.Context(), tx, threshold)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
			view.Error = "prediction failed, please retry"
		} else {
			view.Error = err.Error()
		}
		h.render(w, r, status, view)
		return
	}

	view.Result = &resultView{
		Probability:     formatPercent(prediction.Probability),
		Threshold:       formatThreshold(prediction.Threshold),
		Label:           prediction.Verdict.Label(),
		IsFraud:         prediction.Verdict == fraud.VerdictFraud,
		BalanceDiffOrig: prediction.Record.BalanceDiffOrig,
		BalanceDiffDest: prediction.Record.BalanceDiffDest,
	}
	h.render(w, r, http.StatusOK, view)
}

// parseForm reads the six inputs and the threshold, snapped to the slider
// step. Empty fields keep their defaults; the returned transaction reflects what parsed even on error so
// the form can be re-rendered.
func (h *Handlers) parseForm(r *http.Request) (fraud.Transaction, float64, error) {
	tx := fraud.DefaultTransaction()
	threshold := h.defaultThreshold
	if err := r.ParseForm(); err != nil {
		return tx, threshold, fmt.Errorf("%w: %v", fraud.ErrInvalidTransaction, err)
	}

	if v := strings.TrimSpace(r.PostForm.Get("type")); v != "" {
		tx.Type = fraud.TransactionType(v)
	}

	var errs []error
	parse := func(name string, dst *float64) {
		v := strings.TrimSpace(r.PostForm.Get(name))
		if v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", name, v))
			return
		}
		*dst = f
	}
	parse("amount", &tx.Amount)
	parse("oldbalanceOrg", &tx.OldBalanceOrg)
	parse("newbalanceOrig", &tx.NewBalanceOrig)
	parse("oldbalanceDest", &tx.OldBalanceDest)
	parse("newbalanceDest", &tx.NewBalanceDest)
	if v := strings.TrimSpace(r.PostForm.Get("threshold")); v != "" {
		t, err := parseThreshold(v)
		if err != nil {
			errs = append(errs, err)
		} else {
			threshold = t
		}
	}

	if len(errs) > 0 {
		return tx, threshold, fmt.Errorf("%w: %w", fraud.ErrInvalidTransaction, errors.Join(errs...))
	}
	return tx, threshold, nil
}

func parseThreshold(v string) (float64, error) {
	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("threshold: %q is not a number", v)
	}
	return fraud.SnapThreshold(t), nil
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, view pageView) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		h.logger.Error("render page failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
