// Package handler runs the command pipeline: validate, admit, look up,
// assemble. It is transport-agnostic; adapters feed it CommandInput and
// deliver the Reply.
package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marketbrief/marketbrief/internal/boterr"
	"github.com/marketbrief/marketbrief/internal/ratelimit"
	"github.com/marketbrief/marketbrief/internal/respond"
	"github.com/marketbrief/marketbrief/internal/symbol"
	"github.com/marketbrief/marketbrief/models"
)

type Limiter interface {
	Allow(ctx context.Context, userID string) ratelimit.Decision
}

type Lookuper interface {
	Lookup(ctx context.Context, symbol string, days int) (*models.UnifiedResult, error)
}

type Handler struct {
	limiter     Limiter
	orch        Lookuper
	historyDays int
	logger      zerolog.Logger
}

func New(limiter Limiter, orch Lookuper, historyDays int) *Handler {
	if historyDays <= 0 {
		historyDays = 30
	}
	return &Handler{
		limiter:     limiter,
		orch:        orch,
		historyDays: historyDays,
		logger:      log.With().Str("component", "handler").Logger(),
	}
}

// Handle runs one command through the pipeline. It never returns an error:
// every failure becomes a formatted private reply.
func (h *Handler) Handle(ctx context.Context, cmd models.CommandInput) (reply models.Reply) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Str("command", cmd.Command).Msg("Recovered from panic in pipeline")
			reply = boterr.Format(boterr.New(boterr.Unknown, "Something went wrong. Please try again."))
		}
	}()

	var class symbol.Class
	switch cmd.Command {
	case "stock":
		class = symbol.ClassStock
	case "crypto":
		class = symbol.ClassCrypto
	default:
		return boterr.Format(boterr.Newf(boterr.InvalidInput, "Unknown command %q. Try /stock or /crypto.", cmd.Command))
	}

	// Validation happens before any I/O: the cheapest possible rejection.
	canonical, err := symbol.Validate(cmd.Options["symbol"], class)
	if err != nil {
		return boterr.Format(
			boterr.Newf(boterr.InvalidInput, "That doesn't look like a valid symbol (%s). Try something like AAPL or BTC.", err).
				WithSuggestions(symbol.Suggest(cmd.Options["symbol"])))
	}

	// Admission control before any upstream I/O.
	if d := h.limiter.Allow(ctx, cmd.UserID); !d.Allowed {
		return boterr.Format(boterr.Newf(boterr.RateLimited,
			"You're asking too fast. Try again in %ds.", d.RetryAfter))
	}

	res, err := h.orch.Lookup(ctx, canonical, h.historyDays)
	if err != nil {
		var be *boterr.Error
		if !errors.As(err, &be) {
			be = boterr.New(boterr.Unknown, "Something went wrong. Please try again.").
				WithMeta("cause", err.Error())
		}
		h.logger.Warn().
			Str("symbol", canonical).
			Str("kind", be.Kind.String()).
			Interface("meta", be.Meta).
			Msg("Lookup failed")
		return boterr.Format(be)
	}

	h.logger.Info().Str("symbol", canonical).Str("user", cmd.UserID).Msg("Lookup succeeded")
	return respond.Assemble(res)
}
