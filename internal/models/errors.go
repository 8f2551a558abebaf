package models

import (
	"errors"
	"fmt"
)

// GatewayErrorKind classifies market data gateway failures.
type GatewayErrorKind int

const (
	GatewayTransport GatewayErrorKind = iota
	GatewayProviderRejected
	GatewayDecode
)

func (k GatewayErrorKind) String() string {
	switch k {
	case GatewayTransport:
		return "Transport"
	case GatewayProviderRejected:
		return "ProviderRejected"
	case GatewayDecode:
		return "Decode"
	default:
		return fmt.Sprintf("GatewayErrorKind(%d)", int(k))
	}
}

// GatewayError is returned by every MarketDataGateway implementation.
type GatewayError struct {
	Kind       GatewayErrorKind
	Provider   string
	Symbol     string
	StatusCode int    // set for ProviderRejected
	Body       string // provider error body, set for ProviderRejected
	Err        error
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case GatewayProviderRejected:
		return fmt.Sprintf("%s rejected request for %s: status %d: %s", e.Provider, e.Symbol, e.StatusCode, e.Body)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s %s error for %s: %v", e.Provider, e.Kind, e.Symbol, e.Err)
		}
		return fmt.Sprintf("%s %s error for %s", e.Provider, e.Kind, e.Symbol)
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ExtractorErrorKind classifies metric extraction failures.
type ExtractorErrorKind int

const (
	ExtractorEmptySeries ExtractorErrorKind = iota
	ExtractorZeroOpening
)

func (k ExtractorErrorKind) String() string {
	switch k {
	case ExtractorEmptySeries:
		return "EmptySeries"
	case ExtractorZeroOpening:
		return "ZeroOpening"
	default:
		return fmt.Sprintf("ExtractorErrorKind(%d)", int(k))
	}
}

var (
	// ErrEmptySeries means the provider had no bars for the requested range.
	ErrEmptySeries = errors.New("series has no price bars")
	// ErrZeroOpening means the opening price is zero and no percentage change exists.
	ErrZeroOpening = errors.New("opening price is zero")
)

// ExtractorError is returned by the metric extractor.
type ExtractorError struct {
	Kind   ExtractorErrorKind
	Symbol string
}

func (e *ExtractorError) Error() string {
	return fmt.Sprintf("cannot compute metrics for %s: %v", e.Symbol, e.Unwrap())
}

func (e *ExtractorError) Unwrap() error {
	if e.Kind == ExtractorZeroOpening {
		return ErrZeroOpening
	}
	return ErrEmptySeries
}

// NarrativeErrorKind classifies narrative service failures.
type NarrativeErrorKind int

const (
	NarrativeTransport NarrativeErrorKind = iota
	NarrativeProviderRejected
	NarrativeMissingField
)

func (k NarrativeErrorKind) String() string {
	switch k {
	case NarrativeTransport:
		return "Transport"
	case NarrativeProviderRejected:
		return "ProviderRejected"
	case NarrativeMissingField:
		return "MissingField"
	default:
		return fmt.Sprintf("NarrativeErrorKind(%d)", int(k))
	}
}

// NarrativeError is returned by every NarrativeService implementation.
type NarrativeError struct {
	Kind       NarrativeErrorKind
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *NarrativeError) Error() string {
	switch e.Kind {
	case NarrativeProviderRejected:
		return fmt.Sprintf("%s narrative request rejected: status %d: %s", e.Provider, e.StatusCode, e.Body)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s narrative %s error: %v", e.Provider, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s narrative %s error", e.Provider, e.Kind)
	}
}

func (e *NarrativeError) Unwrap() error { return e.Err }

// RenderErrorKind classifies document renderer failures.
type RenderErrorKind int

const (
	RenderCompileFailed RenderErrorKind = iota
	RenderIOFailure
)

func (k RenderErrorKind) String() string {
	switch k {
	case RenderCompileFailed:
		return "CompileFailed"
	case RenderIOFailure:
		return "IOFailure"
	default:
		return fmt.Sprintf("RenderErrorKind(%d)", int(k))
	}
}

// RenderError is returned by every DocumentRenderer implementation.
type RenderError struct {
	Kind   RenderErrorKind
	Path   string
	Output string // tail of the compiler output, set for CompileFailed
	Err    error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("render %s failed for %s", e.Kind, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error { return e.Err }
