// internal/intake/rep-attribution/handler.go
package repattribution

import (
	"context"
	"net/url"
	"strings"

	"loan-intake/internal/common/logger"
	"loan-intake/pkg/registry"
)

const (
	Stage = "rep-attribution"
)

type Handler struct {
	directory *registry.Directory
	signer    *Signer
	logger    logger.Logger
}

func NewHandler(directory *registry.Directory, signer *Signer, log logger.Logger) *Handler {
	return &Handler{
		directory: directory,
		signer:    signer,
		logger:    log.WithFields(map[string]interface{}{"stage": Stage}),
	}
}

// Execute never fails: anything short of a known code with a matching
// signature degrades to no attribution.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	code := registry.NormalizeCode(input.Code)
	if code == "" {
		return &Output{Reason: ReasonNoCode}, nil
	}

	rep, ok := h.directory.Lookup(code)
	if !ok {
		h.logger.Info("unknown rep code dropped", map[string]interface{}{"code": code})
		return &Output{Reason: ReasonUnknownCode}, nil
	}

	if !h.signer.Verify(code, strings.TrimSpace(input.Signature)) {
		h.logger.Warn("rep signature mismatch, attribution dropped", map[string]interface{}{"code": code})
		return &Output{Reason: ReasonBadSignature}, nil
	}

	return &Output{Rep: &rep, Reason: ReasonAttributed}, nil
}

// Referral returns the hidden form values for a ?rep= link, or nil when the
// code is empty or unknown.
func (h *Handler) Referral(code string) *Referral {
	rep, ok := h.directory.Lookup(code)
	if !ok {
		return nil
	}
	return &Referral{
		Code:      rep.Code,
		Signature: h.signer.Sign(rep.Code),
		Rep:       rep,
	}
}

// Links lists every rep with a referral link, sorted by code.
func (h *Handler) Links(baseURL string) []RepLink {
	reps := h.directory.All()
	out := make([]RepLink, 0, len(reps))
	for _, r := range reps {
		out = append(out, RepLink{
			Code:  r.Code,
			Name:  r.Name,
			Email: r.Email,
			Link:  ReferralLink(baseURL, r.Code),
		})
	}
	return out
}

func ReferralLink(baseURL, code string) string {
	return strings.TrimSuffix(baseURL, "/") + "/?rep=" + url.QueryEscape(code)
}
