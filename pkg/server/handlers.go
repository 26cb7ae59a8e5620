package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nursecredx/credgate/pkg/credential"
	"github.com/nursecredx/credgate/pkg/ledger"
	"github.com/nursecredx/credgate/pkg/mirror"
	"github.com/nursecredx/credgate/pkg/qr"
	"github.com/nursecredx/credgate/pkg/resolver"
)

type mintRequest struct {
	URI         string   `json:"uri"`
	TransferFee *int     `json:"transferFee"`
	Taxon       int      `json:"taxon"`
	Flags       []string `json:"flags"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var request mintRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, ErrorCodeValidation, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(request.URI) == "" {
		writeError(w, ErrorCodeValidation, "uri is required")
		return
	}

	result, err := s.ledger.Mint(r.Context(), ledger.MintParams{
		URI:            request.URI,
		Taxon:          request.Taxon,
		Flags:          request.Flags,
		TransferFeeBps: request.TransferFee,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrFeeMismatch) {
			writeError(w, ErrorCodeValidation, err.Error())
			return
		}
		writeError(w, ErrorCodeUpstream, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"nfts":   s.currentHoldings(r),
	})
}

func (s *Server) handleNfts(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.holdings.GetAccountNfts(r.Context(), s.ledger.OperatorID(), s.ledger.CollectionID())
	if err != nil {
		writeError(w, ErrorCodeUpstream, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nfts": holdings})
}

type burnRequest struct {
	TokenID string `json:"tokenId"`
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	var request burnRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, ErrorCodeValidation, "invalid request body: "+err.Error())
		return
	}
	if _, _, err := ledger.ParseNftID(request.TokenID); err != nil {
		writeError(w, ErrorCodeValidation, err.Error())
		return
	}

	result, err := s.ledger.Burn(r.Context(), request.TokenID)
	if err != nil {
		writeError(w, ErrorCodeUpstream, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"nfts":   s.currentHoldings(r),
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, ErrorCodeValidation, "token identifier is required")
		return
	}

	result, err := s.verifier.Resolve(r.Context(), id)
	if err != nil {
		writeError(w, ErrorCodeUpstream, err.Error())
		return
	}
	if result.Status == resolver.StatusNotFound {
		writeError(w, ErrorCodeNotFound, "token "+id+" not found")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, ErrorCodeValidation, "token identifier is required")
		return
	}

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 2048 {
			writeError(w, ErrorCodeValidation, "size must be a positive integer up to 2048")
			return
		}
		size = parsed
	}

	image, err := qr.VerificationPNG(s.cfg.PublicBaseURL, id, size)
	if err != nil {
		writeError(w, ErrorCodeUpstream, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(image)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, ErrorCodeValidation, "invalid request body: "+err.Error())
		return
	}

	payload, err := buildPayload(body)
	if err != nil {
		writeError(w, ErrorCodeValidation, err.Error())
		return
	}

	uri, err := s.publishPayload(r, payload)
	if err != nil {
		writeError(w, ErrorCodeUpstream, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uri":     uri,
		"payload": payload,
	})
}

func (s *Server) handleUpdateURI(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, ErrorCodeValidation, "invalid request body: "+err.Error())
		return
	}

	tokenID, _ := body["tokenId"].(string)
	if _, _, err := ledger.ParseNftID(tokenID); err != nil {
		writeError(w, ErrorCodeValidation, err.Error())
		return
	}

	newURI, _ := body["uri"].(string)
	newURI = strings.TrimSpace(newURI)
	if newURI == "" {
		// No literal URI: rebuild the payload from the nested newPayload
		// object or the discrete fields, and republish it as a new
		// content-addressed object.
		source := body
		if nested, ok := body["newPayload"].(map[string]any); ok {
			source = nested
		}
		payload, err := buildPayload(source)
		if err != nil {
			writeError(w, ErrorCodeValidation, err.Error())
			return
		}
		newURI, err = s.publishPayload(r, payload)
		if err != nil {
			writeError(w, ErrorCodeUpstream, err.Error())
			return
		}
	}

	result, err := s.ledger.UpdateURI(r.Context(), tokenID, newURI)
	if err != nil {
		writeError(w, ErrorCodeUpstream, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"newUri": result.NewURI,
	})
}

// currentHoldings refreshes the holdings view after a mutation. A read
// failure must not mask the already-committed mutation, so it degrades to
// nil.
func (s *Server) currentHoldings(r *http.Request) []mirror.Nft {
	holdings, err := s.holdings.GetAccountNfts(r.Context(), s.ledger.OperatorID(), s.ledger.CollectionID())
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to refresh holdings after mutation")
		return nil
	}
	return holdings
}

func (s *Server) publishPayload(r *http.Request, payload credential.Payload) (string, error) {
	canonical, err := payload.Canonical()
	if err != nil {
		return "", err
	}

	name := "credential"
	if subject, ok := payload[credential.FieldSubject].(string); ok && subject != "" {
		name = "credential-" + subject
	}

	return s.publisher.Publish(r.Context(), canonical, name)
}

// reservedPayloadKeys are request fields consumed by the handlers
// themselves; everything else passes through as extension fields.
var reservedPayloadKeys = map[string]struct{}{
	"subject":        {},
	"holder":         {},
	"licenses":       {},
	"certs":          {},
	"certifications": {},
	"tokenId":        {},
	"uri":            {},
	"newPayload":     {},
}

func buildPayload(body map[string]any) (credential.Payload, error) {
	subject, _ := body["subject"].(string)
	holder, _ := body["holder"].(string)

	certifications := toStringSlice(body["certs"])
	if len(certifications) == 0 {
		certifications = toStringSlice(body["certifications"])
	}

	extras := make(map[string]any)
	for key, value := range body {
		if _, reserved := reservedPayloadKeys[key]; reserved {
			continue
		}
		extras[key] = value
	}

	return credential.Build(credential.BuildInput{
		Subject:        subject,
		Holder:         holder,
		Licenses:       toStringSlice(body["licenses"]),
		Certifications: certifications,
		Extras:         extras,
	})
}

func toStringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if text, ok := item.(string); ok && strings.TrimSpace(text) != "" {
			result = append(result, text)
		}
	}
	return result
}
