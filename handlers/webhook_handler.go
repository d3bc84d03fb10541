package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"habitTrackerAPI/internal/logger"
	"habitTrackerAPI/internal/types/clerk"
	"habitTrackerAPI/services"
)

const webhookTolerance = 5 * time.Minute

var errBadSignature = errors.New("invalid webhook signature")

type WebhookHandler struct {
	userService *services.UserService
	secret      []byte
	now         func() time.Time
}

// NewWebhookHandler takes the Clerk signing secret in its "whsec_" form. An
// empty secret disables signature checks.
func NewWebhookHandler(userService *services.UserService, signingSecret string) (*WebhookHandler, error) {
	h := &WebhookHandler{userService: userService, now: time.Now}
	if signingSecret == "" {
		return h, nil
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(signingSecret, "whsec_"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode webhook secret: %w", err)
	}
	h.secret = key
	return h, nil
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := h.verify(r.Header, body); err != nil {
		logger.Warn("Webhook Handler: rejected delivery", "err", err)
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event clerk.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	var data clerk.UserData
	if event.Type == "user.created" || event.Type == "user.deleted" {
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ID == "" {
			respondWithError(w, http.StatusBadRequest, "Missing user id")
			return
		}
	}

	switch event.Type {
	case "user.created":
		if _, err := h.userService.GetProfile(ctx, data.ID); err != nil {
			respondWithServiceError(w, "Webhook Handler", err)
			return
		}
		logger.Info("Webhook Handler: user created", "clerk_id", data.ID)

	case "user.deleted":
		if err := h.userService.DeleteUser(ctx, data.ID); err != nil {
			respondWithServiceError(w, "Webhook Handler", err)
			return
		}
		logger.Info("Webhook Handler: user deleted", "clerk_id", data.ID)

	default:
		logger.Debug("Webhook Handler: unhandled event type", "type", event.Type)
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// verify checks a svix signature: base64 HMAC-SHA256 over
// "id.timestamp.body", one or more "v1,<sig>" entries in svix-signature.
func (h *WebhookHandler) verify(header http.Header, body []byte) error {
	if h.secret == nil {
		return nil
	}

	id := header.Get("svix-id")
	ts := header.Get("svix-timestamp")
	sigs := header.Get("svix-signature")
	if id == "" || ts == "" || sigs == "" {
		return fmt.Errorf("%w: missing headers", errBadSignature)
	}

	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", errBadSignature)
	}
	if skew := h.now().Sub(time.Unix(sec, 0)); math.Abs(float64(skew)) > float64(webhookTolerance) {
		return fmt.Errorf("%w: timestamp outside tolerance", errBadSignature)
	}

	expected := signWebhook(h.secret, id, ts, body)
	for _, candidate := range strings.Fields(sigs) {
		version, sig, ok := strings.Cut(candidate, ",")
		if ok && version == "v1" && hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return errBadSignature
}

func signWebhook(key []byte, id, ts string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + ts + "."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
