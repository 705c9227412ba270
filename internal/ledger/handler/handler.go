package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mastery/internal/ledger/models"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	"mastery/pkg/platform/httputil"
	"mastery/pkg/requestcontext"
)

// Service defines the ledger operations exposed over HTTP.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	Submit(ctx context.Context, inv models.Invocation, cmd models.SubmitCommand) (id.VerificationID, error)
	Update(ctx context.Context, inv models.Invocation, vid id.VerificationID, score, threshold int64) error
	GetVerification(ctx context.Context, vid id.VerificationID) (*models.Verification, error)
	GetVerificationCount(ctx context.Context) (uint64, error)
	CheckVerificationStatus(ctx context.Context, user id.Principal, courseID id.CourseID) (bool, error)
	GetVerificationUpdate(ctx context.Context, vid id.VerificationID) (*models.VerificationUpdate, error)
	GetCertificate(ctx context.Context, vid id.VerificationID) (*models.Certificate, error)
	GetConfig(ctx context.Context) (*models.Config, error)
	SetOracle(ctx context.Context, inv models.Invocation, p id.Principal) error
	SetRewardCollaborator(ctx context.Context, inv models.Invocation, p id.Principal) error
	SetNftCollaborator(ctx context.Context, inv models.Invocation, p id.Principal) error
	SetFee(ctx context.Context, inv models.Invocation, fee int64) error
	SetMaxVerifications(ctx context.Context, inv models.Invocation, maxVerifications int64) error
}

// HeightSource supplies the block height a request executes at.
type HeightSource interface {
	Height(ctx context.Context) id.BlockHeight
}

type Handler struct {
	service Service
	heights HeightSource
	logger  *slog.Logger
}

func New(service Service, heights HeightSource, logger *slog.Logger) *Handler {
	return &Handler{service: service, heights: heights, logger: logger}
}

// Register registers the ledger routes. Callers must mount them behind the
// principal auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications", h.HandleSubmit)
	r.Get("/verifications/count", h.HandleCount)
	r.Get("/verifications/{id}", h.HandleGetVerification)
	r.Put("/verifications/{id}", h.HandleUpdate)
	r.Get("/verifications/{id}/update", h.HandleGetUpdate)
	r.Get("/certificates/{id}", h.HandleGetCertificate)
	r.Get("/users/{principal}/courses/{courseID}/status", h.HandleCheckStatus)

	r.Get("/admin/config", h.HandleGetConfig)
	r.Put("/admin/oracle", h.handleSetPrincipal("oracle", h.service.SetOracle))
	r.Put("/admin/reward-collaborator", h.handleSetPrincipal("reward_collaborator", h.service.SetRewardCollaborator))
	r.Put("/admin/nft-collaborator", h.handleSetPrincipal("nft_collaborator", h.service.SetNftCollaborator))
	r.Put("/admin/fee", h.HandleSetFee)
	r.Put("/admin/max-verifications", h.HandleSetMaxVerifications)
}

// invocation builds the ledger call context from the authenticated caller
// and the current block height.
func (h *Handler) invocation(ctx context.Context) (models.Invocation, error) {
	caller, err := httputil.RequirePrincipal(ctx, h.logger)
	if err != nil {
		return models.Invocation{}, err
	}
	return models.Invocation{Caller: caller, BlockHeight: h.heights.Height(ctx)}, nil
}

// HandleSubmit records a new verification for the caller.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	inv, err := h.invocation(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vid, err := h.service.Submit(ctx, inv, req.ToCommand())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &SubmitResponse{VerificationID: uint64(vid)})
}

// HandleUpdate corrects the score and threshold of an existing verification.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	inv, err := h.invocation(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Update(ctx, inv, vid, *req.Score, *req.Threshold); err != nil {
		httputil.WriteError(w, err)
		return
	}

	v, err := h.service.GetVerification(ctx, vid)
	if err != nil || v == nil {
		h.logger.ErrorContext(ctx, "updated verification not readable",
			"error", err,
			"request_id", requestID,
			"verification_id", vid,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load verification"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}

func (h *Handler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	v, err := h.service.GetVerification(ctx, vid)
	if err != nil {
		h.logger.ErrorContext(ctx, "get verification failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", vid,
		)
		httputil.WriteError(w, err)
		return
	}
	if v == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "verification not found"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}

func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.service.GetVerificationCount(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get verification count failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &CountResponse{Count: count})
}

func (h *Handler) HandleGetUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.service.GetVerificationUpdate(ctx, vid)
	if err != nil {
		h.logger.ErrorContext(ctx, "get verification update failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", vid,
		)
		httputil.WriteError(w, err)
		return
	}
	if u == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "verification was never updated"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toUpdateResponse(u))
}

func (h *Handler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.service.GetCertificate(ctx, vid)
	if err != nil {
		h.logger.ErrorContext(ctx, "get certificate failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", vid,
		)
		httputil.WriteError(w, err)
		return
	}
	if c == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "certificate not found"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(c))
}

// HandleCheckStatus reports whether a user currently passes a course.
// Unknown users and courses read as not passed.
func (h *Handler) HandleCheckStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := id.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courseID, err := id.ParseCourseID(chi.URLParam(r, "courseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	passed, err := h.service.CheckVerificationStatus(ctx, user, courseID)
	if err != nil {
		h.logger.ErrorContext(ctx, "check verification status failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
			"course_id", courseID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{
		User:     user.Wire(),
		CourseID: int64(courseID),
		Passed:   passed,
	})
}

func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := h.service.GetConfig(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get config failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(cfg))
}

func (h *Handler) handleSetPrincipal(
	setting string,
	set func(ctx context.Context, inv models.Invocation, p id.Principal) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		inv, err := h.invocation(ctx)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		req, ok := httputil.DecodeAndPrepare[SetPrincipalRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		p, err := id.ParsePrincipal(req.Principal)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		if err := set(ctx, inv, p); err != nil {
			h.logger.WarnContext(ctx, "configuration change rejected",
				"error", err,
				"request_id", requestID,
				"caller", inv.Caller,
				"setting", setting,
			)
			httputil.WriteError(w, err)
			return
		}
		h.writeConfig(w, r)
	}
}

func (h *Handler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	inv, err := h.invocation(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetFee(ctx, inv, *req.Fee); err != nil {
		h.logger.WarnContext(ctx, "configuration change rejected",
			"error", err,
			"request_id", requestID,
			"caller", inv.Caller,
			"setting", "verification_fee",
		)
		httputil.WriteError(w, err)
		return
	}
	h.writeConfig(w, r)
}

func (h *Handler) HandleSetMaxVerifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	inv, err := h.invocation(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetMaxVerificationsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetMaxVerifications(ctx, inv, *req.MaxVerifications); err != nil {
		h.logger.WarnContext(ctx, "configuration change rejected",
			"error", err,
			"request_id", requestID,
			"caller", inv.Caller,
			"setting", "max_verifications",
		)
		httputil.WriteError(w, err)
		return
	}
	h.writeConfig(w, r)
}

// writeConfig answers a successful setter with the resulting configuration.
func (h *Handler) writeConfig(w http.ResponseWriter, r *http.Request) {
	h.HandleGetConfig(w, r)
}
