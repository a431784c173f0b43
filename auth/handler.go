package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

const dateLayout = "2006-01-02"

var errInvalidBirthDate = errors.New("birthDate must be formatted as YYYY-MM-DD")

type accountResponse struct {
	ID        ID        `json:"id"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	BirthDate string    `json:"birthDate,omitempty"`
}

type editAccountRequest struct {
	Username  *string `json:"username"`
	BirthDate *string `json:"birthDate"`
}

// NewRouter mounts every account and session handler under /v1.
func NewRouter(svc Service, logger *slog.Logger) http.Handler {
	router := httprouter.New()
	router.Handler(http.MethodPost, "/v1/users", RegisterAccountHandler(svc, logger))
	router.Handler(http.MethodGet, "/v1/users", ListAccountsHandler(svc, logger))
	router.Handler(http.MethodGet, "/v1/users/:id", GetAccountHandler(svc, logger))
	router.Handler(http.MethodPatch, "/v1/users/:id", EditAccountHandler(svc, logger))
	router.Handler(http.MethodPost, "/v1/sessions", LoginHandler(svc, logger))
	router.Handler(http.MethodDelete, "/v1/sessions/:id", LogoutHandler(svc, logger))
	return router
}

func RegisterAccountHandler(svc Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRegisterAccountRequest(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			encodeError(logger, errBadRequest(err), w)
			return
		}

		acc, err := svc.Register(r.Context(), req)
		if err != nil {
			encodeError(logger, err, w)
			return
		}

		loc := strings.TrimSuffix(r.URL.Path, "/")
		w.Header().Set("Location", fmt.Sprintf("%s/%s", loc, acc.ID))
		encodeAccount(w, http.StatusCreated, acc)
	})
}

func LoginHandler(svc Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeLoginRequest(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			encodeError(logger, errBadRequest(err), w)
			return
		}

		acc, err := svc.Authenticate(r.Context(), req)
		if err != nil {
			encodeError(logger, err, w)
			return
		}
		encodeAccount(w, http.StatusOK, acc)
	})
}

func LogoutHandler(svc Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		acc, err := svc.EndSession(r.Context(), pathID(r))
		if err != nil {
			encodeError(logger, err, w)
			return
		}
		encodeAccount(w, http.StatusOK, acc)
	})
}

func ListAccountsHandler(svc Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		accounts, err := svc.ListAll(r.Context())
		if err != nil {
			encodeError(logger, err, w)
			return
		}

		res := make([]accountResponse, 0, len(accounts))
		for _, acc := range accounts {
			res = append(res, toAccountResponse(acc))
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(res)
	})
}

func GetAccountHandler(svc Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		acc, err := svc.GetByID(r.Context(), pathID(r))
		if err != nil {
			encodeError(logger, err, w)
			return
		}
		encodeAccount(w, http.StatusOK, acc)
	})
}

func EditAccountHandler(svc Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		patch, err := decodeEditAccountRequest(r.Body)
		if err != nil {
			encodeError(logger, errBadRequest(err), w)
			return
		}

		acc, err := svc.Edit(r.Context(), pathID(r), patch)
		if err != nil {
			encodeError(logger, err, w)
			return
		}
		encodeAccount(w, http.StatusOK, acc)
	})
}

func pathID(r *http.Request) ID {
	return ID(httprouter.ParamsFromContext(r.Context()).ByName("id"))
}

func toAccountResponse(acc Account) accountResponse {
	res := accountResponse{
		ID:        acc.ID,
		Username:  acc.Username,
		Token:     acc.Token,
		Status:    acc.Presence.String(),
		CreatedAt: acc.CreatedAt,
	}
	if acc.BirthDate != nil {
		res.BirthDate = acc.BirthDate.Format(dateLayout)
	}
	return res
}

func encodeAccount(w http.ResponseWriter, status int, acc Account) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(toAccountResponse(acc))
}

type badRequestError struct {
	err error
}

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func errBadRequest(err error) error {
	return badRequestError{err: err}
}

func encodeError(logger *slog.Logger, err error, w http.ResponseWriter) {
	var bad badRequestError
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.As(err, &bad):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, ErrExistingUsername):
		w.WriteHeader(http.StatusConflict)
	default:
		if logger != nil {
			logger.Error("request failed", slog.Any("error", err))
		}
		w.WriteHeader(http.StatusInternalServerError)
	}
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func decodeRegisterAccountRequest(body io.ReadCloser) (registerAccountRequest, error) {
	req := registerAccountRequest{}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return registerAccountRequest{}, err
	}
	return req, nil
}

func decodeLoginRequest(body io.ReadCloser) (validateCredentialsRequest, error) {
	req := validateCredentialsRequest{}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return validateCredentialsRequest{}, err
	}
	return req, nil
}

func decodeEditAccountRequest(body io.ReadCloser) (Patch, error) {
	req := editAccountRequest{}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return Patch{}, err
	}

	p := Patch{Username: req.Username}
	if req.BirthDate != nil {
		d, err := time.Parse(dateLayout, *req.BirthDate)
		if err != nil {
			return Patch{}, errInvalidBirthDate
		}
		p.BirthDate = &d
	}
	return p, nil
}
