package http

import (
	"errors"
	"net/http"

	"github.com/askloop/askloop/pkg/domain/model/auth"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/usecase"
	"github.com/askloop/askloop/pkg/utils/errutil"
	"github.com/askloop/askloop/pkg/utils/safe"
)

// authInstallHandler starts the Slack install handshake by redirecting the
// browser to the authorize URL with a fresh state token embedded.
func authInstallHandler(authUC *usecase.AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authUC.Configured() {
			http.Error(w, "OAuth is not configured", http.StatusNotImplemented)
			return
		}

		intent := auth.StateIntent{
			RedirectURI: r.URL.Query().Get("redirect_uri"),
			RequestedBy: types.SlackUserID(r.URL.Query().Get("requested_by")),
		}
		url, err := authUC.InstallURL(r.Context(), intent)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}

// authCallbackHandler completes the handshake when Slack redirects back
func authCallbackHandler(authUC *usecase.AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			// The user cancelled on the Slack consent screen
			http.Error(w, "Installation cancelled: "+errMsg, http.StatusBadRequest)
			return
		}

		token := types.StateToken(r.URL.Query().Get("state"))
		code := r.URL.Query().Get("code")
		if token == "" || code == "" {
			http.Error(w, "Missing state or code parameter", http.StatusBadRequest)
			return
		}

		inst, err := authUC.HandleCallback(r.Context(), token, code)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrStateNotFound):
				http.Error(w, "Unknown or already used state token", http.StatusBadRequest)
			case errors.Is(err, usecase.ErrStateExpired):
				http.Error(w, "Installation session expired, please start again", http.StatusBadRequest)
			default:
				errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		safe.Write(r.Context(), w, []byte("Installed to workspace "+inst.TeamName+"\n"))
	}
}
