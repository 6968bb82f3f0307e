package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/usecase"
	"github.com/askloop/askloop/pkg/utils/errutil"
)

type ingestRequest struct {
	WorkspaceID   string   `json:"workspace_id"`
	WorkspaceName string   `json:"workspace_name"`
	ChannelID     string   `json:"channel_id"`
	AskedBy       string   `json:"asked_by"`
	MessageTS     string   `json:"message_ts"`
	ThreadTS      string   `json:"thread_ts,omitempty"`
	Text          string   `json:"text"`
	Keywords      []string `json:"keywords,omitempty"`

	IsSideConversation bool   `json:"is_side_conversation,omitempty"`
	SourceApp          string `json:"source_app,omitempty"`
	TicketID           string `json:"ticket_id,omitempty"`
}

type ingestResponse struct {
	QuestionID string `json:"question_id"`
	Created    bool   `json:"created"`
}

type questionRefRequest struct {
	WorkspaceID string `json:"workspace_id"`
	QuestionID  string `json:"question_id"`
	AnsweredBy  string `json:"answered_by,omitempty"`
}

// questionIngestHandler records a detected question. Duplicate delivery of
// the same message responds 200 with created=false instead of an error.
func questionIngestHandler(questionUC *usecase.QuestionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		q, created, err := questionUC.Ingest(r.Context(), usecase.IngestInput{
			WorkspaceID:        types.WorkspaceID(req.WorkspaceID),
			WorkspaceName:      req.WorkspaceName,
			ChannelID:          types.ChannelID(req.ChannelID),
			AskedBy:            types.SlackUserID(req.AskedBy),
			MessageTS:          types.MessageTS(req.MessageTS),
			ThreadTS:           types.MessageTS(req.ThreadTS),
			Text:               req.Text,
			Keywords:           req.Keywords,
			AskedAt:            types.MessageTS(req.MessageTS).Time(),
			IsSideConversation: req.IsSideConversation,
			SourceApp:          req.SourceApp,
			TicketID:           req.TicketID,
		})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, ingestResponse{
			QuestionID: q.ID.String(),
			Created:    created,
		})
	}
}

func questionAnswerHandler(questionUC *usecase.QuestionUseCase) http.HandlerFunc {
	return questionMutationHandler(func(r *http.Request, req questionRefRequest) error {
		return questionUC.Answer(r.Context(),
			types.WorkspaceID(req.WorkspaceID),
			types.QuestionID(req.QuestionID),
			types.SlackUserID(req.AnsweredBy))
	})
}

func questionDismissHandler(questionUC *usecase.QuestionUseCase) http.HandlerFunc {
	return questionMutationHandler(func(r *http.Request, req questionRefRequest) error {
		return questionUC.Dismiss(r.Context(),
			types.WorkspaceID(req.WorkspaceID),
			types.QuestionID(req.QuestionID))
	})
}

func questionPauseHandler(questionUC *usecase.QuestionUseCase) http.HandlerFunc {
	return questionMutationHandler(func(r *http.Request, req questionRefRequest) error {
		return questionUC.Pause(r.Context(),
			types.WorkspaceID(req.WorkspaceID),
			types.QuestionID(req.QuestionID))
	})
}

func questionMutationHandler(mutate func(*http.Request, questionRefRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionRefRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.WorkspaceID == "" || req.QuestionID == "" {
			http.Error(w, "workspace_id and question_id are required", http.StatusBadRequest)
			return
		}

		if err := mutate(r, req); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				http.Error(w, "Question not found", http.StatusNotFound)
				return
			}
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func statsHandler(statsUC *usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID := types.WorkspaceID(chi.URLParam(r, "workspaceID"))

		since := time.Now().AddDate(0, 0, -30)
		if v := r.URL.Query().Get("since"); v != "" {
			parsed, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, "Invalid since parameter, want RFC3339", http.StatusBadRequest)
				return
			}
			since = parsed
		}

		stats, err := statsUC.Compute(r.Context(), workspaceID, since)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, goerr.Wrap(err, "failed to marshal response").Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}
