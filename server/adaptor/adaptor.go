package adaptor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ponyo877/livetalk/server/domain"
	"github.com/ponyo877/livetalk/server/repository"
)

// Adaptor exposes the REST surface around the relay core: profiles,
// favorites, history, unread counts, and diagnostics.
type Adaptor struct {
	relay    RelayUsecase
	presence PresenceUsecase
	profile  ProfileUsecase
}

func NewAdaptor(relay RelayUsecase, presence PresenceUsecase, profile ProfileUsecase) *Adaptor {
	return &Adaptor{
		relay:    relay,
		presence: presence,
		profile:  profile,
	}
}

// Routes builds the HTTP router, mounting ws as the real-time endpoint.
func (a *Adaptor) Routes(ws http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/users", a.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/users", a.createUser).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{email}", a.getUser).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{email}", a.updateUser).Methods(http.MethodPut)

	r.HandleFunc("/api/messages", a.history).Methods(http.MethodGet)
	r.HandleFunc("/api/messages/unread", a.unreadCount).Methods(http.MethodGet)
	r.HandleFunc("/api/messages/read", a.markRead).Methods(http.MethodPost)

	r.HandleFunc("/api/favorites", a.listFavorites).Methods(http.MethodGet)
	r.HandleFunc("/api/favorites", a.addFavorite).Methods(http.MethodPost)
	r.HandleFunc("/api/favorites", a.removeFavorite).Methods(http.MethodDelete)

	r.HandleFunc("/api/stats", a.stats).Methods(http.MethodGet)

	r.Handle("/ws", ws)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidIdentity), errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, repository.ErrAlreadyExists):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (a *Adaptor) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.profile.ListUsers()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *Adaptor) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := a.profile.CreateUser(req.Email, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *Adaptor) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.profile.GetUser(mux.Vars(r)["email"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *Adaptor) updateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName   string `json:"displayName"`
		StatusMessage string `json:"statusMessage"`
		Avatar        string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := a.profile.UpdateUser(mux.Vars(r)["email"], req.DisplayName, req.StatusMessage, req.Avatar)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *Adaptor) history(w http.ResponseWriter, r *http.Request) {
	messages, err := a.relay.History(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (a *Adaptor) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := a.relay.UnreadCount(r.URL.Query().Get("user"), r.URL.Query().Get("contact"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (a *Adaptor) markRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User    string `json:"user"`
		Contact string `json:"contact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := a.relay.MarkRead(req.User, req.Contact); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *Adaptor) listFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := a.profile.ListFavorites(r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, favorites)
}

func (a *Adaptor) addFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User    string `json:"user"`
		Contact string `json:"contact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := a.profile.AddFavorite(req.User, req.Contact); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *Adaptor) removeFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User    string `json:"user"`
		Contact string `json:"contact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := a.profile.RemoveFavorite(req.User, req.Contact); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *Adaptor) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"online": a.presence.OnlineCount()})
}
